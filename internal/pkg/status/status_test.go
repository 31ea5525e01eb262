package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	assert.Equal(t, "pending", Name(Pending))
	assert.Equal(t, "generating_minutes", Name(GeneratingMinutes))
	assert.Equal(t, "error", Name(Failed))
	assert.Equal(t, "", Name(Status(0)))
}

func TestFrom(t *testing.T) {
	assert.Equal(t, Uploaded, From("uploaded"))
	assert.Equal(t, Failed, From("error"))
	assert.Equal(t, Status(0), From("olia"))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(Completed))
	assert.True(t, IsTerminal(Failed))
	assert.False(t, IsTerminal(Transcribing))
	assert.False(t, IsTerminal(Pending))
}

func TestMin(t *testing.T) {
	assert.Equal(t, Pending, Min(Pending, Completed))
	assert.Equal(t, Processing, Min(Transcribing, Processing))
}
