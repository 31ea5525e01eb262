package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voxnotes/meetgo/internal/pkg/status"
)

func TestConvert(t *testing.T) {
	assert.Equal(t, int32(5), Convert("pending"))
	assert.Equal(t, int32(15), Convert("processing"))
	assert.Equal(t, int32(80), Convert("generating_minutes"))
	assert.Equal(t, int32(100), Convert("completed"))
	assert.Equal(t, int32(0), Convert("unknown"))
}

func TestConvert_Grows(t *testing.T) {
	sts := []status.Status{status.Pending, status.Uploaded, status.Processing,
		status.Transcribing, status.GeneratingMinutes, status.Completed}
	prev := int32(-1)
	for _, st := range sts {
		v := Convert(status.Name(st))
		assert.True(t, v > prev, "progress for %s", status.Name(st))
		prev = v
	}
	assert.Equal(t, int32(100), prev)
}
