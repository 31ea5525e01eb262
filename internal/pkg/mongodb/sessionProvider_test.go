package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
)

func TestNewSessionProvider_FailsOnNoURL(t *testing.T) {
	cmdapp.Config.Set("mongo.url", "")
	_, err := NewSessionProvider()
	assert.NotNil(t, err)
}

func TestNewSessionProvider(t *testing.T) {
	cmdapp.Config.Set("mongo.url", "mongodb://localhost:27017")
	defer cmdapp.Config.Set("mongo.url", "")
	sp, err := NewSessionProvider()
	assert.Nil(t, err)
	assert.NotNil(t, sp)
	assert.NotEmpty(t, sp.indexes)
}

func TestNewSavers_FailOnNoProvider(t *testing.T) {
	_, err := NewRecordingSaver(nil)
	assert.NotNil(t, err)
	_, err = NewNoteSaver(nil)
	assert.NotNil(t, err)
	_, err = NewWorkSaver(nil)
	assert.NotNil(t, err)
	_, err = NewLogSaver(nil)
	assert.NotNil(t, err)
	_, err = NewPendingProvider(nil)
	assert.NotNil(t, err)
	_, err = NewNoteProvider(nil)
	assert.NotNil(t, err)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "id", sanitize(" $id^ "))
	assert.Equal(t, "id", sanitize("id"))
}
