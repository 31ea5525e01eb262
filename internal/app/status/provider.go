package status

import (
	"github.com/pkg/errors"

	"github.com/voxnotes/meetgo/internal/app/status/api"
	"github.com/voxnotes/meetgo/internal/pkg/persistence"
)

// Provider provides note status for a recording ID
type Provider interface {
	Get(id string) (*api.NoteStatus, error)
}

// NoteGetter loads note rows
type NoteGetter interface {
	GetByRecording(recordingID string) (*persistence.Note, error)
}

// NoteStatusProvider maps stored notes to the status API shape
type NoteStatusProvider struct {
	notes NoteGetter
}

//NewNoteStatusProvider creates NoteStatusProvider instance
func NewNoteStatusProvider(notes NoteGetter) (*NoteStatusProvider, error) {
	if notes == nil {
		return nil, errors.New("No note provider")
	}
	return &NoteStatusProvider{notes: notes}, nil
}

// Get loads note status by recording id
func (p *NoteStatusProvider) Get(id string) (*api.NoteStatus, error) {
	note, err := p.notes.GetByRecording(id)
	if err != nil {
		return nil, err
	}
	return &api.NoteStatus{ID: note.RecordingID, NoteID: note.ID,
		Status: note.Status, Progress: note.Progress,
		Transcript: note.OriginalTranscript, ProcessedContent: note.ProcessedContent,
		TotalChunks: note.TotalChunks, CurrentChunk: note.CurrentChunk,
		Error: note.ErrorMessage}, nil
}
