package mongodb

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/voxnotes/meetgo/internal/pkg/persistence"
)

// NoteProvider loads note data from mongo db
type NoteProvider struct {
	SessionProvider *SessionProvider
}

//NewNoteProvider creates NoteProvider instance
func NewNoteProvider(sessionProvider *SessionProvider) (*NoteProvider, error) {
	if sessionProvider == nil {
		return nil, errors.New("No session provider")
	}
	return &NoteProvider{SessionProvider: sessionProvider}, nil
}

// Get loads note by id
func (ss *NoteProvider) Get(id string) (*persistence.Note, error) {
	c, err := ss.SessionProvider.Collection(noteTable)
	if err != nil {
		return nil, err
	}
	ctx, cancel := mongoContext()
	defer cancel()
	var res persistence.Note
	err = c.FindOne(ctx, bson.M{"ID": sanitize(id)}).Decode(&res)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load note %s", id)
	}
	fillTranscriptFallback(&res, ss)
	return &res, nil
}

// GetByRecording loads note of a recording
func (ss *NoteProvider) GetByRecording(recordingID string) (*persistence.Note, error) {
	c, err := ss.SessionProvider.Collection(noteTable)
	if err != nil {
		return nil, err
	}
	ctx, cancel := mongoContext()
	defer cancel()
	var res persistence.Note
	err = c.FindOne(ctx, bson.M{"recordingID": sanitize(recordingID)}).Decode(&res)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load note for recording %s", recordingID)
	}
	fillTranscriptFallback(&res, ss)
	return &res, nil
}

// a completed note must expose a transcript even if the note row
// write was lost, the recording row keeps the authoritative copy
func fillTranscriptFallback(note *persistence.Note, ss *NoteProvider) {
	if note.OriginalTranscript != "" || note.Status != "completed" {
		return
	}
	c, err := ss.SessionProvider.Collection(recordingTable)
	if err != nil {
		return
	}
	ctx, cancel := mongoContext()
	defer cancel()
	var rec persistence.Recording
	if err := c.FindOne(ctx, bson.M{"ID": sanitize(note.RecordingID)}).Decode(&rec); err == nil {
		note.OriginalTranscript = rec.Transcription
	}
}
