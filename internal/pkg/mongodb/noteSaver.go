package mongodb

import (
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
	"github.com/voxnotes/meetgo/internal/pkg/persistence"
	"github.com/voxnotes/meetgo/internal/pkg/status"
)

// NoteSaver saves note data to mongo db
type NoteSaver struct {
	SessionProvider *SessionProvider
}

//NewNoteSaver creates NoteSaver instance
func NewNoteSaver(sessionProvider *SessionProvider) (*NoteSaver, error) {
	if sessionProvider == nil {
		return nil, errors.New("No session provider")
	}
	return &NoteSaver{SessionProvider: sessionProvider}, nil
}

// Insert adds new note
func (ss *NoteSaver) Insert(data *persistence.Note) error {
	cmdapp.Log.Infof("Saving note %s for recording %s", data.ID, data.RecordingID)

	ctx, cancel := mongoContext()
	defer cancel()

	c, err := ss.SessionProvider.Collection(noteTable)
	if err != nil {
		return err
	}
	now := time.Now()
	data.Created, data.Updated = now, now
	_, err = c.InsertOne(ctx, data)
	return errors.Wrapf(err, "Can't save note %s", data.ID)
}

// Update moves note status and progress forward.
// Progress uses $max so concurrent writers can't move it back,
// terminal rows are not selected at all
func (ss *NoteSaver) Update(id string, st status.Status, progress int32) error {
	cmdapp.Log.Infof("Set note %s status %s (%d)", id, status.Name(st), progress)

	return ss.update(id, statusProgressUpdate(bson.M{"status": status.Name(st)}, progress), true)
}

// SetTranscript writes the assembled transcript and moves the note on
func (ss *NoteSaver) SetTranscript(id string, text string, st status.Status, progress int32) error {
	cmdapp.Log.Infof("Set note %s transcript (%d b)", id, len(text))

	return ss.update(id, statusProgressUpdate(
		bson.M{"originalTranscript": text, "status": status.Name(st)}, progress), true)
}

// SetChunks stores chunked job counters
func (ss *NoteSaver) SetChunks(id string, total, current int32) error {
	return ss.update(id, bson.M{
		"$set": bson.M{"totalChunks": total, "currentChunk": current, "updated": time.Now()}}, true)
}

// SetError marks note failed. Completed notes are left untouched
func (ss *NoteSaver) SetError(id string, errMsg string) error {
	cmdapp.Log.Infof("Set note %s error", id)

	return ss.update(id, bson.M{
		"$set": bson.M{"status": status.Name(status.Failed), "errorMessage": errMsg,
			"updated": time.Now()}}, true)
}

// Delete removes note row, the upload failure rollback
func (ss *NoteSaver) Delete(id string) error {
	cmdapp.Log.Infof("Deleting note %s", id)

	ctx, cancel := mongoContext()
	defer cancel()

	c, err := ss.SessionProvider.Collection(noteTable)
	if err != nil {
		return err
	}
	_, err = c.DeleteOne(ctx, bson.M{"ID": sanitize(id)})
	return errors.Wrapf(err, "Can't delete note %s", id)
}

func (ss *NoteSaver) update(id string, update bson.M, guardTerminal bool) error {
	ctx, cancel := mongoContext()
	defer cancel()

	c, err := ss.SessionProvider.Collection(noteTable)
	if err != nil {
		return err
	}
	err = c.FindOneAndUpdate(ctx, updateFilter(id, guardTerminal), update,
		options.FindOneAndUpdate().SetUpsert(false)).Err()
	if err == mongo.ErrNoDocuments {
		cmdapp.Log.Warnf("Note %s not updated", id)
		return nil
	}
	return errors.Wrapf(err, "Can't update note %s", id)
}
