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

// RecordingSaver saves recording data to mongo db
type RecordingSaver struct {
	SessionProvider *SessionProvider
}

//NewRecordingSaver creates RecordingSaver instance
func NewRecordingSaver(sessionProvider *SessionProvider) (*RecordingSaver, error) {
	if sessionProvider == nil {
		return nil, errors.New("No session provider")
	}
	return &RecordingSaver{SessionProvider: sessionProvider}, nil
}

// Insert adds new recording
func (ss *RecordingSaver) Insert(data *persistence.Recording) error {
	cmdapp.Log.Infof("Saving recording %s", data.ID)

	ctx, cancel := mongoContext()
	defer cancel()

	c, err := ss.SessionProvider.Collection(recordingTable)
	if err != nil {
		return err
	}
	now := time.Now()
	data.Created, data.Updated = now, now
	_, err = c.InsertOne(ctx, data)
	return errors.Wrapf(err, "Can't save recording %s", data.ID)
}

// SetStatus updates recording status.
// Terminal rows are left untouched so a late writer can't
// move error or completed back
func (ss *RecordingSaver) SetStatus(id string, st status.Status, errMsg string) error {
	cmdapp.Log.Infof("Set recording %s status %s", id, status.Name(st))

	set := bson.M{"status": status.Name(st), "updated": time.Now()}
	if errMsg != "" {
		set["errorMessage"] = errMsg
	}
	return ss.update(id, bson.M{"$set": set}, true)
}

// SetTranscription saves the final transcript text
func (ss *RecordingSaver) SetTranscription(id string, text string) error {
	return ss.update(id, bson.M{"$set": bson.M{"transcription": text, "updated": time.Now()}}, false)
}

// Delete removes recording row, the upload failure rollback
func (ss *RecordingSaver) Delete(id string) error {
	cmdapp.Log.Infof("Deleting recording %s", id)

	ctx, cancel := mongoContext()
	defer cancel()

	c, err := ss.SessionProvider.Collection(recordingTable)
	if err != nil {
		return err
	}
	_, err = c.DeleteOne(ctx, bson.M{"ID": sanitize(id)})
	return errors.Wrapf(err, "Can't delete recording %s", id)
}

func (ss *RecordingSaver) update(id string, update bson.M, guardTerminal bool) error {
	ctx, cancel := mongoContext()
	defer cancel()

	c, err := ss.SessionProvider.Collection(recordingTable)
	if err != nil {
		return err
	}
	err = c.FindOneAndUpdate(ctx, updateFilter(id, guardTerminal), update,
		options.FindOneAndUpdate().SetUpsert(false)).Err()
	if err == mongo.ErrNoDocuments {
		cmdapp.Log.Warnf("Recording %s not updated", id)
		return nil
	}
	return errors.Wrapf(err, "Can't update recording %s", id)
}
