package mongodb

import (
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
	"github.com/voxnotes/meetgo/internal/pkg/persistence"
	"github.com/voxnotes/meetgo/internal/pkg/taskclient"
)

// WorkSaver tracks chunk task state of recordings in mongo db
type WorkSaver struct {
	SessionProvider *SessionProvider
}

//NewWorkSaver creates WorkSaver instance
func NewWorkSaver(sessionProvider *SessionProvider) (*WorkSaver, error) {
	if sessionProvider == nil {
		return nil, errors.New("No session provider")
	}
	return &WorkSaver{SessionProvider: sessionProvider}, nil
}

// Insert adds new chunk work
func (ss *WorkSaver) Insert(data *persistence.ChunkWork) error {
	cmdapp.Log.Infof("Saving chunk work %s (%d chunks)", data.ID, len(data.Chunks))

	ctx, cancel := mongoContext()
	defer cancel()

	c, err := ss.SessionProvider.Collection(workTable)
	if err != nil {
		return err
	}
	now := time.Now()
	data.Created, data.Updated = now, now
	_, err = c.InsertOne(ctx, data)
	return errors.Wrapf(err, "Can't save chunk work %s", data.ID)
}

// Get loads work by recording id
func (ss *WorkSaver) Get(id string) (*persistence.ChunkWork, error) {
	ctx, cancel := mongoContext()
	defer cancel()

	c, err := ss.SessionProvider.Collection(workTable)
	if err != nil {
		return nil, err
	}
	var res persistence.ChunkWork
	err = c.FindOne(ctx, bson.M{"ID": sanitize(id)}).Decode(&res)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load chunk work %s", id)
	}
	return &res, nil
}

// GetByTaskID loads work holding the remote task
func (ss *WorkSaver) GetByTaskID(taskID string) (*persistence.ChunkWork, error) {
	ctx, cancel := mongoContext()
	defer cancel()

	c, err := ss.SessionProvider.Collection(workTable)
	if err != nil {
		return nil, err
	}
	var res persistence.ChunkWork
	err = c.FindOne(ctx, bson.M{"chunks.taskID": sanitize(taskID)}).Decode(&res)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load chunk work by task %s", taskID)
	}
	return &res, nil
}

// SetChunkTask stores the remote task id of one chunk
func (ss *WorkSaver) SetChunkTask(id string, index int, taskID string) error {
	return ss.updateChunk(id, index, bson.M{
		"chunks.$.taskID": taskID, "chunks.$.status": taskclient.StQueued})
}

// SetChunkResult stores the terminal state of one chunk
func (ss *WorkSaver) SetChunkResult(id string, chunk persistence.Chunk) error {
	cmdapp.Log.Infof("Chunk %d of %s -> %s", chunk.Index, id, chunk.Status)

	return ss.updateChunk(id, chunk.Index, bson.M{
		"chunks.$.status": chunk.Status, "chunks.$.text": chunk.Text,
		"chunks.$.error": chunk.Error})
}

// SetChunkStatus stores an intermediate chunk task status
func (ss *WorkSaver) SetChunkStatus(id string, index int, st string) error {
	return ss.updateChunk(id, index, bson.M{"chunks.$.status": st})
}

// IncChecks counts one reconciler visit, used for progress estimation
func (ss *WorkSaver) IncChecks(id string) error {
	ctx, cancel := mongoContext()
	defer cancel()

	c, err := ss.SessionProvider.Collection(workTable)
	if err != nil {
		return err
	}
	_, err = c.UpdateOne(ctx, bson.M{"ID": sanitize(id)},
		bson.M{"$inc": bson.M{"checks": 1}, "$set": bson.M{"updated": time.Now()}})
	return errors.Wrapf(err, "Can't update chunk work %s", id)
}

// Delete removes the work row
func (ss *WorkSaver) Delete(id string) error {
	ctx, cancel := mongoContext()
	defer cancel()

	c, err := ss.SessionProvider.Collection(workTable)
	if err != nil {
		return err
	}
	_, err = c.DeleteOne(ctx, bson.M{"ID": sanitize(id)})
	return errors.Wrapf(err, "Can't delete chunk work %s", id)
}

func (ss *WorkSaver) updateChunk(id string, index int, set bson.M) error {
	ctx, cancel := mongoContext()
	defer cancel()

	c, err := ss.SessionProvider.Collection(workTable)
	if err != nil {
		return err
	}
	set["updated"] = time.Now()
	err = c.FindOneAndUpdate(ctx,
		bson.M{"ID": sanitize(id), "chunks.index": index},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetUpsert(false)).Err()
	return errors.Wrapf(err, "Can't update chunk %d of %s", index, id)
}
