package mongodb

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/voxnotes/meetgo/internal/pkg/persistence"
	"github.com/voxnotes/meetgo/internal/pkg/taskclient"
)

// PendingProvider lists chunk works with outstanding remote tasks
type PendingProvider struct {
	SessionProvider *SessionProvider
}

//NewPendingProvider creates PendingProvider instance
func NewPendingProvider(sessionProvider *SessionProvider) (*PendingProvider, error) {
	if sessionProvider == nil {
		return nil, errors.New("No session provider")
	}
	return &PendingProvider{SessionProvider: sessionProvider}, nil
}

// List returns up to limit works having at least one non terminal chunk,
// oldest updated first. Works of failed recordings have all chunks
// terminal, so they are never selected again
func (ss *PendingProvider) List(limit int) ([]*persistence.ChunkWork, error) {
	ctx, cancel := mongoContext()
	defer cancel()

	c, err := ss.SessionProvider.Collection(workTable)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"chunks.status": bson.M{"$in": []string{taskclient.StQueued, taskclient.StProcessing}}}
	cursor, err := c.Find(ctx, filter,
		options.Find().SetSort(bson.M{"updated": 1}).SetLimit(int64(limit)))
	if err != nil {
		return nil, errors.Wrap(err, "Can't list pending works")
	}
	defer cursor.Close(ctx)
	var res []*persistence.ChunkWork
	for cursor.Next(ctx) {
		var w persistence.ChunkWork
		if err := cursor.Decode(&w); err != nil {
			return nil, errors.Wrap(err, "Can't decode chunk work")
		}
		res = append(res, &w)
	}
	return res, errors.Wrap(cursor.Err(), "Can't read pending works")
}
