package mongodb

import (
	"time"

	"github.com/pkg/errors"

	"github.com/voxnotes/meetgo/internal/pkg/persistence"
)

// LogSaver appends processing log records to mongo db
type LogSaver struct {
	SessionProvider *SessionProvider
}

//NewLogSaver creates LogSaver instance
func NewLogSaver(sessionProvider *SessionProvider) (*LogSaver, error) {
	if sessionProvider == nil {
		return nil, errors.New("No session provider")
	}
	return &LogSaver{SessionProvider: sessionProvider}, nil
}

// Insert appends one log record. Records are never updated or removed
func (ss *LogSaver) Insert(data *persistence.ProcessingLog) error {
	ctx, cancel := mongoContext()
	defer cancel()

	c, err := ss.SessionProvider.Collection(logTable)
	if err != nil {
		return err
	}
	data.Created = time.Now()
	_, err = c.InsertOne(ctx, data)
	return errors.Wrapf(err, "Can't save log for %s", data.RecordingID)
}
