package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/voxnotes/meetgo/internal/pkg/status"
)

// updateFilter selects the row by ID.
// With guardTerminal the filter skips rows already completed or
// failed, a late writer can't move them to another state
func updateFilter(id string, guardTerminal bool) bson.M {
	res := bson.M{"ID": sanitize(id)}
	if guardTerminal {
		res["status"] = bson.M{"$nin": []string{status.Name(status.Completed), status.Name(status.Failed)}}
	}
	return res
}

// statusProgressUpdate builds the update moving progress only up,
// concurrent writers can't take it back
func statusProgressUpdate(set bson.M, progress int32) bson.M {
	set["updated"] = time.Now()
	return bson.M{"$set": set, "$max": bson.M{"progress": progress}}
}
