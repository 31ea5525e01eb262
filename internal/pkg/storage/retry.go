package storage

import (
	"context"

	"github.com/voxnotes/meetgo/internal/pkg/retrier"
)

//FileSaver saves one blob under a name
type FileSaver interface {
	Save(ctx context.Context, name string, data []byte, contentType string) error
}

//SaveWithRetry uploads with the retry policy.
//Saver upsert semantics make retries idempotent
func SaveWithRetry(ctx context.Context, fs FileSaver, name string, data []byte, contentType string, p retrier.Policy) error {
	return retrier.Do(func() error {
		return fs.Save(ctx, name, data, contentType)
	}, p)
}
