// Package filestore keeps the raw content of uploaded plate lists, either in
// the application database or in an S3 bucket.
package filestore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no content exists under a key.
var ErrNotFound = errors.New("file not found")

// Store is a flat key/value blob store.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
