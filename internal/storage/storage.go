// Package storage abstracts the object store documents live in.
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the boundary the document service talks to. The S3 driver
// backs the running service; Memory backs tests.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	SignedURL(key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}
