package core

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectStore stores uploaded documents.
type ObjectStore interface {
	Upload(ctx context.Context, path, contentType string, body io.Reader, size int64) error
	// SignedURL returns a time-limited URL to read the object at path.
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}
