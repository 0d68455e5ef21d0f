package objectstore

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("object not found")

type Object struct {
	Path        string
	URL         string
	ContentType string
	Size        int64
	UploadedAt  time.Time
}

// Store is a path-keyed, publicly readable blob store. Put overwrites any
// object already stored at the same path and returns its public URL.
type Store interface {
	Put(ctx context.Context, path string, body []byte, contentType string) (string, error)
	Get(ctx context.Context, path string) ([]byte, Object, error)
	List(ctx context.Context, prefix string) ([]Object, error)
	Delete(ctx context.Context, url string) error
	// Fetch retrieves an object through its public URL. The returned content
	// type is what the store reports, which may differ from what was put.
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}
