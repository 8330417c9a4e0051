package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Download when no object exists at the path.
var ErrNotFound = errors.New("storage: object not found")

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	ContentType  string    `json:"content_type"`
}

// Storage is implemented by every provider.
type Storage interface {
	// Upload writes reader to path, replacing any existing object.
	// An empty contentType lets the provider guess.
	Upload(ctx context.Context, path string, reader io.Reader, contentType string) error

	// Download returns the object at path. The caller closes it.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at path. Missing objects are not an error.
	Delete(ctx context.Context, path string) error

	Exists(ctx context.Context, path string) (bool, error)

	// URL returns the public URL of the object at path.
	URL(ctx context.Context, path string) (string, error)

	// List returns objects whose path starts with prefix, sorted by path.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

// SignedURLProvider is implemented by providers that can issue time-limited
// URLs for private objects.
type SignedURLProvider interface {
	SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}
