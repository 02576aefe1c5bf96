package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned (wrapped) when an object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Storage is the blob store holding uploaded and extracted media.
type Storage interface {
	// Upload writes reader to key with the given content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Download opens the object at key. The caller closes the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key exists.
	Exists(ctx context.Context, key string) (bool, error)
}
