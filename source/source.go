// Package source fetches the bytes of batch documents by file identifier.
package source

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound indicates the document does not exist. Retrying will not help.
	ErrNotFound = errors.New("document not found")

	// ErrUnavailable indicates the store could not be reached. Retrying may help.
	ErrUnavailable = errors.New("document store unavailable")

	// ErrInvalidName indicates a file identifier that escapes the store root.
	ErrInvalidName = errors.New("invalid document name")
)

// Source reads documents by file identifier.
// Implementations must be thread-safe for concurrent use.
type Source interface {
	// Open returns a reader for the named document. The caller closes it.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// ReadAll reads the named document into memory.
func ReadAll(ctx context.Context, src Source, name string) ([]byte, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
