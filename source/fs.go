package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// FS reads documents from an fs.FS, such as an embedded or in-memory tree.
type FS struct {
	fsys fs.FS
}

var _ Source = (*FS)(nil)

// FromFS wraps fsys as a Source.
func FromFS(fsys fs.FS) *FS {
	return &FS{fsys: fsys}
}

// Open opens the named document in the file system.
func (s *FS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidName, name)
	}
	f, err := s.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	return f, nil
}
