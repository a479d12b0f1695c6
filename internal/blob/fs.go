package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/kailas-cloud/ekn/internal/db"
)

// Compile-time check: FSStore implements Store.
var _ Store = (*FSStore)(nil)

// FSStore serves keys as files below a root directory.
type FSStore struct {
	root string
}

// NewFSStore creates a store rooted at dir.
func NewFSStore(dir string) *FSStore {
	return &FSStore{root: dir}
}

// Path maps a key to its file path. Keys cannot escape the root.
func (s *FSStore) Path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+key)))
}

// Open opens the file behind key.
func (s *FSStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, &db.Error{Op: db.OpBlobOpen, Err: err}
	}
	return f, nil
}

// Exists reports whether a regular file exists behind key.
func (s *FSStore) Exists(_ context.Context, key string) (bool, error) {
	fi, err := os.Stat(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &db.Error{Op: db.OpBlobExists, Err: err}
	}
	return fi.Mode().IsRegular(), nil
}
