package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/ekn/internal/db"
)

// Fetcher materialises keys as local files so they can be memory-mapped or
// read at random offsets. Keys of an FSStore resolve in place; other stores
// download once into a cache directory.
type Fetcher struct {
	store    Store
	cacheDir string
	group    singleflight.Group
}

// NewFetcher creates a fetcher over store caching downloads in cacheDir.
func NewFetcher(store Store, cacheDir string) *Fetcher {
	return &Fetcher{store: store, cacheDir: cacheDir}
}

// Store returns the underlying store.
func (f *Fetcher) Store() Store { return f.store }

// Local returns a local file path holding the bytes behind key.
func (f *Fetcher) Local(ctx context.Context, key string) (string, error) {
	if fsStore, ok := f.store.(*FSStore); ok {
		ok, err := fsStore.Exists(ctx, key)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fsStore.Path(key), nil
	}

	dst := f.cachePath(key)
	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	}
	v, err, _ := f.group.Do(key, func() (any, error) {
		return dst, f.download(ctx, key, dst)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// cachePath names the cached copy of key by a hash prefix, keeping the extension.
func (f *Fetcher) cachePath(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:16])+path.Ext(key))
}

func (f *Fetcher) download(ctx context.Context, key, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &db.Error{Op: db.OpBlobFetch, Err: err}
	}

	src, err := f.store.Open(ctx, key)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return &db.Error{Op: db.OpBlobFetch, Err: err}
	}
	tmp := filepath.Join(f.cacheDir, ".tmp-"+uuid.NewString())
	out, err := os.Create(tmp)
	if err != nil {
		return &db.Error{Op: db.OpBlobFetch, Err: err}
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return &db.Error{Op: db.OpBlobFetch, Err: fmt.Errorf("copy %s: %w", key, err)}
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return &db.Error{Op: db.OpBlobFetch, Err: err}
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return &db.Error{Op: db.OpBlobFetch, Err: err}
	}
	return nil
}
