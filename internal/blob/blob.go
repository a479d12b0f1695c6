// Package blob reads content bytes (media files and shard archives) from a
// pluggable object store.
package blob

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"
)

// ErrNotFound signals a key missing from the store.
var ErrNotFound = errors.New("blob: not found")

// Store is a read-only keyed byte store. Keys use forward slashes.
type Store interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// DefaultType is returned by GuessType for unknown extensions.
const DefaultType = "application/octet-stream"

// Types the platform MIME table may not know about.
var extraTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".ogv":  "video/ogg",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
}

// GuessType guesses a MIME type from the extension of p.
func GuessType(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return DefaultType
	}
	if t, ok := extraTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return DefaultType
}
