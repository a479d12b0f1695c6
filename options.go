package ekn

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// BlobStore is a read-only keyed byte store holding domain files.
// Keys are "<domain>/<file>" with forward slashes.
type BlobStore interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
}

type clientConfig struct {
	contentRoot   string
	indexRoot     string
	bridgeURL     string
	defaultDomain string
	denylist      map[string][]string
	store         BlobStore
	cacheDir      string
	poolSize      int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithContentRoot reads domains from a local directory. The bridge is
// expected to see the same path.
func WithContentRoot(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.contentRoot = dir
	})
}

// WithIndexRoot sets the directory the bridge sees domains under, when it
// differs from the content root.
func WithIndexRoot(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexRoot = dir
	})
}

// WithBridge sets the xapian-bridge base URL, e.g. "http://127.0.0.1:3004".
func WithBridge(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.bridgeURL = baseURL
	})
}

// WithDefaultDomain sets the domain used by queries that name none.
func WithDefaultDomain(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultDomain = name
	})
}

// WithDenylist excludes content carrying the given tags, per domain.
func WithDenylist(tags map[string][]string) Option {
	return optionFunc(func(c *clientConfig) {
		c.denylist = tags
	})
}

// WithBlobStore reads domain files from store instead of the content root.
// Shard files are cached locally under WithCacheDir.
func WithBlobStore(store BlobStore) Option {
	return optionFunc(func(c *clientConfig) {
		c.store = store
	})
}

// WithCacheDir sets where remote shard files are cached.
// Defaults to a directory under os.TempDir().
func WithCacheDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDir = dir
	})
}

// WithPoolSize bounds concurrent hit resolution across all domains.
// Default: 4 * GOMAXPROCS.
func WithPoolSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.poolSize = n
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
