package ekn

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ekn/internal/blob"
	"github.com/kailas-cloud/ekn/internal/db/xapian"
	eknid "github.com/kailas-cloud/ekn/internal/domain/ekn"
	"github.com/kailas-cloud/ekn/internal/domain/search/query"
	"github.com/kailas-cloud/ekn/internal/logger"
	"github.com/kailas-cloud/ekn/internal/usecase/engine"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the ekn SDK entry point. It is safe for concurrent use.
type Client struct {
	engine *engine.Engine
	pool   *ants.Pool
	logger *zap.Logger
	obs    *observer
}

// New creates a Client and waits for the search bridge to answer.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.bridgeURL == "" {
		return nil, errors.New("ekn: search bridge address required (use WithBridge)")
	}
	if cfg.contentRoot == "" && cfg.store == nil {
		return nil, errors.New("ekn: content source required (use WithContentRoot or WithBlobStore)")
	}

	backend, err := xapian.NewClient(xapian.Config{BaseURL: cfg.bridgeURL})
	if err != nil {
		return nil, fmt.Errorf("ekn: create bridge client: %w", err)
	}
	if err := backend.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
		return nil, fmt.Errorf("ekn: search bridge not ready: %w", err)
	}

	return wireClient(cfg, backend)
}

func wireClient(cfg *clientConfig, backend *xapian.Client) (*Client, error) {
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var store blob.Store = cfg.store
	if store == nil {
		store = blob.NewFSStore(cfg.contentRoot)
	}
	indexRoot := cfg.indexRoot
	if indexRoot == "" {
		indexRoot = cfg.contentRoot
	}
	if indexRoot == "" {
		return nil, errors.New("ekn: index root required with a blob store (use WithIndexRoot)")
	}
	cacheDir := cfg.cacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "ekn-cache")
	}
	size := cfg.poolSize
	if size <= 0 {
		size = 4 * runtime.GOMAXPROCS(0)
	}

	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("ekn: create resolution pool: %w", err)
	}

	factory := engine.NewFactory(
		engine.FactoryConfig{IndexRoot: indexRoot},
		blob.NewFetcher(store, cacheDir),
		backend,
		query.NewCompiler(query.NewDenylist(cfg.denylist)),
		pool,
	)

	log := cfg.logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		engine: engine.New(engine.Config{DefaultDomain: cfg.defaultDomain}, factory),
		pool:   pool,
		logger: log,
		obs:    obs,
	}, nil
}

// Close releases open shard files and the resolution pool.
func (c *Client) Close() error {
	err := c.engine.Close()
	c.pool.Release()
	return err
}

// Domains lists the domains opened so far.
func (c *Client) Domains() []string {
	return c.engine.Domains()
}

// Query starts a query against the default domain.
func (c *Client) Query() *QueryBuilder {
	return &QueryBuilder{client: c}
}

// Object resolves an "ekn://domain/hash" identifier, following redirects.
func (c *Client) Object(ctx context.Context, id string) (m Model, err error) {
	defer func(start time.Time) { c.obs.observe("object", start, err) }(time.Now())

	parsed, err := eknid.Parse(id)
	if err != nil {
		return nil, err
	}
	return c.engine.GetObjectByID(c.context(ctx), parsed)
}

func (c *Client) context(ctx context.Context) context.Context {
	return logger.ContextWithLogger(ctx, c.logger)
}
