package main

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ekn/internal/blob"
	"github.com/kailas-cloud/ekn/internal/config"
	"github.com/kailas-cloud/ekn/internal/db/xapian"
	"github.com/kailas-cloud/ekn/internal/domain/format"
	"github.com/kailas-cloud/ekn/internal/domain/search/query"
	"github.com/kailas-cloud/ekn/internal/metrics"
	"github.com/kailas-cloud/ekn/internal/usecase/engine"
	healthuc "github.com/kailas-cloud/ekn/internal/usecase/health"
)

// app is the composition root shared by serve and get.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	backend *xapian.Client
	store   blob.Store
	engine  *engine.Engine
	health  *healthuc.Service
	pool    *ants.Pool
	closers []func()
}

func loadConfig(c *cli.Command) (config.Config, string, error) {
	env := config.GetEnv()
	var (
		cfg config.Config
		err error
	)
	if p := c.String("config"); p != "" {
		cfg, err = config.LoadFile(p)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, "", err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return cfg, env, nil
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	backend, err := xapian.NewClient(xapian.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: time.Duration(cfg.Backend.TimeoutSec) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}
	a.backend = backend

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	pool, err := ants.NewPool(cfg.Content.PoolSize)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create resolution pool: %w", err)
	}
	a.pool = pool
	a.closers = append(a.closers, pool.Release)

	// Register resolver metrics explicitly (no init())
	metrics.RegisterResolverMetrics()

	compiler := query.NewCompiler(query.NewDenylist(cfg.Denylist))
	factory := engine.NewFactory(
		engine.FactoryConfig{
			IndexRoot: cfg.Content.IndexRoot,
			MediaDir:  cfg.Content.MediaDir,
			ShardName: cfg.Content.ShardName,
		},
		blob.NewFetcher(a.store, cfg.Content.CacheDir),
		backend,
		compiler,
		pool,
	)
	a.engine = engine.New(engine.Config{DefaultDomain: cfg.Content.DefaultDomain}, factory)
	a.closers = append(a.closers, func() {
		if err := a.engine.Close(); err != nil {
			logger.Warn("Failed to close domains", zap.Error(err))
		}
	})

	a.health = healthuc.New(backend, &storeChecker{store: a.store, domain: cfg.Content.DefaultDomain}, a.engine)
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Blob.Driver {
	case config.BlobDriverFS:
		a.store = blob.NewFSStore(a.cfg.Content.Root)
	case config.BlobDriverS3:
		s3cfg := a.cfg.Blob.S3
		store, err := blob.NewS3Store(ctx, blob.S3Config{
			Bucket:          s3cfg.Bucket,
			Region:          s3cfg.Region,
			Endpoint:        s3cfg.Endpoint,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			Prefix:          s3cfg.Prefix,
		})
		if err != nil {
			return fmt.Errorf("create s3 store: %w", err)
		}
		a.store = store
	case config.BlobDriverRedis:
		store, err := blob.NewRedisStore(blob.RedisConfig{
			Addrs:    a.cfg.Blob.Redis.Addrs,
			Password: a.cfg.Blob.Redis.Password,
			Prefix:   a.cfg.Blob.Redis.Prefix,
		})
		if err != nil {
			return fmt.Errorf("create redis store: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, store.Close)
	default:
		return fmt.Errorf("unknown blob driver %q", a.cfg.Blob.Driver)
	}
	a.logger.Info("Content store ready", zap.String("driver", a.cfg.Blob.Driver))
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// storeChecker reports the content store healthy when it answers a lookup.
type storeChecker struct {
	store  blob.Store
	domain string
}

func (s *storeChecker) HealthCheck(ctx context.Context) error {
	if s.domain == "" {
		return nil
	}
	_, err := s.store.Exists(ctx, path.Join(s.domain, format.MarkerFile))
	if err != nil && !errors.Is(err, blob.ErrNotFound) {
		return fmt.Errorf("content store: %w", err)
	}
	return nil
}
