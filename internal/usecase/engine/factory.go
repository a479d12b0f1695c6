package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ekn/internal/blob"
	"github.com/kailas-cloud/ekn/internal/db"
	"github.com/kailas-cloud/ekn/internal/domain/format"
	"github.com/kailas-cloud/ekn/internal/domain/search/query"
	"github.com/kailas-cloud/ekn/internal/logger"
	"github.com/kailas-cloud/ekn/internal/repository/legacy"
	"github.com/kailas-cloud/ekn/internal/repository/sharded"
	"github.com/kailas-cloud/ekn/internal/usecase/resolver"
)

// Layout defaults inside a domain directory.
const (
	DefaultIndexDir  = "db"
	DefaultMediaDir  = "media"
	DefaultShardName = "content.shard"
)

// FactoryConfig locates domains. Blob keys are relative to the content store
// root; IndexRoot is the same root as seen by the search backend.
type FactoryConfig struct {
	IndexRoot string
	MediaDir  string
	ShardName string
}

func (c *FactoryConfig) applyDefaults() {
	if c.MediaDir == "" {
		c.MediaDir = DefaultMediaDir
	}
	if c.ShardName == "" {
		c.ShardName = DefaultShardName
	}
}

// Factory detects a domain's layout version and wires the matching storage.
type Factory struct {
	cfg      FactoryConfig
	fetcher  *blob.Fetcher
	search   db.Searcher
	compiler *query.Compiler
	pool     resolver.Submitter

	mu      sync.Mutex
	closers []io.Closer
}

// NewFactory creates a Factory. The fetcher's store holds markers, media and shards.
func NewFactory(
	cfg FactoryConfig,
	fetcher *blob.Fetcher,
	search db.Searcher,
	compiler *query.Compiler,
	pool resolver.Submitter,
) *Factory {
	cfg.applyDefaults()
	return &Factory{
		cfg:      cfg,
		fetcher:  fetcher,
		search:   search,
		compiler: compiler,
		pool:     pool,
	}
}

// DetectVersion reads the version marker of a domain. A missing marker means legacy.
func (f *Factory) DetectVersion(ctx context.Context, name string) (format.Version, error) {
	key := path.Join(name, format.MarkerFile)
	rc, err := f.fetcher.Store().Open(ctx, key)
	if errors.Is(err, blob.ErrNotFound) {
		return format.Legacy, nil
	}
	if err != nil {
		return 0, fmt.Errorf("detect version of domain %s: %w", name, err)
	}
	defer rc.Close()

	// Markers are a version number; anything longer is not one of ours.
	body, err := io.ReadAll(io.LimitReader(rc, 64))
	if err != nil {
		return 0, fmt.Errorf("detect version of domain %s: %w", name, err)
	}
	v, err := format.Parse(string(body))
	if err != nil {
		return 0, fmt.Errorf("detect version of domain %s: %w", name, err)
	}
	return v, nil
}

// Build creates the resolver for a domain.
func (f *Factory) Build(ctx context.Context, name string) (*resolver.Domain, error) {
	v, err := f.DetectVersion(ctx, name)
	if err != nil {
		return nil, err
	}

	indexPath := path.Join(f.cfg.IndexRoot, name, DefaultIndexDir)
	var storage resolver.Storage
	switch v {
	case format.Legacy:
		storage = legacy.New(legacy.Config{
			Domain:      name,
			IndexPath:   indexPath,
			MediaPrefix: path.Join(name, f.cfg.MediaDir) + "/",
		}, f.search, f.compiler, f.fetcher.Store())
	case format.Shard:
		repo := sharded.New(sharded.Config{
			Domain:    name,
			IndexPath: indexPath,
			ShardKey:  path.Join(name, f.cfg.ShardName),
		}, f.fetcher)
		f.mu.Lock()
		f.closers = append(f.closers, repo)
		f.mu.Unlock()
		storage = repo
	}

	logger.FromContext(ctx).Info("Domain created",
		zap.String("domain", name),
		zap.Stringer("version", v),
		zap.String("index", indexPath),
	)
	return resolver.New(
		resolver.Config{Name: name, Version: v.String()},
		storage, f.search, f.compiler, f.pool,
	), nil
}

// Close releases shard files opened by built domains.
func (f *Factory) Close() error {
	f.mu.Lock()
	closers := f.closers
	f.closers = nil
	f.mu.Unlock()

	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
