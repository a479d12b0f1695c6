// Package sharded serves content domains whose search index stores only
// identifiers. Metadata and content bytes live in a shard file.
package sharded

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kailas-cloud/ekn/internal/db"
	"github.com/kailas-cloud/ekn/internal/domain"
	"github.com/kailas-cloud/ekn/internal/domain/content"
	"github.com/kailas-cloud/ekn/internal/domain/ekn"
	"github.com/kailas-cloud/ekn/internal/shard"
)

var errNotLoaded = errors.New("shard not loaded")

// fetcher materialises blob keys as local files.
type fetcher interface {
	Local(ctx context.Context, key string) (string, error)
}

// Config locates a shard domain.
type Config struct {
	Domain    string
	IndexPath string
	// ShardKey is the blob key of the domain's shard file.
	ShardKey string
}

// Repo implements resolver.Storage for shard domains.
// Load must complete before any other call.
type Repo struct {
	cfg     Config
	fetcher fetcher
	file    *shard.File
}

// New creates a shard domain repository.
func New(cfg Config, f fetcher) *Repo {
	return &Repo{cfg: cfg, fetcher: f}
}

// Load fetches and opens the shard file.
func (r *Repo) Load(ctx context.Context) error {
	if r.file != nil {
		return nil
	}
	p, err := r.fetcher.Local(ctx, r.cfg.ShardKey)
	if err != nil {
		return fmt.Errorf("fetch shard %s: %w", r.cfg.ShardKey, err)
	}
	f, err := shard.Open(p)
	if err != nil {
		return err
	}
	r.file = f
	return nil
}

// Close releases the shard file.
func (r *Repo) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// Params returns the backend parameters of the domain.
func (r *Repo) Params() db.DomainParams {
	return db.DomainParams{Path: r.cfg.IndexPath}
}

// ResolveHit treats the hit as an identifier and fetches it from the shard.
func (r *Repo) ResolveHit(ctx context.Context, hit string) (content.Model, error) {
	id, err := ekn.Parse(hit)
	if err != nil {
		return nil, fmt.Errorf("resolve hit: %w", err)
	}
	return r.Fetch(ctx, id)
}

// Fetch reads the record of id. Content bytes are read only when the
// model is opened.
func (r *Repo) Fetch(ctx context.Context, id ekn.ID) (content.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.file == nil {
		return nil, errNotLoaded
	}
	if id.Domain() != r.cfg.Domain {
		return nil, fmt.Errorf("fetch %s: %w", id, domain.ErrDomainMismatch)
	}
	rec, ok := r.file.Find(id.Hash())
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", id, domain.ErrNotFound)
	}
	meta, err := rec.Metadata()
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}
	p, err := content.Decode(meta)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}

	var open content.Accessor
	if data, ok := rec.Data(); ok {
		open = func(ctx context.Context) (io.ReadCloser, string, error) {
			if err := ctx.Err(); err != nil {
				return nil, "", err
			}
			rc, err := data.Open()
			if err != nil {
				return nil, "", err
			}
			return rc, data.ContentType(), nil
		}
	}
	return content.New(p, open)
}
