// Package legacy serves content domains whose search index stores complete
// JSON documents. Media files live in a flat directory next to the index.
package legacy

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/kailas-cloud/ekn/internal/blob"
	"github.com/kailas-cloud/ekn/internal/db"
	"github.com/kailas-cloud/ekn/internal/domain"
	"github.com/kailas-cloud/ekn/internal/domain/content"
	"github.com/kailas-cloud/ekn/internal/domain/ekn"
	"github.com/kailas-cloud/ekn/internal/domain/search/query"
	"github.com/kailas-cloud/ekn/internal/domain/search/request"
)

// searcher is the consumer interface for backend queries (ISP).
type searcher interface {
	Query(ctx context.Context, q *db.Query) (*db.SearchResult, error)
}

// compiler renders requests into backend queries.
type compiler interface {
	Compile(req request.Request) (query.Compiled, error)
}

// Config locates a legacy domain.
type Config struct {
	Domain string
	// IndexPath is the index location handed to the backend.
	IndexPath string
	// MediaPrefix is prepended to media file names to form blob keys.
	MediaPrefix string
}

// Repo implements resolver.Storage for legacy domains.
type Repo struct {
	cfg      Config
	search   searcher
	compiler compiler
	media    blob.Store
}

// New creates a legacy domain repository.
func New(cfg Config, s searcher, c compiler, media blob.Store) *Repo {
	return &Repo{cfg: cfg, search: s, compiler: c, media: media}
}

// Load has nothing to open: the backend owns the index.
func (r *Repo) Load(ctx context.Context) error {
	return ctx.Err()
}

// Params returns the backend parameters of the domain.
func (r *Repo) Params() db.DomainParams {
	return db.DomainParams{Path: r.cfg.IndexPath}
}

// ResolveHit parses a hit that carries the whole JSON document.
func (r *Repo) ResolveHit(_ context.Context, hit string) (content.Model, error) {
	p, err := content.Decode([]byte(hit))
	if err != nil {
		return nil, err
	}
	open, err := r.accessor(p)
	if err != nil {
		return nil, err
	}
	return content.New(p, open)
}

// Fetch looks a single object up by id through the backend.
func (r *Repo) Fetch(ctx context.Context, id ekn.ID) (content.Model, error) {
	if id.Domain() != r.cfg.Domain {
		return nil, fmt.Errorf("fetch %s: %w", id, domain.ErrDomainMismatch)
	}
	req, err := request.New(
		request.WithDomain(r.cfg.Domain),
		request.WithIDs(id.String()),
		request.WithLimit(1),
	)
	if err != nil {
		return nil, err
	}
	compiled, err := r.compiler.Compile(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}
	res, err := r.search.Query(ctx, &db.Query{Params: r.Params(), Compiled: compiled})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}
	if len(res.Hits) == 0 {
		return nil, fmt.Errorf("fetch %s: %w", id, domain.ErrNotFound)
	}
	return r.ResolveHit(ctx, res.Hits[0])
}

// accessor picks the content stream of a legacy document: the inline
// article body, or the media file named by contentURL.
func (r *Repo) accessor(p content.Properties) (content.Accessor, error) {
	body, err := p.String("articleBody")
	if err != nil {
		return nil, err
	}
	if body != "" {
		return func(ctx context.Context) (io.ReadCloser, string, error) {
			if err := ctx.Err(); err != nil {
				return nil, "", err
			}
			return io.NopCloser(strings.NewReader(body)), "text/html", nil
		}, nil
	}

	contentURL, err := p.String("contentURL")
	if err != nil || contentURL == "" {
		return nil, err
	}
	ct, err := p.String("contentType")
	if err != nil {
		return nil, err
	}
	name := path.Base(contentURL)
	if ct == "" {
		ct = blob.GuessType(name)
	}
	key := r.cfg.MediaPrefix + name
	return func(ctx context.Context) (io.ReadCloser, string, error) {
		rc, err := r.media.Open(ctx, key)
		if err != nil {
			return nil, "", fmt.Errorf("open media %s: %w", key, err)
		}
		return rc, ct, nil
	}, nil
}
