package resolver

import (
	"context"

	"github.com/kailas-cloud/ekn/internal/db"
	"github.com/kailas-cloud/ekn/internal/domain/content"
	"github.com/kailas-cloud/ekn/internal/domain/ekn"
	"github.com/kailas-cloud/ekn/internal/domain/search/query"
	"github.com/kailas-cloud/ekn/internal/domain/search/request"
)

// Storage is the physical layout of one content domain.
type Storage interface {
	// Load performs the I/O needed before queries can run. It is called at
	// most once at a time and never again after it succeeds.
	Load(ctx context.Context) error
	// Params is valid only after Load succeeds.
	Params() db.DomainParams
	ResolveHit(ctx context.Context, hit string) (content.Model, error)
	Fetch(ctx context.Context, id ekn.ID) (content.Model, error)
}

// Searcher runs compiled queries on the search backend.
type Searcher interface {
	Query(ctx context.Context, q *db.Query) (*db.SearchResult, error)
	Fix(ctx context.Context, q *db.FixQuery) (*db.FixResult, error)
}

// Compiler renders requests into backend queries.
type Compiler interface {
	Compile(req request.Request) (query.Compiled, error)
}

// Submitter runs tasks on a bounded worker pool.
type Submitter interface {
	Submit(task func()) error
}
