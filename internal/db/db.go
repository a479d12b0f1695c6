package db

import (
	"context"
	"time"
)

// Store is the search backend facade.
type Store interface {
	Pinger
	Searcher
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Searcher runs compiled queries against a domain's full-text index.
type Searcher interface {
	Query(ctx context.Context, q *Query) (*SearchResult, error)
	Fix(ctx context.Context, q *FixQuery) (*FixResult, error)
}
