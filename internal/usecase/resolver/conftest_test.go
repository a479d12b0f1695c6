package resolver

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/panjf2000/ants/v2"

	"github.com/kailas-cloud/ekn/internal/db"
	"github.com/kailas-cloud/ekn/internal/domain"
	"github.com/kailas-cloud/ekn/internal/domain/content"
	"github.com/kailas-cloud/ekn/internal/domain/ekn"
	"github.com/kailas-cloud/ekn/internal/domain/search/query"
)

const testDomain = "animals"

func testID(n int) string {
	return fmt.Sprintf("ekn://%s/%016x", testDomain, n)
}

func mustModel(t *testing.T, id, redirectsTo string) content.Model {
	t.Helper()
	p := content.Properties{"@id": id, "title": "title of " + id}
	if redirectsTo != "" {
		p["redirectsTo"] = redirectsTo
	}
	m, err := content.New(p, nil)
	if err != nil {
		t.Fatalf("content.New: %v", err)
	}
	return m
}

// mockStorage implements Storage for tests.
type mockStorage struct {
	loadFn    func(ctx context.Context) error
	resolveFn func(ctx context.Context, hit string) (content.Model, error)
	objects   map[string]content.Model

	loads    atomic.Int32
	resolves atomic.Int32
	fetches  atomic.Int32
}

func (m *mockStorage) Load(ctx context.Context) error {
	m.loads.Add(1)
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return nil
}

func (m *mockStorage) Params() db.DomainParams {
	return db.DomainParams{Path: "/content/" + testDomain + "/db"}
}

func (m *mockStorage) ResolveHit(ctx context.Context, hit string) (content.Model, error) {
	m.resolves.Add(1)
	if m.resolveFn != nil {
		return m.resolveFn(ctx, hit)
	}
	if obj, ok := m.objects[hit]; ok {
		return obj, nil
	}
	return nil, fmt.Errorf("hit %s: %w", hit, domain.ErrNotFound)
}

func (m *mockStorage) Fetch(_ context.Context, id ekn.ID) (content.Model, error) {
	m.fetches.Add(1)
	if obj, ok := m.objects[id.String()]; ok {
		return obj, nil
	}
	return nil, fmt.Errorf("fetch %s: %w", id, domain.ErrNotFound)
}

// mockSearcher implements Searcher for tests.
type mockSearcher struct {
	queryFn func(ctx context.Context, q *db.Query) (*db.SearchResult, error)
	fixFn   func(ctx context.Context, q *db.FixQuery) (*db.FixResult, error)
	queries atomic.Int32
}

func (m *mockSearcher) Query(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	m.queries.Add(1)
	if m.queryFn != nil {
		return m.queryFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockSearcher) Fix(ctx context.Context, q *db.FixQuery) (*db.FixResult, error) {
	if m.fixFn != nil {
		return m.fixFn(ctx, q)
	}
	return &db.FixResult{}, nil
}

func newTestDomain(t *testing.T) (*Domain, *mockStorage, *mockSearcher) {
	t.Helper()
	pool, err := ants.NewPool(4)
	if err != nil {
		t.Fatalf("ants.NewPool: %v", err)
	}
	t.Cleanup(pool.Release)

	ms := &mockStorage{objects: map[string]content.Model{}}
	mq := &mockSearcher{}
	d := New(Config{Name: testDomain, Version: "shard"}, ms, mq, query.NewCompiler(query.Denylist{}), pool)
	return d, ms, mq
}

func hitsResult(upperBound int, hits ...string) func(context.Context, *db.Query) (*db.SearchResult, error) {
	return func(context.Context, *db.Query) (*db.SearchResult, error) {
		return &db.SearchResult{UpperBound: upperBound, Hits: hits}, nil
	}
}
