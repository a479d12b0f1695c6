package legacy

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/kailas-cloud/ekn/internal/blob"
	"github.com/kailas-cloud/ekn/internal/db"
	"github.com/kailas-cloud/ekn/internal/domain/search/query"
)

// mockSearcher implements the consumer interface for tests.
type mockSearcher struct {
	queryFn func(ctx context.Context, q *db.Query) (*db.SearchResult, error)
	queries []*db.Query
}

func (m *mockSearcher) Query(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	m.queries = append(m.queries, q)
	if m.queryFn != nil {
		return m.queryFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

// mapStore is an in-memory blob.Store.
type mapStore map[string]string

func (m mapStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	v, ok := m[key]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(v)), nil
}

func (m mapStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m[key]
	return ok, nil
}

func newTestRepo(t *testing.T, media mapStore) (*Repo, *mockSearcher) {
	t.Helper()
	ms := &mockSearcher{}
	repo := New(Config{
		Domain:      "animals",
		IndexPath:   "/content/animals/db",
		MediaPrefix: "animals/media/",
	}, ms, query.NewCompiler(query.Denylist{}), media)
	return repo, ms
}
