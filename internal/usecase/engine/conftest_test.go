package engine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/panjf2000/ants/v2"

	"github.com/kailas-cloud/ekn/internal/blob"
	"github.com/kailas-cloud/ekn/internal/db"
	"github.com/kailas-cloud/ekn/internal/domain/search/query"
	"github.com/kailas-cloud/ekn/internal/shard"
	"github.com/kailas-cloud/ekn/internal/usecase/resolver"
)

// mockSearcher implements db.Searcher for tests.
type mockSearcher struct {
	queryFn func(ctx context.Context, q *db.Query) (*db.SearchResult, error)
}

func (m *mockSearcher) Query(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockSearcher) Fix(context.Context, *db.FixQuery) (*db.FixResult, error) {
	return &db.FixResult{}, nil
}

// countingBuilder wraps a Builder and counts builds.
type countingBuilder struct {
	Builder
	builds atomic.Int32
}

func (c *countingBuilder) Build(ctx context.Context, name string) (*resolver.Domain, error) {
	c.builds.Add(1)
	return c.Builder.Build(ctx, name)
}

// gatedBuilder blocks its first build until release is closed, then fails
// that build with the build context's error. Later builds delegate.
type gatedBuilder struct {
	Builder
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newGatedBuilder(b Builder) *gatedBuilder {
	return &gatedBuilder{Builder: b, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedBuilder) Build(ctx context.Context, name string) (*resolver.Domain, error) {
	if g.calls.Add(1) == 1 {
		close(g.entered)
		<-g.release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return g.Builder.Build(ctx, name)
}

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

type shardEntry struct {
	hash     string
	metadata string
	data     string
}

func writeShard(t *testing.T, root, rel string, entries ...shardEntry) {
	t.Helper()
	w := shard.NewWriter()
	for _, e := range entries {
		var data []byte
		if e.data != "" {
			data = []byte(e.data)
		}
		if err := w.Add(e.hash, []byte(e.metadata), data, "text/html", true); err != nil {
			t.Fatalf("shard add: %v", err)
		}
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatalf("shard write: %v", err)
	}
	writeFile(t, root, rel, buf.Bytes())
}

func newTestFactory(t *testing.T, root string, search db.Searcher) *Factory {
	t.Helper()
	pool, err := ants.NewPool(4)
	if err != nil {
		t.Fatalf("ants.NewPool: %v", err)
	}
	t.Cleanup(pool.Release)

	f := NewFactory(
		FactoryConfig{IndexRoot: "/srv/content"},
		blob.NewFetcher(blob.NewFSStore(root), t.TempDir()),
		search,
		query.NewCompiler(query.Denylist{}),
		pool,
	)
	t.Cleanup(func() { _ = f.Close() })
	return f
}
