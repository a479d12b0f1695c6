package chi

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ekn/internal/domain/content"
	"github.com/kailas-cloud/ekn/internal/domain/ekn"
	"github.com/kailas-cloud/ekn/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/ekn/internal/usecase/health"
	"github.com/kailas-cloud/ekn/internal/usecase/resolver"
)

// mockEngine implements Engine for tests.
type mockEngine struct {
	searchFn func(ctx context.Context, req request.Request) (*resolver.Results, error)
	getFn    func(ctx context.Context, id ekn.ID) (content.Model, error)
	fixFn    func(ctx context.Context, req request.Request) (request.Request, error)
}

func (m *mockEngine) GetObjectsByQuery(ctx context.Context, req request.Request) (*resolver.Results, error) {
	return m.searchFn(ctx, req)
}

func (m *mockEngine) GetObjectByID(ctx context.Context, id ekn.ID) (content.Model, error) {
	return m.getFn(ctx, id)
}

func (m *mockEngine) GetFixedQuery(ctx context.Context, req request.Request) (request.Request, error) {
	return m.fixFn(ctx, req)
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(context.Context) error { return m.err }

func newTestRouter(engine Engine, pingErr error) http.Handler {
	health := healthuc.New(&mockPinger{err: pingErr}, nil, nil)
	return NewRouter(NewServer(engine, health, zap.NewNop()), nil, zap.NewNop())
}

func mustModel(t *testing.T, props content.Properties, body string) content.Model {
	t.Helper()
	var open content.Accessor
	if body != "" {
		open = func(context.Context) (io.ReadCloser, string, error) {
			return io.NopCloser(strings.NewReader(body)), "text/html", nil
		}
	}
	m, err := content.New(props, open)
	if err != nil {
		t.Fatalf("content.New: %v", err)
	}
	return m
}
