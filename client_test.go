package ekn

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/ekn/internal/shard"
)

const (
	oakID  = "ekn://plants/000000000000000a"
	pineID = "ekn://plants/000000000000000b"
	elmID  = "ekn://plants/000000000000000c"
)

// fakeBridge serves /query with a fixed hit list, paged by offset and limit.
type fakeBridge struct {
	hits    []string
	queries atomic.Int32
	lastQ   atomic.Value
}

func (b *fakeBridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/":
		_, _ = w.Write([]byte(`{}`))
	case "/query":
		b.queries.Add(1)
		b.lastQ.Store(r.URL.Query().Get("q"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		page := []string{}
		if offset < len(b.hits) {
			page = b.hits[offset:min(offset+limit, len(b.hits))]
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"numResults": len(page),
			"upperBound": len(b.hits),
			"offset":     offset,
			"results":    page,
		})
	case "/fix":
		_ = json.NewEncoder(w).Encode(map[string]string{
			"spellCorrectedQuery": "oak tree",
		})
	default:
		http.NotFound(w, r)
	}
}

func writePlants(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "plants")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "EKN_VERSION"), []byte("2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := shard.NewWriter()
	add := func(hash, meta, data string) {
		var d []byte
		if data != "" {
			d = []byte(data)
		}
		if err := w.Add(hash, []byte(meta), d, "text/html", false); err != nil {
			t.Fatal(err)
		}
	}
	add("000000000000000a", `{"@id":"`+oakID+`","@type":"ArticleObject","title":"Oak"}`, "<h1>Oak</h1>")
	add("000000000000000b", `{"@id":"`+pineID+`","title":"Pine","redirectsTo":"`+oakID+`"}`, "")
	add("000000000000000c", `{"@id":"`+elmID+`","@type":"ArticleObject","title":"Elm"}`, "<h1>Elm</h1>")

	f, err := os.Create(filepath.Join(dir, "content.shard"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := w.WriteTo(f); err != nil {
		t.Fatal(err)
	}
	return root
}

func newTestClient(t *testing.T, bridge http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(bridge)
	t.Cleanup(srv.Close)

	opts = append([]Option{
		WithBridge(srv.URL),
		WithContentRoot(writePlants(t)),
		WithDefaultDomain("plants"),
		WithCacheDir(t.TempDir()),
		WithPoolSize(2),
	}, opts...)
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_RequiresBridge(t *testing.T) {
	_, err := New(WithContentRoot(t.TempDir()))
	if err == nil {
		t.Fatal("expected error when no bridge configured")
	}
}

func TestNew_RequiresContentSource(t *testing.T) {
	_, err := New(WithBridge("http://127.0.0.1:1"))
	if err == nil {
		t.Fatal("expected error when no content source configured")
	}
}

func TestWireClient_BlobStoreNeedsIndexRoot(t *testing.T) {
	cfg := &clientConfig{store: fakeStore{}}
	if _, err := wireClient(cfg, nil); err == nil {
		t.Fatal("expected error without index root")
	}
}

type fakeStore struct{}

func (fakeStore) Open(context.Context, string) (io.ReadCloser, error) { return nil, errors.New("no") }
func (fakeStore) Exists(context.Context, string) (bool, error)        { return false, nil }

func TestClient_QueryAndPaging(t *testing.T) {
	bridge := &fakeBridge{hits: []string{oakID, pineID, elmID}}
	c := newTestClient(t, bridge)

	res, err := c.Query().Text("tree").Limit(2).Do(context.Background())
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if res.UpperBound != 3 {
		t.Errorf("upper bound = %d", res.UpperBound)
	}
	if len(res.Models) != 2 {
		t.Fatalf("models = %d", len(res.Models))
	}
	// pine redirects to oak
	for i, m := range res.Models {
		if m.ID().String() != oakID {
			t.Errorf("model %d = %s, want %s", i, m.ID(), oakID)
		}
	}
	if res.Next == nil {
		t.Fatal("expected a next page")
	}

	page2, err := res.Next.Do(context.Background())
	if err != nil {
		t.Fatalf("next Do: %v", err)
	}
	if len(page2.Models) != 1 || page2.Models[0].Title() != "Elm" {
		t.Fatalf("page 2 = %+v", page2.Models)
	}
	if page2.Next != nil {
		t.Error("expected last page")
	}
	if got := bridge.lastQ.Load().(string); got == "" {
		t.Error("bridge received an empty query")
	}
}

func TestClient_QueryInvalidRequest(t *testing.T) {
	bridge := &fakeBridge{}
	c := newTestClient(t, bridge)

	_, err := c.Query().Limit(-1).Do(context.Background())
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
	if bridge.queries.Load() != 0 {
		t.Error("invalid request reached the bridge")
	}
}

func TestClient_Object(t *testing.T) {
	c := newTestClient(t, &fakeBridge{})

	m, err := c.Object(context.Background(), pineID)
	if err != nil {
		t.Fatalf("Object: %v", err)
	}
	art, ok := m.(*Article)
	if !ok {
		t.Fatalf("model is %T, want *Article", m)
	}
	rc, _, err := art.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "<h1>Oak</h1>" {
		t.Errorf("body = %q", body)
	}
}

func TestClient_ObjectErrors(t *testing.T) {
	c := newTestClient(t, &fakeBridge{})

	tests := []struct {
		name string
		id   string
		want error
	}{
		{"bad scheme", "http://plants/000000000000000a", ErrUnexpectedScheme},
		{"bad hash", "ekn://plants/zz", ErrMalformedHash},
		{"missing", "ekn://plants/00000000000000ff", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Object(context.Background(), tt.id)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClient_Fix(t *testing.T) {
	c := newTestClient(t, &fakeBridge{})

	got, err := c.Query().Text("oak tre").Fix(context.Background())
	if err != nil {
		t.Fatalf("Fix: %v", err)
	}
	if got != "oak tree" {
		t.Errorf("fixed = %q", got)
	}
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, &fakeBridge{}, WithPrometheus(reg))

	_, _ = c.Object(context.Background(), oakID)
	_, _ = c.Object(context.Background(), "ekn://plants/00000000000000ff")

	if n := testutil.GatherAndCount(reg, "ekn_sdk_operations_total"); n != 2 {
		t.Errorf("series = %d, want 2 (ok and error)", n)
	}
}
