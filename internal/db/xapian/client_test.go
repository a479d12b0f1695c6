package xapian

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/kailas-cloud/ekn/internal/db"
	"github.com/kailas-cloud/ekn/internal/domain/search/query"
	"github.com/kailas-cloud/ekn/internal/domain/search/ranking"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected error for empty base url")
	}
	if _, err := NewClient(Config{BaseURL: "ftp://bridge"}); err == nil {
		t.Error("expected error for non-http scheme")
	}
}

func TestQuery_Params(t *testing.T) {
	var got url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Errorf("path = %q", r.URL.Path)
		}
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"numResults":2,"upperBound":7,"offset":5,
			"results":["ekn://d/0000000000000001", {"@id":"ekn://d/0000000000000002"}]}`))
	})

	res, err := c.Query(context.Background(), &db.Query{
		Params: db.DomainParams{Path: "/data/d/db"},
		Compiled: query.Compiled{
			Query:         "(title:cats)",
			Cutoff:        20,
			SortValue:     ranking.SlotRank,
			HasSort:       true,
			Order:         ranking.Descending,
			CollapseValue: ranking.SlotSourceURL,
			Offset:        5,
			Limit:         2,
		},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	want := map[string]string{
		"path": "/data/d/db", "q": "(title:cats)", "offset": "5", "limit": "2",
		"cutoff": "20", "collapse": "0", "sortBy": "1", "order": "desc",
	}
	for k, v := range want {
		if got.Get(k) != v {
			t.Errorf("param %s = %q, want %q", k, got.Get(k), v)
		}
	}
	if res.UpperBound != 7 || res.Offset != 5 || res.NumResults != 2 {
		t.Errorf("result = %+v", res)
	}
	if len(res.Hits) != 2 || res.Hits[0] != "ekn://d/0000000000000001" {
		t.Fatalf("hits = %v", res.Hits)
	}
	if res.Hits[1] != `{"@id":"ekn://d/0000000000000002"}` {
		t.Errorf("inline hit = %q", res.Hits[1])
	}
}

func TestQuery_NoSortOmitsSortParams(t *testing.T) {
	var got url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{"numResults":0,"upperBound":0,"offset":0,"results":[]}`))
	})
	res, err := c.Query(context.Background(), &db.Query{Compiled: query.Compiled{Limit: 10, Cutoff: 10}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got.Has("sortBy") || got.Has("order") {
		t.Errorf("sort params sent without a sort slot: %v", got)
	}
	if !got.Has("q") || got.Get("q") != "" {
		t.Errorf("q = %q, want empty match-all query", got.Get("q"))
	}
	if len(res.Hits) != 0 {
		t.Errorf("hits = %v", res.Hits)
	}
}

func TestQuery_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantIs     error
	}{
		{"index missing", http.StatusNotFound, "no such index", http.StatusNotFound, db.ErrIndexNotFound},
		{"server error", http.StatusInternalServerError, "boom", http.StatusInternalServerError, nil},
		{"bad json", http.StatusOK, "{", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Query(context.Background(), &db.Query{})
			var dbErr *db.Error
			if !errors.As(err, &dbErr) {
				t.Fatalf("error = %v (%T), want *db.Error", err, err)
			}
			if dbErr.Op != db.OpQuery || dbErr.Status != tt.wantStatus {
				t.Errorf("db.Error = {%s %d}, want {%s %d}", dbErr.Op, dbErr.Status, db.OpQuery, tt.wantStatus)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.wantIs)
			}
		})
	}
}

func TestQuery_Cancelled(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Query(ctx, &db.Query{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestFix(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fix" || r.URL.Query().Get("q") != "the catz" || r.URL.Query().Get("path") != "/p" {
			t.Errorf("unexpected request %s", r.URL)
		}
		_, _ = w.Write([]byte(`{"stopWordCorrectedQuery":"catz","spellCorrectedQuery":"the cats"}`))
	})
	res, err := c.Fix(context.Background(), &db.FixQuery{Params: db.DomainParams{Path: "/p"}, Text: "the catz"})
	if err != nil {
		t.Fatalf("Fix: %v", err)
	}
	if res.StopWordCorrected != "catz" || res.SpellCorrected != "the cats" {
		t.Errorf("Fix() = %+v", res)
	}
}

func TestPingAndWaitForReady(t *testing.T) {
	healthy := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	if err := healthy.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if err := healthy.WaitForReady(context.Background(), time.Second); err != nil {
		t.Errorf("WaitForReady: %v", err)
	}

	down := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if err := down.Ping(context.Background()); err == nil {
		t.Error("Ping succeeded against failing backend")
	}
	if err := down.WaitForReady(context.Background(), 250*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForReady error = %v, want deadline exceeded", err)
	}
}
