package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/domains/{domain}/search", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	for _, d := range []string{"animals", "travel-es"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/domains/"+d+"/search", http.NoBody)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
	}

	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/domains/{domain}/search", "200"))
	if val < 2 {
		t.Errorf("requests_total for route pattern = %f, want >= 2", val)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/objects", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/v1/objects/content", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.WriteHeader(http.StatusOK) // ignored: first status wins
	})

	tests := []struct {
		path   string
		status string
	}{
		{"/v1/objects", "404"},
		{"/v1/objects/content", "500"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, http.NoBody)
			r.ServeHTTP(httptest.NewRecorder(), req)

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tc.path, tc.status))
			if val < 1 {
				t.Errorf("requests_total for %s with status %s = %f", tc.path, tc.status, val)
			}
		})
	}
}

func TestMiddleware_CountsResponseBytes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/bytes", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
		_, _ = w.Write([]byte("01234"))
	})

	before := testutil.ToFloat64(httpResponseBytes.WithLabelValues("GET", "/bytes"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bytes", http.NoBody))
	after := testutil.ToFloat64(httpResponseBytes.WithLabelValues("GET", "/bytes"))
	if after-before != 15 {
		t.Errorf("response bytes delta = %f, want 15", after-before)
	}
}

func TestStatusWriter_Unwrap(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rr}
	if sw.Unwrap() != rr {
		t.Error("Unwrap did not return the underlying writer")
	}
}

func TestMiddleware_InFlightReturnsToZero(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if v := testutil.ToFloat64(httpInFlight); v < 1 {
			t.Errorf("in flight during request = %f", v)
		}
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
	if v := testutil.ToFloat64(httpInFlight); v != 0 {
		t.Errorf("in flight after request = %f", v)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unknown"},
		{"/v1/objects", "/v1/objects"},
		{"/healthz", "/healthz"},
	}
	for _, tc := range tests {
		if got := routeLabel(tc.input); got != tc.expected {
			t.Errorf("routeLabel(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestRegisterHTTPMetrics_Idempotent(t *testing.T) {
	RegisterHTTPMetrics()
	RegisterHTTPMetrics()
}

func TestRegisterResolverMetrics_Idempotent(t *testing.T) {
	RegisterResolverMetrics()
	RegisterResolverMetrics()

	ResolverQueriesTotal.WithLabelValues("animals", Status(nil)).Inc()
	if v := testutil.ToFloat64(ResolverQueriesTotal.WithLabelValues("animals", "ok")); v < 1 {
		t.Errorf("resolver_queries_total = %f", v)
	}
}

func TestStatus(t *testing.T) {
	if Status(nil) != "ok" || Status(errors.New("x")) != "error" {
		t.Error("unexpected status labels")
	}
}
