package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ekn/internal/db"
	"github.com/kailas-cloud/ekn/internal/domain"
	"github.com/kailas-cloud/ekn/internal/domain/content"
	"github.com/kailas-cloud/ekn/internal/domain/ekn"
	"github.com/kailas-cloud/ekn/internal/domain/search/mode"
	"github.com/kailas-cloud/ekn/internal/domain/search/ranking"
	"github.com/kailas-cloud/ekn/internal/domain/search/request"
	"github.com/kailas-cloud/ekn/internal/logger"
	healthuc "github.com/kailas-cloud/ekn/internal/usecase/health"
	"github.com/kailas-cloud/ekn/internal/usecase/resolver"
)

// MaxLimit caps the page size a client may request.
const MaxLimit = 100

// StatusClientClosedRequest is written when the client went away mid-request.
const StatusClientClosedRequest = 499

// ErrorCode is a machine-readable error kind.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeInvalidID          ErrorCode = "invalid_id"
	CodeDomainMismatch     ErrorCode = "domain_mismatch"
	CodeNotFound           ErrorCode = "not_found"
	CodeDomainNotFound     ErrorCode = "domain_not_found"
	CodeNoContent          ErrorCode = "no_content"
	CodeUnsupportedVersion ErrorCode = "unsupported_version"
	CodeRedirectLoop       ErrorCode = "redirect_loop"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Engine is the consumer interface for content resolution (ISP).
type Engine interface {
	GetObjectsByQuery(ctx context.Context, req request.Request) (*resolver.Results, error)
	GetObjectByID(ctx context.Context, id ekn.ID) (content.Model, error)
	GetFixedQuery(ctx context.Context, req request.Request) (request.Request, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves content resolution over HTTP.
type Server struct {
	engine        Engine
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(engine Engine, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		engine: engine,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		cancellationHandler,
		inputHandler(domain.ErrInvalidID, CodeInvalidID),
		inputHandler(domain.ErrUnexpectedScheme, CodeInvalidID),
		inputHandler(domain.ErrUnexpectedStructure, CodeInvalidID),
		inputHandler(domain.ErrMalformedHash, CodeInvalidID),
		inputHandler(domain.ErrDomainMismatch, CodeDomainMismatch),
		inputHandler(domain.ErrInvalidRequest, CodeBadRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(db.ErrIndexNotFound, http.StatusNotFound, CodeDomainNotFound),
		sentinelHandler(domain.ErrNoContent, http.StatusNotFound, CodeNoContent),
		sentinelHandler(domain.ErrUnsupportedVersion, http.StatusNotImplemented, CodeUnsupportedVersion),
		sentinelHandler(domain.ErrRedirectLoop, http.StatusLoopDetected, CodeRedirectLoop),
	}
	return s
}

// Search handles GET /v1/domains/{domain}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequestFromQuery(chi.URLParam(r, "domain"), r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	res, err := s.engine.GetObjectsByQuery(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resultsToResponse(res))
}

// FixQuery handles GET /v1/domains/{domain}/fix.
func (s *Server) FixQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	req, err := request.New(request.WithDomain(chi.URLParam(r, "domain")), request.WithQuery(q))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	fixed, err := s.engine.GetFixedQuery(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, FixResponse{Query: fixed.Query(), Original: q})
}

// GetObject handles GET /v1/objects?id=.
func (s *Server) GetObject(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ModelToResponse(m))
}

// GetObjectContent handles GET /v1/objects/content?id=.
func (s *Server) GetObjectContent(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}

	rc, contentType, err := m.Open(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-ID", m.ID().String())
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		logger.FromContext(r.Context()).Warn("content stream interrupted",
			zap.Stringer("id", m.ID()),
			zap.Error(err),
		)
	}
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":  report.Status,
		"checks":  checks,
		"domains": report.Domains,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// lookup resolves the id query parameter, writing the error response on failure.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (content.Model, bool) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "id is required")
		return nil, false
	}
	id, err := ekn.Parse(raw)
	if err != nil {
		s.handleDomainError(w, r, err)
		return nil, false
	}
	m, err := s.engine.GetObjectByID(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return nil, false
	}
	return m, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// cancellationHandler answers requests whose client went away. Nobody reads the body.
func cancellationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	w.WriteHeader(StatusClientClosedRequest)
	return true
}

// inputHandler maps a caller mistake to 400 and echoes the error, which
// only carries the caller's own input.
func inputHandler(sentinel error, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, http.StatusBadRequest, code, err.Error())
		return true
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The message is the sentinel's own, without internals.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func searchRequestFromQuery(domainName string, q url.Values) (request.Request, error) {
	m, err := mode.Parse(q.Get("mode"))
	if err != nil {
		return request.Request{}, err
	}
	match, err := mode.ParseMatch(q.Get("match"))
	if err != nil {
		return request.Request{}, err
	}
	sort, err := ranking.ParseSort(q.Get("sort"))
	if err != nil {
		return request.Request{}, err
	}
	order, err := ranking.ParseOrder(q.Get("order"))
	if err != nil {
		return request.Request{}, err
	}

	opts := []request.Option{
		request.WithDomain(domainName),
		request.WithQuery(q.Get("q")),
		request.WithMode(m),
		request.WithMatch(match),
		request.WithSort(sort),
		request.WithOrder(order),
		request.WithTags(q["tag"]...),
		request.WithIDs(q["id"]...),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > MaxLimit {
			return request.Request{}, fmt.Errorf("limit must be between 0 and %d", MaxLimit)
		}
		opts = append(opts, request.WithLimit(n))
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return request.Request{}, errors.New("offset must be a non-negative integer")
		}
		opts = append(opts, request.WithOffset(n))
	}

	req, err := request.New(opts...)
	if err != nil {
		return request.Request{}, fmt.Errorf("build search request: %w", err)
	}
	return req, nil
}
