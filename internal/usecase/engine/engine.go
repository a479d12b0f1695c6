// Package engine routes requests to per-domain resolvers, creating each
// domain on first use and keeping it for the life of the process.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/ekn/internal/domain"
	"github.com/kailas-cloud/ekn/internal/domain/content"
	"github.com/kailas-cloud/ekn/internal/domain/ekn"
	"github.com/kailas-cloud/ekn/internal/domain/search/request"
	"github.com/kailas-cloud/ekn/internal/usecase/resolver"
)

// Config holds engine settings.
type Config struct {
	// DefaultDomain serves requests that name no domain.
	DefaultDomain string
}

// Engine caches one resolver per domain name.
type Engine struct {
	cfg     Config
	builder Builder

	mu      sync.RWMutex
	domains map[string]*resolver.Domain
	group   singleflight.Group
}

// New creates an Engine.
func New(cfg Config, builder Builder) *Engine {
	return &Engine{
		cfg:     cfg,
		builder: builder,
		domains: make(map[string]*resolver.Domain),
	}
}

// DefaultDomain returns the domain used when a request names none.
func (e *Engine) DefaultDomain() string { return e.cfg.DefaultDomain }

// Domain returns the resolver for name, building it on first use.
// An empty name selects the default domain.
func (e *Engine) Domain(ctx context.Context, name string) (*resolver.Domain, error) {
	if name == "" {
		name = e.cfg.DefaultDomain
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	e.mu.RLock()
	d, ok := e.domains[name]
	e.mu.RUnlock()
	if ok {
		return d, nil
	}

	for {
		ch := e.group.DoChan(name, func() (any, error) {
			e.mu.RLock()
			d, ok := e.domains[name]
			e.mu.RUnlock()
			if ok {
				return d, nil
			}
			d, err := e.builder.Build(ctx, name)
			if err != nil {
				return nil, err
			}
			e.mu.Lock()
			e.domains[name] = d
			e.mu.Unlock()
			return d, nil
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(*resolver.Domain), nil
			}
			// The build belonged to a caller that went away; try again with ours.
			if res.Shared && ctx.Err() == nil && isCancellation(res.Err) {
				continue
			}
			return nil, res.Err
		}
	}
}

// Domains lists the names of domains created so far.
func (e *Engine) Domains() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.domains))
	for name := range e.domains {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// GetObjectsByQuery runs req against the domain it names.
func (e *Engine) GetObjectsByQuery(ctx context.Context, req request.Request) (*resolver.Results, error) {
	req, err := e.withDefaultDomain(req)
	if err != nil {
		return nil, err
	}
	d, err := e.Domain(ctx, req.Domain())
	if err != nil {
		return nil, err
	}
	return d.GetObjectsByQuery(ctx, req)
}

// GetObjectByID fetches an object from the domain of its identifier.
func (e *Engine) GetObjectByID(ctx context.Context, id ekn.ID) (content.Model, error) {
	d, err := e.Domain(ctx, id.Domain())
	if err != nil {
		return nil, err
	}
	return d.GetObjectByID(ctx, id)
}

// GetFixedQuery returns req with a corrected query text. The result names
// the domain that served it.
func (e *Engine) GetFixedQuery(ctx context.Context, req request.Request) (request.Request, error) {
	req, err := e.withDefaultDomain(req)
	if err != nil {
		return request.Request{}, err
	}
	d, err := e.Domain(ctx, req.Domain())
	if err != nil {
		return request.Request{}, err
	}
	return d.GetFixedQuery(ctx, req)
}

func (e *Engine) withDefaultDomain(req request.Request) (request.Request, error) {
	if req.Domain() != "" {
		return req, nil
	}
	return req.Derive(request.WithDomain(e.cfg.DefaultDomain))
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Close releases builder resources.
func (e *Engine) Close() error {
	if c, ok := e.builder.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: no domain given and no default domain", domain.ErrInvalidRequest)
	case name == "." || name == ".." || strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: domain name %q", domain.ErrInvalidRequest, name)
	}
	return nil
}
