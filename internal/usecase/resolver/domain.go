// Package resolver turns search requests and identifiers into content models
// for a single content domain.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/ekn/internal/db"
	"github.com/kailas-cloud/ekn/internal/domain"
	"github.com/kailas-cloud/ekn/internal/domain/content"
	"github.com/kailas-cloud/ekn/internal/domain/ekn"
	"github.com/kailas-cloud/ekn/internal/domain/search/request"
	"github.com/kailas-cloud/ekn/internal/logger"
	"github.com/kailas-cloud/ekn/internal/metrics"
)

// MaxRedirects bounds redirect chains.
const MaxRedirects = 16

const loadKey = "load"

// State is the load state of a domain.
type State int32

// Load states. Loaded is final.
const (
	Unloaded State = iota
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Results is one page of query results.
type Results struct {
	Models     []content.Model
	UpperBound int
	// More requests the next page; nil on the last page.
	More *request.Request
}

// Config describes the domain served by a Domain.
type Config struct {
	Name string
	// Version labels load metrics.
	Version string
}

// Domain resolves queries and identifiers against one content domain.
// It is safe for concurrent use.
type Domain struct {
	cfg      Config
	storage  Storage
	search   Searcher
	compiler Compiler
	pool     Submitter
	state    atomic.Int32
	group    singleflight.Group
}

// New creates a Domain. Hits of a query are resolved concurrently on pool.
func New(cfg Config, storage Storage, search Searcher, compiler Compiler, pool Submitter) *Domain {
	return &Domain{cfg: cfg, storage: storage, search: search, compiler: compiler, pool: pool}
}

// Name returns the domain name.
func (d *Domain) Name() string { return d.cfg.Name }

// State returns the current load state.
func (d *Domain) State() State { return State(d.state.Load()) }

// EnsureLoaded loads the domain once. Concurrent callers share a single
// load; a failed load is retried by the next caller.
func (d *Domain) EnsureLoaded(ctx context.Context) error {
	for {
		if d.State() == Loaded {
			return nil
		}
		ch := d.group.DoChan(loadKey, func() (any, error) {
			return nil, d.load(ctx)
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				return nil
			}
			// The load belonged to a caller that went away; try again with ours.
			if res.Shared && ctx.Err() == nil && isCancellation(res.Err) {
				continue
			}
			return res.Err
		}
	}
}

func (d *Domain) load(ctx context.Context) error {
	if d.State() == Loaded {
		return nil
	}
	d.state.Store(int32(Loading))
	ctx = logger.With(ctx, zap.String("domain", d.cfg.Name), zap.String("version", d.cfg.Version))
	log := logger.FromContext(ctx)

	start := time.Now()
	err := d.storage.Load(ctx)
	metrics.DomainLoadsTotal.WithLabelValues(d.cfg.Name, d.cfg.Version, metrics.Status(err)).Inc()
	if err != nil {
		d.state.Store(int32(Unloaded))
		log.Error("Domain load failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return fmt.Errorf("load domain %s: %w", d.cfg.Name, err)
	}
	d.state.Store(int32(Loaded))
	log.Info("Domain loaded", zap.Duration("duration", time.Since(start)))
	return nil
}

// GetObjectsByQuery compiles req, runs it and resolves every hit in backend order.
func (d *Domain) GetObjectsByQuery(ctx context.Context, req request.Request) (res *Results, err error) {
	start := time.Now()
	defer func() {
		metrics.ResolverQueriesTotal.WithLabelValues(d.cfg.Name, metrics.Status(err)).Inc()
		metrics.ResolverQueryDuration.WithLabelValues(d.cfg.Name).Observe(time.Since(start).Seconds())
	}()

	compiled, err := d.compiler.Compile(req)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	if err := d.EnsureLoaded(ctx); err != nil {
		return nil, err
	}

	sr, err := d.search.Query(ctx, &db.Query{Params: d.storage.Params(), Compiled: compiled})
	if err != nil {
		return nil, fmt.Errorf("query domain %s: %w", d.cfg.Name, err)
	}

	models, err := d.resolveHits(ctx, sr.Hits)
	if err != nil {
		return nil, err
	}

	res = &Results{Models: models, UpperBound: sr.UpperBound}
	if next := req.Offset() + len(sr.Hits); len(sr.Hits) > 0 && next < sr.UpperBound {
		more, err := req.Derive(request.WithOffset(next))
		if err != nil {
			return nil, err
		}
		res.More = &more
	}
	return res, nil
}

// resolveHits resolves hits concurrently and keeps their order. The first
// failure cancels the remaining work.
func (d *Domain) resolveHits(ctx context.Context, hits []string) ([]content.Model, error) {
	models := make([]content.Model, len(hits))
	if len(hits) == 0 {
		return models, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i, hit := range hits {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fail(fmt.Errorf("resolve hit %d: panic: %v", i, r))
				}
			}()
			if ctx.Err() != nil {
				return
			}
			m, err := d.resolveLoaded(ctx, hit)
			if err != nil {
				fail(fmt.Errorf("resolve hit %d: %w", i, err))
				return
			}
			models[i] = m
		}
		if err := d.pool.Submit(task); err != nil {
			wg.Done()
			fail(fmt.Errorf("submit hit %d: %w", i, err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// GetObjectByID fetches one object and follows its redirects.
func (d *Domain) GetObjectByID(ctx context.Context, id ekn.ID) (content.Model, error) {
	if err := d.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	m, err := d.storage.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.followRedirects(ctx, m)
}

// ResolveHit turns one raw backend hit into a model and follows its redirects.
func (d *Domain) ResolveHit(ctx context.Context, hit string) (content.Model, error) {
	if err := d.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	return d.resolveLoaded(ctx, hit)
}

func (d *Domain) resolveLoaded(ctx context.Context, hit string) (content.Model, error) {
	m, err := d.storage.ResolveHit(ctx, hit)
	if err != nil {
		return nil, err
	}
	m, err = d.followRedirects(ctx, m)
	if err != nil {
		return nil, err
	}
	metrics.ResolverHitsTotal.WithLabelValues(d.cfg.Name, string(m.Type())).Inc()
	return m, nil
}

func (d *Domain) followRedirects(ctx context.Context, m content.Model) (content.Model, error) {
	start := m.ID()
	for hops := 0; m.RedirectsTo() != ""; hops++ {
		if hops == MaxRedirects {
			return nil, fmt.Errorf("%w: %s after %d hops", domain.ErrRedirectLoop, start, hops)
		}
		target, err := ekn.Parse(m.RedirectsTo())
		if err != nil {
			return nil, fmt.Errorf("resolve redirect %s -> %s: %w", m.ID(), m.RedirectsTo(), err)
		}
		next, err := d.storage.Fetch(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("resolve redirect %s -> %s: %w", m.ID(), target, err)
		}
		logger.FromContext(ctx).Debug("Followed redirect",
			zap.String("domain", d.cfg.Name),
			zap.Stringer("from", m.ID()),
			zap.Stringer("to", target),
		)
		metrics.RedirectHopsTotal.WithLabelValues(d.cfg.Name).Inc()
		m = next
	}
	return m, nil
}

// GetFixedQuery returns req with its query text replaced by the backend's
// correction. A spelling correction wins over a stop-word correction.
func (d *Domain) GetFixedQuery(ctx context.Context, req request.Request) (request.Request, error) {
	if err := d.EnsureLoaded(ctx); err != nil {
		return request.Request{}, err
	}
	fr, err := d.search.Fix(ctx, &db.FixQuery{Params: d.storage.Params(), Text: req.Query()})
	if err != nil {
		return request.Request{}, fmt.Errorf("fix query in %s: %w", d.cfg.Name, err)
	}
	fixed := req.Query()
	switch {
	case fr.SpellCorrected != "":
		fixed = fr.SpellCorrected
	case fr.StopWordCorrected != "":
		fixed = fr.StopWordCorrected
	}
	return req.Derive(request.WithQuery(fixed))
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
