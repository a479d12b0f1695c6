package request

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/ekn/internal/domain"
	"github.com/kailas-cloud/ekn/internal/domain/search/mode"
	"github.com/kailas-cloud/ekn/internal/domain/search/ranking"
)

// DefaultLimit is the page size used when no limit is given.
const DefaultLimit = 10

// Request is an immutable, validated search request.
type Request struct {
	domain string
	query  string
	mode   mode.Mode
	match  mode.Match
	limit  int
	offset int
	sort   ranking.Sort
	order  ranking.Order
	tags   []string
	ids    []string
}

// Option sets one field while a Request is being built.
type Option func(*Request)

// WithDomain sets the target content domain.
func WithDomain(d string) Option { return func(r *Request) { r.domain = d } }

// WithQuery sets the raw user search text.
func WithQuery(q string) Option { return func(r *Request) { r.query = q } }

// WithMode sets the wildcard mode.
func WithMode(m mode.Mode) Option { return func(r *Request) { r.mode = m } }

// WithMatch sets the match scope.
func WithMatch(m mode.Match) Option { return func(r *Request) { r.match = m } }

// WithLimit sets the page size.
func WithLimit(n int) Option { return func(r *Request) { r.limit = n } }

// WithOffset sets the index of the first result.
func WithOffset(n int) Option { return func(r *Request) { r.offset = n } }

// WithSort sets the sort key.
func WithSort(s ranking.Sort) Option { return func(r *Request) { r.sort = s } }

// WithOrder sets the sort direction.
func WithOrder(o ranking.Order) Option { return func(r *Request) { r.order = o } }

// WithTags sets the OR-matched tag filter. The slice is copied.
func WithTags(tags ...string) Option {
	return func(r *Request) { r.tags = slices.Clone(tags) }
}

// WithIDs sets the OR-matched identifier filter. The slice is copied.
func WithIDs(ids ...string) Option {
	return func(r *Request) { r.ids = slices.Clone(ids) }
}

// New validates and builds a Request.
// Defaults: mode=incremental, match=title, limit=10, offset=0, sort=relevance, order=asc.
func New(opts ...Option) (Request, error) {
	return build(Request{limit: DefaultLimit}, opts)
}

// MustNew calls New and panics on error.
func MustNew(opts ...Option) Request {
	r, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Derive builds a new Request from r, overriding only the given fields.
func (r Request) Derive(opts ...Option) (Request, error) {
	base := r
	base.tags = slices.Clone(r.tags)
	base.ids = slices.Clone(r.ids)
	return build(base, opts)
}

func build(r Request, opts []Option) (Request, error) {
	for _, o := range opts {
		o(&r)
	}
	if !r.mode.IsValid() {
		return Request{}, fmt.Errorf("%w: query mode %d", domain.ErrInvalidRequest, r.mode)
	}
	if !r.match.IsValid() {
		return Request{}, fmt.Errorf("%w: match scope %d", domain.ErrInvalidRequest, r.match)
	}
	if !r.sort.IsValid() {
		return Request{}, fmt.Errorf("%w: sort %d", domain.ErrInvalidRequest, r.sort)
	}
	if !r.order.IsValid() {
		return Request{}, fmt.Errorf("%w: order %d", domain.ErrInvalidRequest, r.order)
	}
	if r.limit < 0 {
		return Request{}, fmt.Errorf("%w: negative limit %d", domain.ErrInvalidRequest, r.limit)
	}
	if r.offset < 0 {
		return Request{}, fmt.Errorf("%w: negative offset %d", domain.ErrInvalidRequest, r.offset)
	}
	return r, nil
}

// Domain returns the target content domain.
func (r Request) Domain() string { return r.domain }

// Query returns the raw search text.
func (r Request) Query() string { return r.query }

// Mode returns the wildcard mode.
func (r Request) Mode() mode.Mode { return r.mode }

// Match returns the match scope.
func (r Request) Match() mode.Match { return r.match }

// Limit returns the page size.
func (r Request) Limit() int { return r.limit }

// Offset returns the index of the first result.
func (r Request) Offset() int { return r.offset }

// Sort returns the sort key.
func (r Request) Sort() ranking.Sort { return r.sort }

// Order returns the sort direction.
func (r Request) Order() ranking.Order { return r.order }

// Tags returns a copy of the tag filter.
func (r Request) Tags() []string { return slices.Clone(r.tags) }

// IDs returns a copy of the identifier filter.
func (r Request) IDs() []string { return slices.Clone(r.ids) }
