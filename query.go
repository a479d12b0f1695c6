package ekn

import (
	"context"
	"time"

	"github.com/kailas-cloud/ekn/internal/domain/search/mode"
	"github.com/kailas-cloud/ekn/internal/domain/search/ranking"
	"github.com/kailas-cloud/ekn/internal/domain/search/request"
)

// Sort selects the ordering of query results.
type Sort = ranking.Sort

// Sort values.
const (
	SortRelevance     = ranking.Relevance
	SortRank          = ranking.Rank
	SortArticleNumber = ranking.ArticleNumber
)

// Order is the direction of a non-relevance sort.
type Order = ranking.Order

// Order values.
const (
	Ascending  = ranking.Ascending
	Descending = ranking.Descending
)

// QueryBuilder is a fluent builder for search queries.
// Builders are cheap values; a builder must not be shared between goroutines
// while it is still being modified.
type QueryBuilder struct {
	client *Client
	opts   []request.Option
}

func (b *QueryBuilder) with(o request.Option) *QueryBuilder {
	b.opts = append(b.opts, o)
	return b
}

// Domain sets the content domain. Empty means the client's default domain.
func (b *QueryBuilder) Domain(name string) *QueryBuilder {
	return b.with(request.WithDomain(name))
}

// Text sets the free-text query.
func (b *QueryBuilder) Text(q string) *QueryBuilder {
	return b.with(request.WithQuery(q))
}

// Incremental treats the last term as a prefix (search-as-you-type). Default.
func (b *QueryBuilder) Incremental() *QueryBuilder {
	return b.with(request.WithMode(mode.Incremental))
}

// Delimited treats every term as complete.
func (b *QueryBuilder) Delimited() *QueryBuilder {
	return b.with(request.WithMode(mode.Delimited))
}

// TitleSynopsis matches text against synopses as well as titles.
func (b *QueryBuilder) TitleSynopsis() *QueryBuilder {
	return b.with(request.WithMatch(mode.TitleSynopsis))
}

// Tags restricts results to content carrying any of tags.
func (b *QueryBuilder) Tags(tags ...string) *QueryBuilder {
	return b.with(request.WithTags(tags...))
}

// IDs restricts results to the given content identifiers.
func (b *QueryBuilder) IDs(ids ...string) *QueryBuilder {
	return b.with(request.WithIDs(ids...))
}

// Sort sets the result ordering.
func (b *QueryBuilder) Sort(s Sort) *QueryBuilder {
	return b.with(request.WithSort(s))
}

// Order sets the direction of a non-relevance sort.
func (b *QueryBuilder) Order(o Order) *QueryBuilder {
	return b.with(request.WithOrder(o))
}

// Limit sets the page size.
func (b *QueryBuilder) Limit(n int) *QueryBuilder {
	return b.with(request.WithLimit(n))
}

// Offset skips the first n results.
func (b *QueryBuilder) Offset(n int) *QueryBuilder {
	return b.with(request.WithOffset(n))
}

// Do runs the query and resolves one page of models, in backend order.
func (b *QueryBuilder) Do(ctx context.Context) (res *Results, err error) {
	defer func(start time.Time) { b.client.obs.observe("query", start, err) }(time.Now())

	req, err := request.New(b.opts...)
	if err != nil {
		return nil, err
	}
	out, err := b.client.engine.GetObjectsByQuery(b.client.context(ctx), req)
	if err != nil {
		return nil, err
	}

	res = &Results{Models: out.Models, UpperBound: out.UpperBound}
	if out.More != nil {
		res.Next = b.next(*out.More)
	}
	return res, nil
}

// Fix returns the backend's corrected form of the query text.
// The text is returned unchanged when no correction applies.
func (b *QueryBuilder) Fix(ctx context.Context) (fixed string, err error) {
	defer func(start time.Time) { b.client.obs.observe("fix", start, err) }(time.Now())

	req, err := request.New(b.opts...)
	if err != nil {
		return "", err
	}
	out, err := b.client.engine.GetFixedQuery(b.client.context(ctx), req)
	if err != nil {
		return "", err
	}
	return out.Query(), nil
}

// next builds a builder that repeats req exactly.
func (b *QueryBuilder) next(req request.Request) *QueryBuilder {
	return &QueryBuilder{
		client: b.client,
		opts: []request.Option{
			request.WithDomain(req.Domain()),
			request.WithQuery(req.Query()),
			request.WithMode(req.Mode()),
			request.WithMatch(req.Match()),
			request.WithTags(req.Tags()...),
			request.WithIDs(req.IDs()...),
			request.WithSort(req.Sort()),
			request.WithOrder(req.Order()),
			request.WithLimit(req.Limit()),
			request.WithOffset(req.Offset()),
		},
	}
}
