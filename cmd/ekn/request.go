package main

import (
	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/ekn/internal/domain/search/mode"
	"github.com/kailas-cloud/ekn/internal/domain/search/ranking"
	"github.com/kailas-cloud/ekn/internal/domain/search/request"
)

// requestFlags describe a search request on the command line.
func requestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "domain", Usage: "Content domain"},
		&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Query text"},
		&cli.StringFlag{Name: "mode", Usage: "incremental or delimited", Value: "incremental"},
		&cli.StringFlag{Name: "match", Usage: "title or title_synopsis", Value: "title"},
		&cli.StringFlag{Name: "sort", Usage: "relevance, rank or article_number", Value: "relevance"},
		&cli.StringFlag{Name: "order", Usage: "asc or desc", Value: "asc"},
		&cli.StringSliceFlag{Name: "tag", Usage: "Match any of these tags"},
		&cli.StringSliceFlag{Name: "id", Usage: "Match any of these content ids"},
		&cli.IntFlag{Name: "limit", Usage: "Maximum number of results", Value: request.DefaultLimit},
		&cli.IntFlag{Name: "offset", Usage: "Results to skip"},
	}
}

func requestFromFlags(c *cli.Command) (request.Request, error) {
	m, err := mode.Parse(c.String("mode"))
	if err != nil {
		return request.Request{}, err
	}
	match, err := mode.ParseMatch(c.String("match"))
	if err != nil {
		return request.Request{}, err
	}
	sort, err := ranking.ParseSort(c.String("sort"))
	if err != nil {
		return request.Request{}, err
	}
	order, err := ranking.ParseOrder(c.String("order"))
	if err != nil {
		return request.Request{}, err
	}
	return request.New(
		request.WithDomain(c.String("domain")),
		request.WithQuery(c.String("query")),
		request.WithMode(m),
		request.WithMatch(match),
		request.WithSort(sort),
		request.WithOrder(order),
		request.WithTags(c.StringSlice("tag")...),
		request.WithIDs(c.StringSlice("id")...),
		request.WithLimit(c.Int("limit")),
		request.WithOffset(c.Int("offset")),
	)
}
