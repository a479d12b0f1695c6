package db

import "github.com/kailas-cloud/ekn/internal/domain/search/query"

// DomainParams are the per-domain parameters merged into every backend call.
type DomainParams struct {
	// Path is the on-disk location of the domain's index.
	Path string
}

// Query is the input for a compiled full-text query.
type Query struct {
	Params   DomainParams
	Compiled query.Compiled
}

// SearchResult is the output of a query. Hits keep the backend's ranking order;
// each is either a JSON document or a bare identifier depending on the domain.
type SearchResult struct {
	NumResults int
	UpperBound int
	Offset     int
	Hits       []string
}

// FixQuery asks the backend to correct a raw query string.
type FixQuery struct {
	Params DomainParams
	Text   string
}

// FixResult holds the backend's corrections. Empty fields mean no correction.
type FixResult struct {
	StopWordCorrected string
	SpellCorrected    string
}
