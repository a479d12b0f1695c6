package ekn

import (
	"github.com/kailas-cloud/ekn/internal/domain/content"
)

// Content models returned by the client. Type-switch on Model to reach the
// fields of a specific kind.
type (
	Model    = content.Model
	Content  = content.Content
	Article  = content.Article
	Image    = content.Image
	Video    = content.Video
	Set      = content.Set
	TOCEntry = content.TOCEntry
)

// Results is one page of query results.
type Results struct {
	Models []Model
	// UpperBound is the backend's upper bound on the total match count.
	UpperBound int
	// Next fetches the following page; nil on the last page.
	Next *QueryBuilder
}
