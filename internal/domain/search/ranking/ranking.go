// Package ranking maps sort and match options to the value slots and
// relevance cutoffs understood by the search backend.
package ranking

import (
	"fmt"

	"github.com/kailas-cloud/ekn/internal/domain/search/mode"
)

// Value slots attached to every indexed document.
const (
	SlotSourceURL     = 0
	SlotRank          = 1
	SlotArticleNumber = 2
)

// CollapseValue is the slot used to deduplicate hits sharing a source URL.
const CollapseValue = SlotSourceURL

// Relevance cutoffs (percent) per match scope.
const (
	CutoffTitleOnly     = 10
	CutoffTitleSynopsis = 20
)

// Sort selects the ordering key of results. Numeric values are part of the wire contract.
type Sort int

// Sort constants.
const (
	Relevance     Sort = 0
	Rank          Sort = 1
	ArticleNumber Sort = 2
)

// IsValid checks if the sort is one of the supported values.
func (s Sort) IsValid() bool {
	return s == Relevance || s == Rank || s == ArticleNumber
}

func (s Sort) String() string {
	switch s {
	case Relevance:
		return "relevance"
	case Rank:
		return "rank"
	case ArticleNumber:
		return "article_number"
	default:
		return fmt.Sprintf("Sort(%d)", int(s))
	}
}

// ParseSort converts a string form to a Sort. Empty means Relevance.
func ParseSort(s string) (Sort, error) {
	switch s {
	case "", "relevance":
		return Relevance, nil
	case "rank":
		return Rank, nil
	case "article_number":
		return ArticleNumber, nil
	default:
		return 0, fmt.Errorf("invalid sort: %q", s)
	}
}

// Order is the direction of a value-slot sort.
type Order int

// Order constants.
const (
	Ascending  Order = 0
	Descending Order = 1
)

// IsValid checks if the order is one of the supported values.
func (o Order) IsValid() bool {
	return o == Ascending || o == Descending
}

func (o Order) String() string {
	switch o {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// ParseOrder converts a string form to an Order. Empty means Ascending.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return 0, fmt.Errorf("invalid order: %q", s)
	}
}

// Cutoff returns the relevance cutoff for a match scope.
func Cutoff(m mode.Match) int {
	if m == mode.TitleSynopsis {
		return CutoffTitleSynopsis
	}
	return CutoffTitleOnly
}

// SortValue returns the value slot to sort by. ok is false for Relevance,
// in which case the backend's own relevance ranking applies.
func SortValue(s Sort) (slot int, ok bool) {
	switch s {
	case Rank:
		return SlotRank, true
	case ArticleNumber:
		return SlotArticleNumber, true
	default:
		return 0, false
	}
}
