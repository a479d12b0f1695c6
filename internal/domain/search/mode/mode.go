package mode

import "fmt"

// Mode governs wildcard injection into compiled queries.
// Numeric values are part of the wire contract.
type Mode int

// Query mode constants.
const (
	// Incremental treats the query as being typed; terms also match as prefixes.
	Incremental Mode = 0
	// Delimited treats the query as complete words.
	Delimited Mode = 1
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Incremental || m == Delimited
}

func (m Mode) String() string {
	switch m {
	case Incremental:
		return "incremental"
	case Delimited:
		return "delimited"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Parse converts a string form to a Mode. Empty means Incremental.
func Parse(s string) (Mode, error) {
	switch s {
	case "", "incremental":
		return Incremental, nil
	case "delimited":
		return Delimited, nil
	default:
		return 0, fmt.Errorf("invalid query mode: %q", s)
	}
}

// Match governs which fields participate in matching and the relevance cutoff.
type Match int

// Match scope constants.
const (
	TitleOnly     Match = 0
	TitleSynopsis Match = 1
)

// IsValid checks if the match scope is one of the supported values.
func (m Match) IsValid() bool {
	return m == TitleOnly || m == TitleSynopsis
}

func (m Match) String() string {
	switch m {
	case TitleOnly:
		return "title"
	case TitleSynopsis:
		return "title_synopsis"
	default:
		return fmt.Sprintf("Match(%d)", int(m))
	}
}

// ParseMatch converts a string form to a Match. Empty means TitleOnly.
func ParseMatch(s string) (Match, error) {
	switch s {
	case "", "title":
		return TitleOnly, nil
	case "title_synopsis":
		return TitleSynopsis, nil
	default:
		return 0, fmt.Errorf("invalid match scope: %q", s)
	}
}
