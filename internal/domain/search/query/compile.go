// Package query compiles search requests into the boolean query-parser
// grammar of the Xapian backend.
package query

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kailas-cloud/ekn/internal/domain"
	"github.com/kailas-cloud/ekn/internal/domain/ekn"
	"github.com/kailas-cloud/ekn/internal/domain/search/mode"
	"github.com/kailas-cloud/ekn/internal/domain/search/ranking"
	"github.com/kailas-cloud/ekn/internal/domain/search/request"
)

// Grammar tokens of the downstream query parser.
const (
	opAnd = " AND "
	opOr  = " OR "
	opNot = "NOT "

	prefixExactTitle = "exact_title:"
	prefixTitle      = "title:"
	prefixTag        = "tag:"
	prefixID         = "id:"

	multiWordDelimiter = "_"
	wildcard           = "*"
)

var (
	delimiterRe = regexp.MustCompile(`[` + spaceClass + `\-]+`)
	hashRe      = regexp.MustCompile(`^[0-9A-Fa-f]{16}$`)
)

// Compiled is a request rendered for the search backend.
type Compiled struct {
	// Query is the query-parser string. Empty matches every document.
	Query         string
	Cutoff        int
	SortValue     int
	HasSort       bool
	Order         ranking.Order
	CollapseValue int
	Offset        int
	Limit         int
}

// Compiler turns requests into Compiled queries. It holds only read-only
// configuration and is safe for concurrent use.
type Compiler struct {
	denylist Denylist
}

// NewCompiler creates a compiler that excludes the given denylisted tags.
func NewCompiler(denylist Denylist) *Compiler {
	return &Compiler{denylist: denylist}
}

// Compile renders req. It fails only on malformed identifiers in req.IDs()
// or on identifiers given without a request domain, which indicate a caller bug.
func (c *Compiler) Compile(req request.Request) (Compiled, error) {
	idClause, err := idsClause(req.Domain(), req.IDs())
	if err != nil {
		return Compiled{}, err
	}

	clauses := []string{
		fullTextClause(req.Query(), req.Mode(), req.Match()),
		tagsClause(req.Tags()),
		denylistClause(c.denylist.Tags(req.Domain())),
		idClause,
	}

	out := Compiled{
		Query:         parenthesizeAndJoin(clauses, opAnd),
		Cutoff:        ranking.Cutoff(req.Match()),
		Order:         req.Order(),
		CollapseValue: ranking.CollapseValue,
		Offset:        req.Offset(),
		Limit:         req.Limit(),
	}
	out.SortValue, out.HasSort = ranking.SortValue(req.Sort())
	return out, nil
}

func fullTextClause(raw string, m mode.Mode, match mode.Match) string {
	sanitized := Sanitize(raw)
	if sanitized == "" {
		return ""
	}
	// One-character wildcard scans are too expensive; match the exact title only.
	if utf8.RuneCountInString(sanitized) == 1 {
		return prefixExactTitle + capitalize(sanitized)
	}

	terms := splitTerms(sanitized)

	capitalized := make([]string, len(terms))
	for i, t := range terms {
		capitalized[i] = capitalize(t)
	}
	exactTitle := prefixExactTitle + strings.Join(capitalized, multiWordDelimiter)

	titleTerms := make([]string, len(terms))
	bodyTerms := make([]string, len(terms))
	for i, t := range terms {
		titleTerms[i] = prefixTitle + t
		bodyTerms[i] = t
	}

	if m == mode.Incremental {
		exactTitle = withWildcard(exactTitle)
		for i := range terms {
			titleTerms[i] = withWildcard(titleTerms[i])
			bodyTerms[i] = withWildcard(bodyTerms[i])
		}
	}

	candidates := []string{exactTitle, strings.Join(titleTerms, opAnd)}
	if match == mode.TitleSynopsis {
		candidates = append(candidates, strings.Join(bodyTerms, opAnd))
	}
	return parenthesizeAndJoin(candidates, opOr)
}

func tagsClause(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, prefixTag+quote(t))
	}
	return strings.Join(parts, opOr)
}

func denylistClause(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, opNot+prefixTag+quote(t))
	}
	return strings.Join(parts, opAnd)
}

func idsClause(domainName string, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	if domainName == "" {
		return "", fmt.Errorf("compile id clause: %w: id filter requires a domain", domain.ErrInvalidRequest)
	}
	parts := make([]string, 0, len(ids))
	for _, raw := range ids {
		idDomain, hash, err := ekn.Split(raw)
		if err != nil {
			return "", fmt.Errorf("compile id clause: %w", err)
		}
		if idDomain != domainName {
			return "", fmt.Errorf("compile id clause: %w: %q is not in domain %q",
				domain.ErrDomainMismatch, raw, domainName)
		}
		if !hashRe.MatchString(hash) {
			return "", fmt.Errorf("compile id clause: %w %q", domain.ErrMalformedHash, hash)
		}
		parts = append(parts, prefixID+hash)
	}
	return strings.Join(parts, opOr), nil
}

// parenthesizeAndJoin drops empty clauses and joins the rest, each in parentheses.
func parenthesizeAndJoin(clauses []string, op string) string {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c == "" {
			continue
		}
		parts = append(parts, "("+c+")")
	}
	return strings.Join(parts, op)
}

func splitTerms(s string) []string {
	raw := delimiterRe.Split(s, -1)
	terms := raw[:0]
	for _, t := range raw {
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

func withWildcard(term string) string {
	return "(" + term + opOr + term + wildcard + ")"
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func quote(s string) string {
	return `"` + s + `"`
}
