package query

import (
	"regexp"
	"strings"
)

// spaceClass is every character treated as whitespace. RE2's \s is ASCII-only
// and lacks \v, so vertical tab, Unicode separators and the BOM are added.
const spaceClass = `\s\v\p{Z}\x{FEFF}`

var (
	whitespaceRe = regexp.MustCompile(`[` + spaceClass + `]+`)
	syntaxRe     = regexp.MustCompile(`[()+\-'"]`)
	operatorRe   = regexp.MustCompile(`(?i)\b(?:AND|OR|NOT|XOR|NEAR|ADJ)\b`)
)

// Sanitize normalizes raw user input into literal query words. Grammar
// characters are deleted, whitespace runs collapse to one space, and grammar
// operators are lowercased so the parser reads them as plain words.
func Sanitize(raw string) string {
	s := syntaxRe.ReplaceAllString(raw, "")
	s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	return operatorRe.ReplaceAllStringFunc(s, strings.ToLower)
}
