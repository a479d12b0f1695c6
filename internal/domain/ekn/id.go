// Package ekn parses content identifiers of the form ekn://<domain>/<hash>.
package ekn

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ekn/internal/domain"
)

// Scheme is the URI scheme of every content identifier.
const Scheme = "ekn"

// HashLen is the number of hex digits in an identifier hash.
const HashLen = 16

// ID is a validated content identifier.
type ID struct {
	domain string
	hash   string
}

// Split checks the scheme and path structure of a raw identifier and returns
// its domain and hash components without validating the hash.
func Split(raw string) (domainName, hash string, err error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || scheme != Scheme {
		return "", "", fmt.Errorf("%w %q in %q", domain.ErrUnexpectedScheme, scheme, raw)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %q", domain.ErrUnexpectedStructure, raw)
	}
	if parts[0] == "" {
		return "", "", fmt.Errorf("%w: empty domain in %q", domain.ErrUnexpectedStructure, raw)
	}
	return parts[0], parts[1], nil
}

// Parse validates a raw identifier. The hash must be exactly 16 hex digits
// in either case.
func Parse(raw string) (ID, error) {
	d, h, err := Split(raw)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	if !isHex(h) {
		return ID{}, fmt.Errorf("%w: %w %q", domain.ErrInvalidID, domain.ErrMalformedHash, h)
	}
	return ID{domain: d, hash: h}, nil
}

// MustParse calls Parse and panics on error.
func MustParse(raw string) ID {
	id, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// New builds an identifier from its components.
func New(domainName, hash string) (ID, error) {
	return Parse(Scheme + "://" + domainName + "/" + hash)
}

// Domain returns the content domain the identifier belongs to.
func (id ID) Domain() string { return id.domain }

// Hash returns the 16 hex digit hash exactly as written.
func (id ID) Hash() string { return id.hash }

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool { return id.domain == "" && id.hash == "" }

func (id ID) String() string {
	if id.IsZero() {
		return ""
	}
	return Scheme + "://" + id.domain + "/" + id.hash
}

func isHex(s string) bool {
	if len(s) != HashLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
