package query

import "slices"

// Denylist maps a content domain to tags whose content is excluded from every
// query against that domain. It is read-only once built.
type Denylist struct {
	tags map[string][]string
}

// NewDenylist copies m into a Denylist.
func NewDenylist(m map[string][]string) Denylist {
	tags := make(map[string][]string, len(m))
	for d, t := range m {
		if len(t) == 0 {
			continue
		}
		tags[d] = slices.Clone(t)
	}
	return Denylist{tags: tags}
}

// Tags returns the denylisted tags for a domain.
func (d Denylist) Tags(domainName string) []string {
	return slices.Clone(d.tags[domainName])
}

// Len returns the number of domains with denylisted tags.
func (d Denylist) Len() int { return len(d.tags) }
