package content

import (
	"net/url"
	"strings"
)

// Older article databases omit attribution fields; these rules fill them in
// from the article's original URI. Explicit values always win.

var sourceHosts = []struct {
	host   string
	source string
}{
	{"wikipedia.org", "wikipedia"},
	{"wikihow.com", "wikihow"},
	{"wikisource.org", "wikisource"},
	{"wikibooks.org", "wikibooks"},
}

var sourceNames = map[string]string{
	"wikipedia":  "Wikipedia",
	"wikihow":    "wikiHow",
	"wikisource": "Wikisource",
	"wikibooks":  "Wikibooks",
}

var sourceLicenses = map[string]string{
	"wikipedia":  "CC-BY-SA 3.0",
	"wikisource": "CC-BY-SA 3.0",
	"wikibooks":  "CC-BY-SA 3.0",
	"wikihow":    "Owner permission",
}

func applyCompat(c *Content) {
	if c.source == "" {
		c.source = inferSource(c.originalURI)
	}
	if c.sourceName == "" {
		c.sourceName = sourceNames[c.source]
	}
	if c.license == "" {
		c.license = sourceLicenses[c.source]
	}
}

func inferSource(uri string) string {
	if uri == "" {
		return ""
	}
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for _, s := range sourceHosts {
		if host == s.host || strings.HasSuffix(host, "."+s.host) {
			return s.source
		}
	}
	return ""
}
