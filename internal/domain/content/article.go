package content

import (
	"errors"
	"slices"
	"time"

	"github.com/kailas-cloud/ekn/internal/domain"
)

var errBadTOC = errors.New("malformed table of contents entry")

// TOCEntry is one node of an article's table of contents.
type TOCEntry struct {
	Index      int
	IndexLabel string
	Label      string
	Content    string
	Parts      []TOCEntry
}

// Article is a long-form text model.
type Article struct {
	*Content
	wordCount     int
	toc           []TOCEntry
	authors       []string
	published     time.Time
	issueNumber   int
	outgoingLinks []string
}

func newArticle(p Properties, c *Content) (Model, error) {
	a := &Article{Content: c}
	var err error
	if a.wordCount, err = p.Count("wordCount"); err != nil {
		return nil, err
	}
	if a.authors, err = p.Strings("authors"); err != nil {
		return nil, err
	}
	if a.published, err = p.Date("published"); err != nil {
		return nil, err
	}
	if a.issueNumber, err = p.Count("issueNumber"); err != nil {
		return nil, err
	}
	if a.outgoingLinks, err = p.Strings("outgoingLinks"); err != nil {
		return nil, err
	}
	if a.toc, err = parseTOC(p["tableOfContents"]); err != nil {
		return nil, domain.InvalidProperty("tableOfContents", err)
	}
	applyCompat(c)
	return a, nil
}

func (a *Article) WordCount() int       { return a.wordCount }
func (a *Article) IssueNumber() int     { return a.issueNumber }
func (a *Article) Published() time.Time { return a.published }

// Authors returns a copy of the author list.
func (a *Article) Authors() []string { return slices.Clone(a.authors) }

// OutgoingLinks returns a copy of the URIs the article links to.
func (a *Article) OutgoingLinks() []string { return slices.Clone(a.outgoingLinks) }

// TableOfContents returns a deep copy of the table of contents.
func (a *Article) TableOfContents() []TOCEntry { return cloneTOC(a.toc) }

func parseTOC(v any) ([]TOCEntry, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, errBadTOC
	}
	out := make([]TOCEntry, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, errBadTOC
		}
		p := Properties(m)
		var (
			e   TOCEntry
			err error
		)
		if e.Index, err = p.Count("hasIndex"); err != nil {
			return nil, err
		}
		if e.IndexLabel, err = p.String("hasIndexLabel"); err != nil {
			return nil, err
		}
		if e.Label, err = p.String("hasLabel"); err != nil {
			return nil, err
		}
		if e.Content, err = p.String("hasContent"); err != nil {
			return nil, err
		}
		if e.Parts, err = parseTOC(m["hasPart"]); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func cloneTOC(entries []TOCEntry) []TOCEntry {
	if entries == nil {
		return nil
	}
	out := make([]TOCEntry, len(entries))
	for i, e := range entries {
		out[i] = e
		out[i].Parts = cloneTOC(e.Parts)
	}
	return out
}
