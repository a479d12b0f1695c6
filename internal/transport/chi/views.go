package chi

import (
	"net/url"
	"strconv"
	"time"

	"github.com/kailas-cloud/ekn/internal/domain/content"
	"github.com/kailas-cloud/ekn/internal/domain/search/request"
	"github.com/kailas-cloud/ekn/internal/usecase/resolver"
)

// ModelResponse is the JSON form of a content model.
type ModelResponse struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	Title         string     `json:"title,omitempty"`
	OriginalTitle string     `json:"original_title,omitempty"`
	Synopsis      string     `json:"synopsis,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	License       string     `json:"license,omitempty"`
	ContentType   string     `json:"content_type,omitempty"`
	Source        string     `json:"source,omitempty"`
	SourceName    string     `json:"source_name,omitempty"`
	SourceURI     string     `json:"source_uri,omitempty"`
	OriginalURI   string     `json:"original_uri,omitempty"`
	Language      string     `json:"language,omitempty"`
	LastModified  *time.Time `json:"last_modified,omitempty"`
	Thumbnail     string     `json:"thumbnail,omitempty"`
	Resources     []string   `json:"resources,omitempty"`
	HasContent    bool       `json:"has_content"`

	Article *ArticleFields `json:"article,omitempty"`
	Media   *MediaFields   `json:"media,omitempty"`
	Video   *VideoFields   `json:"video,omitempty"`
	Set     *SetFields     `json:"set,omitempty"`
}

// ArticleFields holds article-only fields.
type ArticleFields struct {
	WordCount       int        `json:"word_count,omitempty"`
	Authors         []string   `json:"authors,omitempty"`
	Published       *time.Time `json:"published,omitempty"`
	IssueNumber     int        `json:"issue_number,omitempty"`
	OutgoingLinks   []string   `json:"outgoing_links,omitempty"`
	TableOfContents []TOCEntry `json:"table_of_contents,omitempty"`
}

// TOCEntry is one node of an article's table of contents.
type TOCEntry struct {
	Index      int        `json:"index"`
	IndexLabel string     `json:"index_label,omitempty"`
	Label      string     `json:"label,omitempty"`
	Content    string     `json:"content,omitempty"`
	Parts      []TOCEntry `json:"parts,omitempty"`
}

// MediaFields holds fields shared by images and videos.
type MediaFields struct {
	Caption         string `json:"caption,omitempty"`
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
	CopyrightHolder string `json:"copyright_holder,omitempty"`
}

// VideoFields holds video-only fields.
type VideoFields struct {
	DurationSec float64 `json:"duration_sec,omitempty"`
	Transcript  string  `json:"transcript,omitempty"`
	Poster      string  `json:"poster,omitempty"`
}

// SetFields holds set-only fields.
type SetFields struct {
	ChildTags []string `json:"child_tags,omitempty"`
	Featured  bool     `json:"featured"`
}

// SearchResponse is the JSON form of one page of results.
type SearchResponse struct {
	Items      []ModelResponse `json:"items"`
	UpperBound int             `json:"upper_bound"`
	More       *Continuation   `json:"more,omitempty"`
}

// Continuation locates the next page of results.
type Continuation struct {
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
	Href   string `json:"href"`
}

// FixResponse is the JSON form of a corrected query.
type FixResponse struct {
	Query    string `json:"query"`
	Original string `json:"original"`
}

// ModelToResponse renders a model as JSON-ready fields.
func ModelToResponse(m content.Model) ModelResponse {
	c := content.Base(m)
	resp := ModelResponse{
		ID:            c.ID().String(),
		Type:          string(c.Type()),
		Title:         c.Title(),
		OriginalTitle: c.OriginalTitle(),
		Synopsis:      c.Synopsis(),
		Tags:          c.Tags(),
		License:       c.License(),
		ContentType:   c.ContentType(),
		Source:        c.Source(),
		SourceName:    c.SourceName(),
		SourceURI:     c.SourceURI(),
		OriginalURI:   c.OriginalURI(),
		Language:      c.Language(),
		LastModified:  timePtr(c.LastModified()),
		Thumbnail:     c.Thumbnail(),
		Resources:     c.Resources(),
		HasContent:    c.HasContent(),
	}

	switch m := m.(type) {
	case *content.Article:
		resp.Article = &ArticleFields{
			WordCount:       m.WordCount(),
			Authors:         m.Authors(),
			Published:       timePtr(m.Published()),
			IssueNumber:     m.IssueNumber(),
			OutgoingLinks:   m.OutgoingLinks(),
			TableOfContents: tocToResponse(m.TableOfContents()),
		}
	case *content.Image:
		resp.Media = &MediaFields{
			Caption:         m.Caption(),
			Width:           m.Width(),
			Height:          m.Height(),
			CopyrightHolder: m.CopyrightHolder(),
		}
	case *content.Video:
		resp.Media = &MediaFields{
			Caption:         m.Caption(),
			Width:           m.Width(),
			Height:          m.Height(),
			CopyrightHolder: m.CopyrightHolder(),
		}
		resp.Video = &VideoFields{
			DurationSec: m.Duration().Seconds(),
			Transcript:  m.Transcript(),
			Poster:      m.Poster(),
		}
	case *content.Set:
		resp.Set = &SetFields{ChildTags: m.ChildTags(), Featured: m.Featured()}
	case *content.Content:
	}
	return resp
}

func tocToResponse(entries []content.TOCEntry) []TOCEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]TOCEntry, len(entries))
	for i, e := range entries {
		out[i] = TOCEntry{
			Index:      e.Index,
			IndexLabel: e.IndexLabel,
			Label:      e.Label,
			Content:    e.Content,
			Parts:      tocToResponse(e.Parts),
		}
	}
	return out
}

func resultsToResponse(res *resolver.Results) SearchResponse {
	items := make([]ModelResponse, len(res.Models))
	for i, m := range res.Models {
		items[i] = ModelToResponse(m)
	}
	resp := SearchResponse{Items: items, UpperBound: res.UpperBound}
	if res.More != nil {
		resp.More = &Continuation{
			Offset: res.More.Offset(),
			Limit:  res.More.Limit(),
			Href:   searchHref(*res.More),
		}
	}
	return resp
}

// searchHref renders req as a search URL; it is the inverse of searchRequestFromQuery.
func searchHref(req request.Request) string {
	q := url.Values{}
	if req.Query() != "" {
		q.Set("q", req.Query())
	}
	q.Set("mode", req.Mode().String())
	q.Set("match", req.Match().String())
	q.Set("sort", req.Sort().String())
	q.Set("order", req.Order().String())
	q.Set("limit", strconv.Itoa(req.Limit()))
	q.Set("offset", strconv.Itoa(req.Offset()))
	if tags := req.Tags(); len(tags) > 0 {
		q["tag"] = tags
	}
	if ids := req.IDs(); len(ids) > 0 {
		q["id"] = ids
	}
	return "/v1/domains/" + url.PathEscape(req.Domain()) + "/search?" + q.Encode()
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}
