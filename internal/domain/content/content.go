// Package content holds the typed content models a domain resolves hits into.
//
// Models are immutable once built. The set of model types is closed: every
// type tag maps to exactly one constructor in the dispatch table.
package content

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/kailas-cloud/ekn/internal/domain"
	"github.com/kailas-cloud/ekn/internal/domain/ekn"
)

// VocabPrefix prefixes fully qualified type tags.
const VocabPrefix = "ekn://_vocab/"

// Type is a content model type tag without the vocabulary prefix.
type Type string

// Known model types.
const (
	TypeContent Type = "ContentObject"
	TypeArticle Type = "ArticleObject"
	TypeImage   Type = "ImageObject"
	TypeVideo   Type = "VideoObject"
	TypeSet     Type = "SetObject"
)

// Types lists every model type with a constructor.
var Types = []Type{TypeContent, TypeArticle, TypeImage, TypeVideo, TypeSet}

// ParseType strips the vocabulary prefix from a raw type tag.
// An empty tag means TypeContent.
func ParseType(raw string) Type {
	if raw == "" {
		return TypeContent
	}
	return Type(strings.TrimPrefix(raw, VocabPrefix))
}

// Accessor opens the content byte stream of a model and reports its MIME type.
type Accessor func(ctx context.Context) (io.ReadCloser, string, error)

// Model is implemented by *Content, *Article, *Image, *Video and *Set only.
type Model interface {
	ID() ekn.ID
	Type() Type
	Title() string
	Synopsis() string
	Tags() []string
	License() string
	ContentType() string
	RedirectsTo() string
	Open(ctx context.Context) (io.ReadCloser, string, error)

	base() *Content
}

type constructor func(p Properties, c *Content) (Model, error)

var constructors = map[Type]constructor{
	TypeContent: func(_ Properties, c *Content) (Model, error) { return c, nil },
	TypeArticle: newArticle,
	TypeImage:   newImage,
	TypeVideo:   newVideo,
	TypeSet:     newSet,
}

// New builds the model selected by the "@type" property. open may be nil when
// the model has no content stream.
func New(p Properties, open Accessor) (Model, error) {
	raw, err := p.String("@type")
	if err != nil {
		return nil, err
	}
	t := ParseType(raw)
	build, ok := constructors[t]
	if !ok {
		return nil, fmt.Errorf("%w for type %s", domain.ErrNoModel, raw)
	}
	c, err := newContent(p, t, open)
	if err != nil {
		return nil, err
	}
	return build(p, c)
}

// Content is the base model shared by every type.
type Content struct {
	id            ekn.ID
	typ           Type
	title         string
	originalTitle string
	synopsis      string
	tags          []string
	license       string
	contentType   string
	source        string
	sourceName    string
	sourceURI     string
	originalURI   string
	language      string
	lastModified  time.Time
	thumbnail     string
	resources     []string
	redirectsTo   string
	open          Accessor
}

func newContent(p Properties, t Type, open Accessor) (*Content, error) {
	rawID, err := p.String("@id")
	if err != nil {
		return nil, err
	}
	if rawID == "" {
		return nil, domain.MissingProperty("@id")
	}
	id, err := ekn.Parse(rawID)
	if err != nil {
		return nil, domain.InvalidProperty("@id", err)
	}

	c := &Content{id: id, typ: t, open: open}
	strs := []struct {
		name string
		dst  *string
	}{
		{"title", &c.title},
		{"originalTitle", &c.originalTitle},
		{"synopsis", &c.synopsis},
		{"license", &c.license},
		{"contentType", &c.contentType},
		{"source", &c.source},
		{"sourceName", &c.sourceName},
		{"sourceURI", &c.sourceURI},
		{"originalURI", &c.originalURI},
		{"language", &c.language},
		{"thumbnail", &c.thumbnail},
		{"redirectsTo", &c.redirectsTo},
	}
	for _, s := range strs {
		if *s.dst, err = p.String(s.name); err != nil {
			return nil, err
		}
	}
	if c.tags, err = p.Strings("tags"); err != nil {
		return nil, err
	}
	if c.resources, err = p.Strings("resources"); err != nil {
		return nil, err
	}
	if c.lastModified, err = p.Date("lastModifiedDate"); err != nil {
		return nil, err
	}
	if c.redirectsTo != "" {
		if _, err := ekn.Parse(c.redirectsTo); err != nil {
			return nil, domain.InvalidProperty("redirectsTo", err)
		}
	}
	return c, nil
}

func (c *Content) base() *Content { return c }

// Base returns the fields every model shares.
func Base(m Model) *Content { return m.base() }

// ID returns the content identifier.
func (c *Content) ID() ekn.ID { return c.id }

// Type returns the model type tag.
func (c *Content) Type() Type { return c.typ }

func (c *Content) Title() string         { return c.title }
func (c *Content) OriginalTitle() string { return c.originalTitle }
func (c *Content) Synopsis() string      { return c.synopsis }
func (c *Content) License() string       { return c.license }
func (c *Content) ContentType() string   { return c.contentType }
func (c *Content) Source() string        { return c.source }
func (c *Content) SourceName() string    { return c.sourceName }
func (c *Content) SourceURI() string     { return c.sourceURI }
func (c *Content) OriginalURI() string   { return c.originalURI }
func (c *Content) Language() string      { return c.language }
func (c *Content) Thumbnail() string     { return c.thumbnail }

// LastModified returns the last modification time, zero when unknown.
func (c *Content) LastModified() time.Time { return c.lastModified }

// Tags returns a copy of the model's tags.
func (c *Content) Tags() []string { return slices.Clone(c.tags) }

// Resources returns a copy of the identifiers of attached resources.
func (c *Content) Resources() []string { return slices.Clone(c.resources) }

// RedirectsTo returns the identifier this model redirects to, or "".
func (c *Content) RedirectsTo() string { return c.redirectsTo }

// HasContent reports whether Open can return a stream.
func (c *Content) HasContent() bool { return c.open != nil }

// Open returns the content byte stream and its MIME type.
func (c *Content) Open(ctx context.Context) (io.ReadCloser, string, error) {
	if c.open == nil {
		return nil, "", fmt.Errorf("open %s: %w", c.id, domain.ErrNoContent)
	}
	return c.open(ctx)
}
