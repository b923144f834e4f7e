package opds

import (
	"time"

	"github.com/tsawler/bookfeed/format"
	"github.com/tsawler/bookfeed/htmldoc"
	"github.com/tsawler/bookfeed/model"
)

// Namespace URIs declared on the feed element.
const (
	AtomNamespace    = "http://www.w3.org/2005/Atom"
	CatalogNamespace = "http://opds-spec.org/2010/catalog"
	DCTermsNamespace = "http://purl.org/dc/terms/"
)

// Attributes of the feed's self link and of cover thumbnails.
const (
	FeedMediaType      = "application/atom+xml"
	ThumbnailMediaType = "image/jpeg"
	ThumbnailRel       = string(format.Thumbnail)
)

// Timestamp formats t in UTC the way the feed expects: whole seconds, or
// microseconds when there is a fractional part, with a Z suffix. The zero
// time formats as an empty string.
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.UTC()
	if t.Nanosecond()/1000 == 0 {
		return t.Format("2006-01-02T15:04:05Z")
	}
	return t.Format("2006-01-02T15:04:05.000000Z")
}

// Render builds the feed element. Books appear in the order given and each
// book's links in the order they were added.
func Render(feed model.Feed, books []*model.Book) *Element {
	root := NewElement("feed")
	root.Namespaces = []Namespace{
		{URI: AtomNamespace},
		{Prefix: "opds", URI: CatalogNamespace},
		{Prefix: "dcterms", URI: DCTermsNamespace},
	}

	root.mustAppend(
		TextElement("title", feed.Title),
		TextElement("id", feed.ID),
		TextElement("updated", Timestamp(feed.Updated)),
		author(feed.Author),
		NewElement("link",
			Attr{"rel", "self"},
			Attr{"type", FeedMediaType},
			Attr{"href", feed.Self},
		),
	)
	for _, b := range books {
		root.mustAppend(entry(b))
	}
	return root
}

func author(name string) *Element {
	return NewElement("author").mustAppend(TextElement("name", name))
}

func entry(b *model.Book) *Element {
	e := NewElement("entry").mustAppend(
		TextElement("id", b.ID),
		TextElement("updated", Timestamp(b.Updated)),
		TextElement("title", b.Title),
		author(b.Author),
		TextElement("content", htmldoc.Filter(b.Content), Attr{"type", "text"}),
	)

	for _, l := range b.Links {
		e.mustAppend(link(l))
		if l.Thumbnail != "" {
			e.mustAppend(NewElement("link",
				Attr{"href", l.Thumbnail},
				Attr{"type", ThumbnailMediaType},
				Attr{"rel", ThumbnailRel},
			))
		}
	}
	return e
}

func link(l model.Link) *Element {
	attrs := []Attr{{"href", l.Href}}
	d := l.Format
	if d.Title != "" {
		attrs = append(attrs, Attr{"title", d.Title})
	}
	attrs = append(attrs, Attr{"type", d.MediaType}, Attr{"rel", string(d.Rel)})

	if d.Description == "" {
		return NewElement("link", attrs...)
	}
	return TextElement("link", d.Description, attrs...)
}
