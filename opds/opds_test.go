package opds

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/bookfeed/format"
	"github.com/tsawler/bookfeed/model"
)

const base = "https://example.com/ebooks/"

func testFeed(updated time.Time) model.Feed {
	return model.Feed{
		Title:   "Test ebooks",
		Author:  "Tester",
		ID:      base + "index.xml",
		Self:    base,
		Updated: updated,
	}
}

func lookup(t *testing.T, suffix string) *format.Descriptor {
	t.Helper()
	d, ok := format.Default().Lookup(suffix)
	require.True(t, ok, suffix)
	return d
}

func names(e *Element) []string {
	var out []string
	for _, c := range e.Children() {
		if el, ok := c.(*Element); ok {
			out = append(out, el.Name)
		}
	}
	return out
}

func text(t *testing.T, e *Element) string {
	t.Helper()
	s, ok := e.Text()
	require.True(t, ok, "<%s> has no text", e.Name)
	return s
}

func TestElement_Append(t *testing.T) {
	t.Run("text then element", func(t *testing.T) {
		e := TextElement("title", "x")
		assert.ErrorIs(t, e.Append(NewElement("b")), ErrMixedContent)
		assert.ErrorIs(t, e.Append(Text("more")), ErrMixedContent)
		assert.Len(t, e.Children(), 1)
	})

	t.Run("element then text", func(t *testing.T) {
		e := NewElement("entry")
		require.NoError(t, e.Append(NewElement("id")))
		assert.ErrorIs(t, e.Append(Text("x")), ErrMixedContent)
		assert.Len(t, e.Children(), 1)
	})

	t.Run("mixed in one call", func(t *testing.T) {
		e := NewElement("entry")
		assert.ErrorIs(t, e.Append(Text("x"), NewElement("id")), ErrMixedContent)
		assert.Empty(t, e.Children())
	})

	t.Run("single text on empty element", func(t *testing.T) {
		e := NewElement("name")
		require.NoError(t, e.Append(Text("x")))
		assert.Equal(t, "x", text(t, e))
	})

	t.Run("appending nothing is fine", func(t *testing.T) {
		e := TextElement("title", "x")
		assert.NoError(t, e.Append())
	})
}

func TestRender_FeedStructure(t *testing.T) {
	updated := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	root := Render(testFeed(updated), nil)

	assert.Equal(t, "feed", root.Name)
	assert.Equal(t, []string{"title", "id", "updated", "author", "link"}, names(root))
	assert.Equal(t, []Namespace{
		{URI: AtomNamespace},
		{Prefix: "opds", URI: CatalogNamespace},
		{Prefix: "dcterms", URI: DCTermsNamespace},
	}, root.Namespaces)

	assert.Equal(t, "Test ebooks", text(t, root.Elements("title")[0]))
	assert.Equal(t, base+"index.xml", text(t, root.Elements("id")[0]))
	assert.Equal(t, "2024-05-06T07:08:09Z", text(t, root.Elements("updated")[0]))
	assert.Equal(t, "Tester", text(t, root.Elements("author")[0].Elements("name")[0]))

	self := root.Elements("link")[0]
	assert.Equal(t, []Attr{{"rel", "self"}, {"type", FeedMediaType}, {"href", base}}, self.Attrs)
}

func TestRender_EmptyFeedHasEmptyUpdated(t *testing.T) {
	root := Render(testFeed(time.Time{}), nil)
	assert.Equal(t, "", text(t, root.Elements("updated")[0]))
	assert.Empty(t, root.Elements("entry"))
}

func TestRender_Entry(t *testing.T) {
	b := model.NewBook("dune", base+"dune")
	b.Title = "Dune"
	b.Author = "Frank Herbert"
	b.Content = "<p>Spice <b>must</b> flow.</p>"
	b.Updated = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	b.AddLink(model.Link{Name: "dune.epub", Href: base + "dune.epub", Format: lookup(t, ".epub")})
	b.AddLink(model.Link{Name: "dune.jpg", Href: base + "dune.jpg", Format: lookup(t, ".jpg"), Thumbnail: base + "thumbnails/dune.jpg.jpg"})

	root := Render(testFeed(b.Updated), []*model.Book{b})
	entries := root.Elements("entry")
	require.Len(t, entries, 1)
	e := entries[0]

	assert.Equal(t, []string{"id", "updated", "title", "author", "content", "link", "link", "link"}, names(e))
	assert.Equal(t, base+"dune", text(t, e.Elements("id")[0]))
	assert.Equal(t, "2024-01-02T03:04:05Z", text(t, e.Elements("updated")[0]))
	assert.Equal(t, "Dune", text(t, e.Elements("title")[0]))
	assert.Equal(t, "Frank Herbert", text(t, e.Elements("author")[0].Elements("name")[0]))

	content := e.Elements("content")[0]
	assert.Equal(t, []Attr{{"type", "text"}}, content.Attrs)
	assert.Equal(t, "Spice must flow.", text(t, content))

	links := e.Elements("link")
	assert.Equal(t, []Attr{
		{"href", base + "dune.epub"},
		{"title", "Compatible epub"},
		{"type", "application/epub+zip"},
		{"rel", string(format.Acquisition)},
	}, links[0].Attrs)
	assert.Equal(t, "All devices and apps except Kindles and Kobos", text(t, links[0]))

	assert.Equal(t, []Attr{
		{"href", base + "dune.jpg"},
		{"type", "image/jpeg"},
		{"rel", string(format.Image)},
	}, links[1].Attrs)
	_, hasText := links[1].Text()
	assert.False(t, hasText, "image links carry no description")

	assert.Equal(t, []Attr{
		{"href", base + "thumbnails/dune.jpg.jpg"},
		{"type", ThumbnailMediaType},
		{"rel", ThumbnailRel},
	}, links[2].Attrs)
}

func TestRender_PlainContentUnchanged(t *testing.T) {
	b := model.NewBook("x", base+"x")
	b.Content = "Fish & chips"

	e := Render(testFeed(time.Time{}), []*model.Book{b}).Elements("entry")[0]
	assert.Equal(t, "Fish & chips", text(t, e.Elements("content")[0]))
}

func TestRender_EntryOrder(t *testing.T) {
	var books []*model.Book
	for _, stem := range []string{"zeta", "alpha", "mid"} {
		books = append(books, model.NewBook(stem, base+stem))
	}

	var got []string
	for _, e := range Render(testFeed(time.Time{}), books).Elements("entry") {
		got = append(got, text(t, e.Elements("title")[0]))
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, got)
}

func TestTimestamp(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Time{}, ""},
		{time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "2024-01-02T03:04:05Z"},
		{time.Date(2024, 1, 2, 3, 4, 5, 0, loc), "2024-01-02T08:04:05Z"},
		{time.Date(2024, 1, 2, 3, 4, 5, 123456789, time.UTC), "2024-01-02T03:04:05.123456Z"},
		{time.Date(2024, 1, 2, 3, 4, 5, 500, time.UTC), "2024-01-02T03:04:05Z"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Timestamp(tt.in))
	}
}

func TestEncode(t *testing.T) {
	b := model.NewBook("Tom & Jerry", base+"Tom%20%26%20Jerry")
	b.Updated = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	b.AddLink(model.Link{Name: "Tom & Jerry.pdf", Href: base + "Tom%20%26%20Jerry.pdf", Format: lookup(t, ".pdf")})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Render(testFeed(b.Updated), []*model.Book{b}), "style.xsl"))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, xml.Header+`<?xml-stylesheet type="text/xsl" href="style.xsl"?>`+"\n<feed "), out)
	assert.Contains(t, out, `<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opds="http://opds-spec.org/2010/catalog" xmlns:dcterms="http://purl.org/dc/terms/">`)
	assert.Contains(t, out, "\n  <title>Test ebooks</title>\n")
	assert.Contains(t, out, "<title>Tom &amp; Jerry</title>")
	assert.Contains(t, out, `<link href="https://example.com/ebooks/Tom%20%26%20Jerry.pdf" title="pdf" type="application/pdf" rel="http://opds-spec.org/acquisition">Fixed page layout</link>`)
	assert.Equal(t, 1, strings.Count(out, "xmlns="), "only the root declares namespaces")
	assert.True(t, strings.HasSuffix(out, "</feed>\n"))

	// The output must be well-formed and use the Atom namespace throughout.
	var parsed struct {
		XMLName xml.Name `xml:"http://www.w3.org/2005/Atom feed"`
		Entries []struct {
			Title string `xml:"http://www.w3.org/2005/Atom title"`
		} `xml:"http://www.w3.org/2005/Atom entry"`
	}
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &parsed))
	require.Len(t, parsed.Entries, 1)
	assert.Equal(t, "Tom & Jerry", parsed.Entries[0].Title)
}

func TestEncode_NoStylesheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Render(testFeed(time.Time{}), nil), ""))
	assert.NotContains(t, buf.String(), "xml-stylesheet")
	assert.Contains(t, buf.String(), "<updated></updated>")
}
