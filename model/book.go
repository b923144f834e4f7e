package model

import (
	"time"

	"github.com/tsawler/bookfeed/format"
)

// DefaultAuthor is used until a file for the book reports an author.
const DefaultAuthor = "Unknown"

// Link is one published file of a book.
type Link struct {
	Name      string             // file name within the directory
	Href      string             // absolute URL of the file
	Format    *format.Descriptor // matched descriptor, owned by the registry
	Thumbnail string             // URL of a generated thumbnail, if any
}

// Book accumulates every file that shares a stem.
type Book struct {
	Stem    string
	ID      string
	Links   []Link
	Updated time.Time
	Title   string
	Author  string
	Content string
}

// NewBook creates a book with the default field values: the title is the
// stem, the author is DefaultAuthor and the content is empty.
func NewBook(stem, id string) *Book {
	return &Book{
		Stem:   stem,
		ID:     id,
		Title:  stem,
		Author: DefaultAuthor,
	}
}

// AddLink appends a link, keeping insertion order.
func (b *Book) AddLink(l Link) {
	b.Links = append(b.Links, l)
}

// Touch records a file modification time, keeping the latest one.
func (b *Book) Touch(t time.Time) {
	if t.After(b.Updated) {
		b.Updated = t
	}
}

// Merge applies extracted metadata. Fields present in m overwrite the current
// values; absent fields are left unchanged.
func (b *Book) Merge(m Metadata) {
	if v, ok := m.Get(FieldTitle); ok {
		b.Title = v
	}
	if v, ok := m.Get(FieldAuthor); ok {
		b.Author = v
	}
	if v, ok := m.Get(FieldContent); ok {
		b.Content = v
	}
}
