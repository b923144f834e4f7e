// Package htmldoc reduces HTML fragments, such as EPUB descriptions, to
// plain text.
package htmldoc

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HasMarkup reports whether s contains a tag opener or an escaped one.
func HasMarkup(s string) bool {
	return strings.Contains(s, "<") || strings.Contains(s, "&lt;")
}

// Filter strips tags from s and decodes character references. Strings
// without markup are returned unchanged, so a plain "AT&amp;T" survives as
// written.
func Filter(s string) string {
	if !HasMarkup(s) {
		return s
	}
	text, _ := Text(strings.NewReader(s))
	return text
}

// Text concatenates the character data of an HTML stream. Comments,
// doctypes and tags are dropped; the contents of every element, including
// script and style, are kept.
func Text(r io.Reader) (string, error) {
	var sb strings.Builder
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return sb.String(), err
			}
			return sb.String(), nil
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}
