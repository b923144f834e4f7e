package bookfeed

import _ "embed"

// defaultStylesheet renders the feed as an HTML page listing every book
// with its download links.
//
//go:embed style.xsl
var defaultStylesheet []byte

// DefaultStylesheet returns a copy of the built-in stylesheet.
func DefaultStylesheet() []byte {
	return append([]byte(nil), defaultStylesheet...)
}
