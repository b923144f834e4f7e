package catalog

import (
	"io"

	"github.com/tsawler/bookfeed/epubdoc"
	"github.com/tsawler/bookfeed/format"
	"github.com/tsawler/bookfeed/model"
	"github.com/tsawler/bookfeed/pdfdoc"
)

// Extractor reads book metadata out of a file's contents. Keys it leaves out
// of the result are treated as not provided.
type Extractor interface {
	Extract(r io.ReaderAt, size int64) (model.Metadata, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(r io.ReaderAt, size int64) (model.Metadata, error)

// Extract calls f.
func (f ExtractorFunc) Extract(r io.ReaderAt, size int64) (model.Metadata, error) {
	return f(r, size)
}

// DefaultExtractors returns the extractors for the kinds that embed
// metadata: EPUB and PDF.
func DefaultExtractors() map[format.Kind]Extractor {
	return map[format.Kind]Extractor{
		format.EPUB: ExtractorFunc(epubdoc.Extract),
		format.PDF:  ExtractorFunc(pdfdoc.Extract),
	}
}
