package epubdoc

import (
	"io"

	"github.com/tsawler/bookfeed/model"
)

// Extract reads the title, first creator and description of an EPUB. A field
// is present when its first element has any text; whitespace-only text gives
// an empty value. Missing and empty elements are left out.
func Extract(ra io.ReaderAt, size int64) (model.Metadata, error) {
	r, err := OpenReader(ra, size)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	meta := r.Metadata()
	out := make(model.Metadata, 3)
	if meta.HasText("title") {
		out[model.FieldTitle] = meta.Title
	}
	if meta.HasText("creator") {
		out[model.FieldAuthor] = meta.Creator[0]
	}
	if meta.HasText("description") {
		out[model.FieldContent] = meta.Description
	}
	return out, nil
}
