// Package format provides the suffix registry that maps ebook file names to
// the link attributes they are published with.
package format

// Kind identifies the underlying file type of a descriptor. Several suffixes
// can share a kind (".kepub.epub" and "_advanced.epub" are both EPUB).
type Kind int

const (
	// Unknown indicates an unrecognized file.
	Unknown Kind = iota
	// EPUB indicates a zipped OCF/OPF e-book container.
	EPUB
	// PDF indicates a portable document.
	PDF
	// AZW3 indicates a Kindle (KF8) e-book.
	AZW3
	// HTML indicates a web page.
	HTML
	// Text indicates plain text.
	Text
	// JPEG indicates a JPEG image.
	JPEG
	// PNG indicates a PNG image.
	PNG
	// GIF indicates a GIF image.
	GIF
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case EPUB:
		return "EPUB"
	case PDF:
		return "PDF"
	case AZW3:
		return "AZW3"
	case HTML:
		return "HTML"
	case Text:
		return "Text"
	case JPEG:
		return "JPEG"
	case PNG:
		return "PNG"
	case GIF:
		return "GIF"
	default:
		return "Unknown"
	}
}

// IsImage reports whether files of this kind are cover images.
func (k Kind) IsImage() bool {
	return k == JPEG || k == PNG || k == GIF
}

// Relation is the OPDS link relation a file is published under.
type Relation string

const (
	// Acquisition marks a downloadable copy of the book.
	Acquisition Relation = "http://opds-spec.org/acquisition"
	// Image marks a cover image.
	Image Relation = "http://opds-spec.org/image"
	// Thumbnail marks a reduced-size cover image.
	Thumbnail Relation = "http://opds-spec.org/image/thumbnail"
)

// Descriptor holds the static attributes of one registered suffix.
type Descriptor struct {
	Suffix      string
	Title       string // empty for images
	Description string // empty for images
	MediaType   string
	Rel         Relation
	Kind        Kind
}

// HasMetadata reports whether files of this descriptor can carry embedded
// bibliographic metadata.
func (d Descriptor) HasMetadata() bool {
	return d.Kind == EPUB || d.Kind == PDF
}
