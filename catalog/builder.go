package catalog

import (
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/tsawler/bookfeed/format"
	"github.com/tsawler/bookfeed/model"
)

// Result is the outcome of a Build.
type Result struct {
	// Books in the order their stems were first seen.
	Books []*model.Book

	// Updated is the newest modification time over every recognised file,
	// or the zero time when there were none.
	Updated time.Time

	// Skipped lists the names that matched no format.
	Skipped []string
}

// Builder groups files into books. A Builder keeps no state between calls
// to Build.
type Builder struct {
	fs         afero.Fs
	baseURL    string
	registry   *format.Registry
	extractors map[format.Kind]Extractor
	logger     *log.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithRegistry replaces the default format table.
func WithRegistry(r *format.Registry) Option {
	return func(b *Builder) { b.registry = r }
}

// WithExtractor sets the extractor used for kind. A nil extractor disables
// metadata extraction for that kind.
func WithExtractor(kind format.Kind, e Extractor) Option {
	return func(b *Builder) {
		if e == nil {
			delete(b.extractors, kind)
			return
		}
		b.extractors[kind] = e
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder returns a Builder that reads files through fs and publishes
// them under baseURL, which should end in a slash.
func NewBuilder(fs afero.Fs, baseURL string, opts ...Option) *Builder {
	b := &Builder{
		fs:         fs,
		baseURL:    baseURL,
		registry:   format.Default(),
		extractors: DefaultExtractors(),
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// URL returns the address of name under the builder's base URL.
func (b *Builder) URL(name string) string {
	return b.baseURL + url.PathEscape(name)
}

// Build processes files in order. Unrecognised files are logged and
// skipped; any extraction or filesystem error aborts the build.
func (b *Builder) Build(files []File) (*Result, error) {
	res := &Result{}
	books := make(map[string]*model.Book)

	for _, f := range files {
		d, stem, ok := b.registry.Classify(f.Name)
		if !ok {
			b.logger.Warn("unknown filetype", "file", f.Name)
			res.Skipped = append(res.Skipped, f.Name)
			continue
		}

		book, seen := books[stem]
		if !seen {
			book = model.NewBook(stem, b.URL(stem))
			books[stem] = book
			res.Books = append(res.Books, book)
		}

		book.AddLink(model.Link{
			Name:   f.Name,
			Href:   b.URL(f.Name),
			Format: d,
		})
		book.Touch(f.ModTime)
		if f.ModTime.After(res.Updated) {
			res.Updated = f.ModTime
		}

		meta, err := b.extract(f, d)
		if err != nil {
			return nil, err
		}
		book.Merge(meta)

		b.logger.Debug("added file", "file", f.Name, "stem", stem, "format", d.Suffix, "fields", len(meta))
	}
	return res, nil
}

func (b *Builder) extract(f File, d *format.Descriptor) (model.Metadata, error) {
	if !d.HasMetadata() {
		return nil, nil
	}
	e, ok := b.extractors[d.Kind]
	if !ok {
		return nil, nil
	}

	fh, err := b.fs.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	defer fh.Close()

	fi, err := fh.Stat()
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	meta, err := e.Extract(fh, fi.Size())
	if err != nil {
		return nil, fmt.Errorf("catalog: extracting %s metadata from %s: %w", d.Kind, f.Name, err)
	}
	return meta, nil
}
