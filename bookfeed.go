// Package bookfeed generates an OPDS catalog (an Atom feed) for a directory
// of ebook files.
//
// Files sharing a name stem become one entry whose links point at every
// format of the book. Titles, authors and descriptions are read from EPUB
// and PDF files when present.
//
// Basic usage:
//
//	report, err := bookfeed.New(afero.NewOsFs(),
//	    bookfeed.WithDirectory("/srv/ebooks"),
//	    bookfeed.WithBaseURL("https://example.com/ebooks/"),
//	).Generate(ctx)
//	if err != nil {
//	    // handle error
//	}
//	fmt.Println(report.Books, "books written to", report.FeedPath)
//
// The lower-level catalog, opds, epubdoc and pdfdoc packages are also
// available.
package bookfeed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/tsawler/bookfeed/catalog"
	"github.com/tsawler/bookfeed/internal/config"
	"github.com/tsawler/bookfeed/model"
	"github.com/tsawler/bookfeed/opds"
	"github.com/tsawler/bookfeed/thumbnail"
	"github.com/tsawler/bookfeed/transform"
)

// ErrThumbnailDir is returned by Generate when thumbnails are enabled with a
// directory that is not below the feed directory.
var ErrThumbnailDir = errors.New("bookfeed: thumbnail directory must be a subdirectory of the feed directory")

// StyledBanner is printed before the styled preview.
const StyledBanner = "STYLED VERSION"

// Generator regenerates the feed for one directory. It is safe to call
// Generate repeatedly; each call starts from the directory contents.
type Generator struct {
	fs      afero.Fs
	options Options
}

// Report summarizes one Generate call.
type Report struct {
	FeedPath string
	Books    int
	Updated  time.Time

	// Skipped lists files that matched no format.
	Skipped []string

	// Thumbnails is the number of thumbnails written. Existing up-to-date
	// thumbnails are not counted.
	Thumbnails int

	// Warnings collects non-fatal failures, or is nil.
	Warnings *multierror.Error

	// Styled reports whether the styled preview was printed.
	Styled bool
}

// New returns a Generator working on fs.
func New(fs afero.Fs, opts ...Option) *Generator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Generator{fs: fs, options: o}
}

// FeedPath returns where the feed is written.
func (g *Generator) FeedPath() string {
	return filepath.Join(g.options.dir, g.options.feedFilename)
}

// Generate scans the directory, writes the feed and, when a transformer is
// set, prints the styled preview. Unrecognized files and thumbnail failures
// are reported but not fatal; any other failure leaves the previous feed in
// place.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	o := g.options
	if o.thumbnails && !config.IsSubdirectory(o.thumbnailDir) {
		return nil, fmt.Errorf("%w: %q", ErrThumbnailDir, o.thumbnailDir)
	}

	files, err := catalog.Scan(g.fs, o.dir, o.feedFilename, o.stylesheet)
	if err != nil {
		return nil, err
	}

	builderOpts := append([]catalog.Option{
		catalog.WithRegistry(o.registry),
		catalog.WithLogger(o.logger),
	}, o.extractors...)
	res, err := catalog.NewBuilder(g.fs, o.baseURL, builderOpts...).Build(files)
	if err != nil {
		return nil, err
	}

	report := &Report{
		FeedPath: g.FeedPath(),
		Books:    len(res.Books),
		Updated:  res.Updated,
		Skipped:  res.Skipped,
	}

	if o.thumbnails {
		report.Thumbnails, report.Warnings = g.thumbnails(res.Books, files)
		if report.Warnings != nil {
			o.logger.Warn("some thumbnails could not be generated", "count", len(report.Warnings.Errors), "err", report.Warnings)
		}
	}

	feed := model.Feed{
		Title:  o.title,
		Author: o.author,
		ID:     o.baseURL + o.feedFilename,
		Self:   o.baseURL,
	}
	feed.Touch(res.Updated)

	var buf bytes.Buffer
	if err := opds.Encode(&buf, opds.Render(feed, res.Books), o.stylesheet); err != nil {
		return nil, fmt.Errorf("bookfeed: encoding feed: %w", err)
	}
	if err := g.writeFile(report.FeedPath, buf.Bytes()); err != nil {
		return nil, err
	}
	o.logger.Info("feed written", "path", report.FeedPath, "books", report.Books)

	if o.stylesheet == "" {
		return report, nil
	}
	if o.copyStylesheet {
		if err := g.copyStylesheet(); err != nil {
			return nil, err
		}
	}

	if o.transformer != nil {
		if err := g.preview(ctx, buf.Bytes()); err != nil {
			if !errors.Is(err, transform.ErrProcessorNotFound) {
				return nil, err
			}
			o.logger.Warn("skipping styled preview", "err", err)
		} else {
			report.Styled = true
		}
	}
	return report, nil
}

// writeFile replaces dst atomically through a temporary file in the same
// directory.
func (g *Generator) writeFile(dst string, data []byte) error {
	dir, name := filepath.Split(dst)
	if dir == "" {
		dir = "."
	}

	tmp, err := afero.TempFile(g.fs, dir, "."+name+"-*")
	if err != nil {
		return fmt.Errorf("bookfeed: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		g.fs.Remove(tmpName)
		return fmt.Errorf("bookfeed: writing %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		g.fs.Remove(tmpName)
		return fmt.Errorf("bookfeed: writing %s: %w", dst, err)
	}
	if err := g.fs.Rename(tmpName, dst); err != nil {
		g.fs.Remove(tmpName)
		return fmt.Errorf("bookfeed: %w", err)
	}
	return nil
}

// copyStylesheet writes the stylesheet into the directory unless a file of
// that name is already there.
func (g *Generator) copyStylesheet() error {
	dst := filepath.Join(g.options.dir, g.options.stylesheet)
	exists, err := afero.Exists(g.fs, dst)
	if err != nil {
		return fmt.Errorf("bookfeed: %w", err)
	}
	if exists {
		return nil
	}
	if err := afero.WriteFile(g.fs, dst, g.options.stylesheetData, 0o644); err != nil {
		return fmt.Errorf("bookfeed: copying stylesheet: %w", err)
	}
	g.options.logger.Debug("stylesheet copied", "path", dst)
	return nil
}

func (g *Generator) preview(ctx context.Context, feed []byte) error {
	o := g.options
	var styled bytes.Buffer
	stylesheet := filepath.Join(o.dir, o.stylesheet)
	if err := o.transformer.Transform(ctx, stylesheet, bytes.NewReader(feed), &styled); err != nil {
		return fmt.Errorf("bookfeed: styling feed: %w", err)
	}
	if _, err := fmt.Fprintf(o.out, "%s\n%s", StyledBanner, styled.Bytes()); err != nil {
		return fmt.Errorf("bookfeed: %w", err)
	}
	return nil
}

// thumbnails writes a thumbnail for every cover image and points its link
// at it. Failures are collected rather than returned.
func (g *Generator) thumbnails(books []*model.Book, files []catalog.File) (int, *multierror.Error) {
	o := g.options
	byName := make(map[string]catalog.File, len(files))
	for _, f := range files {
		byName[f.Name] = f
	}

	maker := o.thumbnailMaker(g.fs)
	var (
		written  int
		warnings *multierror.Error
	)
	for _, b := range books {
		for i := range b.Links {
			link := &b.Links[i]
			if !link.Format.Kind.IsImage() {
				continue
			}
			f := byName[link.Name]
			wrote, err := maker.Make(f.Path, f.ModTime)
			if err != nil {
				warnings = multierror.Append(warnings, fmt.Errorf("%s: %w", link.Name, err))
				continue
			}
			if wrote {
				written++
			}
			link.Thumbnail = o.baseURL + escapePath(path.Join(filepath.ToSlash(o.thumbnailDir), thumbnail.Name(link.Name)))
		}
	}
	return written, warnings
}

// escapePath escapes each segment of a slash-separated path.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	report := bookfeed.Must(bookfeed.New(afero.NewOsFs()).Generate(ctx))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
