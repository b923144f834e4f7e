package bookfeed

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/tsawler/bookfeed/catalog"
	"github.com/tsawler/bookfeed/format"
	"github.com/tsawler/bookfeed/internal/config"
	"github.com/tsawler/bookfeed/thumbnail"
	"github.com/tsawler/bookfeed/transform"
)

// Options holds the configuration of a Generator.
type Options struct {
	dir          string
	baseURL      string
	feedFilename string
	title        string
	author       string

	// Stylesheet handling
	stylesheet     string // file name inside dir; empty disables the PI
	stylesheetData []byte
	copyStylesheet bool
	transformer    transform.Transformer // nil disables the styled preview
	out            io.Writer

	// Thumbnails
	thumbnails      bool
	thumbnailDir    string
	thumbnailHeight int

	registry   *format.Registry
	extractors []catalog.Option
	logger     *log.Logger
}

// defaultOptions mirrors config.Default.
func defaultOptions() Options {
	d := config.Default()
	return Options{
		dir:             d.Directory,
		baseURL:         d.BaseURL,
		feedFilename:    d.FeedFilename,
		title:           d.Feed.Title,
		author:          d.Feed.Author,
		stylesheet:      d.Stylesheet,
		stylesheetData:  defaultStylesheet,
		copyStylesheet:  d.Transform.CopyStylesheet,
		transformer:     transform.Command{Path: d.Transform.Command},
		out:             os.Stdout,
		thumbnailDir:    d.Thumbnails.Dir,
		thumbnailHeight: d.Thumbnails.Height,
		registry:        format.Default(),
		logger:          log.New(io.Discard),
	}
}

// Option configures a Generator.
type Option func(*Options)

// WithDirectory sets the directory that is scanned and receives the feed.
func WithDirectory(dir string) Option {
	return func(o *Options) { o.dir = dir }
}

// WithBaseURL sets the URL the directory is served under. It should end
// with a slash; file names are appended to it.
func WithBaseURL(u string) Option {
	return func(o *Options) { o.baseURL = u }
}

// WithFeedFilename sets the name of the generated feed file.
func WithFeedFilename(name string) Option {
	return func(o *Options) { o.feedFilename = name }
}

// WithFeedInfo sets the feed title and author.
func WithFeedInfo(title, author string) Option {
	return func(o *Options) {
		o.title = title
		o.author = author
	}
}

// WithStylesheet sets the stylesheet file name referenced by the feed. An
// empty name drops the processing instruction and the styled preview.
func WithStylesheet(name string) Option {
	return func(o *Options) { o.stylesheet = name }
}

// WithStylesheetData replaces the stylesheet copied into the directory.
func WithStylesheetData(data []byte) Option {
	return func(o *Options) { o.stylesheetData = data }
}

// WithCopyStylesheet controls whether a missing stylesheet is written into
// the directory.
func WithCopyStylesheet(enabled bool) Option {
	return func(o *Options) { o.copyStylesheet = enabled }
}

// WithTransformer sets the processor for the styled preview. nil disables it.
func WithTransformer(t transform.Transformer) Option {
	return func(o *Options) { o.transformer = t }
}

// WithOutput sets where the styled preview is printed.
func WithOutput(w io.Writer) Option {
	return func(o *Options) { o.out = w }
}

// WithThumbnails enables cover thumbnails written to dir (relative to the
// feed directory) and scaled to height pixels.
func WithThumbnails(dir string, height int) Option {
	return func(o *Options) {
		o.thumbnails = true
		o.thumbnailDir = dir
		o.thumbnailHeight = height
	}
}

// WithRegistry replaces the default format table.
func WithRegistry(r *format.Registry) Option {
	return func(o *Options) { o.registry = r }
}

// WithExtractor overrides the metadata extractor for kind. A nil extractor
// disables extraction for that kind.
func WithExtractor(kind format.Kind, e catalog.Extractor) Option {
	return func(o *Options) {
		o.extractors = append(o.extractors, catalog.WithExtractor(kind, e))
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// ConfigOptions translates loaded settings into generator options.
func ConfigOptions(cfg *config.Config) []Option {
	opts := []Option{
		WithDirectory(cfg.Directory),
		WithBaseURL(cfg.BaseURL),
		WithFeedFilename(cfg.FeedFilename),
		WithFeedInfo(cfg.Feed.Title, cfg.Feed.Author),
		WithStylesheet(cfg.Stylesheet),
		WithCopyStylesheet(cfg.Transform.CopyStylesheet),
	}
	if cfg.Transform.Enabled {
		opts = append(opts, WithTransformer(transform.Command{Path: cfg.Transform.Command}))
	} else {
		opts = append(opts, WithTransformer(nil))
	}
	if cfg.Thumbnails.Enabled {
		opts = append(opts, WithThumbnails(cfg.Thumbnails.Dir, cfg.Thumbnails.Height))
	}
	return opts
}

func (o Options) thumbnailMaker(fs afero.Fs) *thumbnail.Maker {
	return thumbnail.New(fs, filepath.Join(o.dir, o.thumbnailDir), o.thumbnailHeight)
}
