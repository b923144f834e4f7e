// Package config loads bookfeed settings from defaults, an optional config
// file, BOOKFEED_* environment variables (and a .env file) and command-line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// AppName is used as the config file name and environment prefix.
	AppName   = "bookfeed"
	EnvPrefix = "BOOKFEED"
)

// Config holds the resolved settings for one feed generation.
type Config struct {
	Directory    string           `json:"directory" mapstructure:"directory"`
	BaseURL      string           `json:"base_url" mapstructure:"base_url"`
	FeedFilename string           `json:"feed_filename" mapstructure:"feed_filename"`
	Feed         FeedConfig       `json:"feed" mapstructure:"feed"`
	Stylesheet   string           `json:"stylesheet" mapstructure:"stylesheet"`
	Transform    TransformConfig  `json:"transform" mapstructure:"transform"`
	Thumbnails   ThumbnailsConfig `json:"thumbnails" mapstructure:"thumbnails"`
	Verbose      bool             `json:"verbose" mapstructure:"verbose"`

	// File is the config file that was read, if any.
	File string `json:"-" mapstructure:"-"`
}

// FeedConfig holds the feed-level Atom fields.
type FeedConfig struct {
	Title  string `json:"title" mapstructure:"title"`
	Author string `json:"author" mapstructure:"author"`
}

// TransformConfig controls the stylesheet preview.
type TransformConfig struct {
	Enabled        bool   `json:"enabled" mapstructure:"enabled"`
	CopyStylesheet bool   `json:"copy_stylesheet" mapstructure:"copy_stylesheet"`
	Command        string `json:"command" mapstructure:"command"`
}

// ThumbnailsConfig controls cover thumbnail generation.
type ThumbnailsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Dir     string `json:"dir" mapstructure:"dir"`
	Height  int    `json:"height" mapstructure:"height"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Directory:    ".",
		BaseURL:      "https://myoung.uk/ebooks/",
		FeedFilename: "index.xml",
		Feed: FeedConfig{
			Title:  "Michael Young's ebooks",
			Author: "Michael Young",
		},
		Stylesheet: "style.xsl",
		Transform: TransformConfig{
			Enabled:        true,
			CopyStylesheet: true,
			Command:        "xsltproc",
		},
		Thumbnails: ThumbnailsConfig{
			Dir:    "thumbnails",
			Height: 240,
		},
	}
}

// FlagKeys maps config keys to the command-line flags bound to them.
var FlagKeys = map[string]string{
	"directory":          "dir",
	"base_url":           "url",
	"feed_filename":      "output",
	"stylesheet":         "stylesheet",
	"thumbnails.enabled": "thumbnails",
	"verbose":            "verbose",
}

// NoTransformFlag is the inverted flag for transform.enabled.
const NoTransformFlag = "no-transform"

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// ConfigFile is an explicit config file; it must exist.
	ConfigFile string
	// SearchDir is searched for bookfeed.{yaml,toml,json} when ConfigFile
	// is empty. Defaults to ".".
	SearchDir string
	// EnvFiles are dotenv files loaded into the environment. Missing files
	// are ignored. Defaults to ".env".
	EnvFiles []string
	// Flags, when set, supply the highest-precedence values.
	Flags *pflag.FlagSet
}

// Load resolves the configuration and validates it.
func Load(opts LoadOptions) (*Config, error) {
	if err := loadEnvFiles(opts.EnvFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", opts.ConfigFile, err)
		}
	} else {
		dir := opts.SearchDir
		if dir == "" {
			dir = "."
		}
		v.SetConfigName(AppName)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func loadEnvFiles(files []string) error {
	if files == nil {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: loading %s: %w", f, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("directory", d.Directory)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("feed_filename", d.FeedFilename)
	v.SetDefault("feed.title", d.Feed.Title)
	v.SetDefault("feed.author", d.Feed.Author)
	v.SetDefault("stylesheet", d.Stylesheet)
	v.SetDefault("transform.enabled", d.Transform.Enabled)
	v.SetDefault("transform.copy_stylesheet", d.Transform.CopyStylesheet)
	v.SetDefault("transform.command", d.Transform.Command)
	v.SetDefault("thumbnails.enabled", d.Thumbnails.Enabled)
	v.SetDefault("thumbnails.dir", d.Thumbnails.Dir)
	v.SetDefault("thumbnails.height", d.Thumbnails.Height)
	v.SetDefault("verbose", d.Verbose)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range FlagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("config: binding --%s: %w", name, err)
		}
	}

	// --no-transform only ever turns the transform off.
	if f := flags.Lookup(NoTransformFlag); f != nil && f.Changed {
		off, err := flags.GetBool(NoTransformFlag)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if off {
			v.Set("transform.enabled", false)
		}
	}
	return nil
}

var (
	trailingSlash = regexp.MustCompile(`/$`)
	plainName     = regexp.MustCompile(`^[^/\\]+$`)
)

// Validate checks the settings Generate depends on.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Directory, validation.Required),
		validation.Field(&c.BaseURL,
			validation.Required,
			is.URL,
			validation.Match(trailingSlash).Error("must end with /"),
		),
		validation.Field(&c.FeedFilename, validation.Required, validation.Match(plainName).Error("must be a file name")),
		validation.Field(&c.Stylesheet, validation.Match(plainName).Error("must be a file name")),
		validation.Field(&c.Thumbnails),
	)
}

// Validate checks the thumbnail settings.
func (t ThumbnailsConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Dir, validation.When(t.Enabled,
			validation.Required,
			validation.By(subdirectory),
		)),
		validation.Field(&t.Height, validation.Min(16), validation.Max(1024)),
	)
}

// IsSubdirectory reports whether dir names a directory strictly below the
// one it is relative to. Thumbnails written anywhere else would be scanned
// as covers on the next run.
func IsSubdirectory(dir string) bool {
	return filepath.IsLocal(dir) && filepath.Clean(dir) != "."
}

func subdirectory(value any) error {
	dir, _ := value.(string)
	if dir != "" && !IsSubdirectory(dir) {
		return errors.New("must be a subdirectory of the feed directory")
	}
	return nil
}
