package main

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tsawler/bookfeed"
	"github.com/tsawler/bookfeed/internal/config"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "bookfeed",
		Short: "Generate an OPDS catalog for a directory of ebooks",
		Long: TitleStyle.Render("bookfeed") + SubtitleStyle.Render(" - OPDS catalogs for a directory of ebooks") + `

Files that share a name stem ("Dune.epub", "Dune.pdf", "Dune.jpg") become
one catalog entry with a link per format. Titles, authors and descriptions
are read from EPUB and PDF files.

Settings come from bookfeed.yaml (or --config), BOOKFEED_* environment
variables, a .env file and the flags below.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, cfgFile)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./bookfeed.{yaml,toml,json})")

	flags := cmd.Flags()
	flags.StringP("dir", "d", "", "directory of ebooks (default \".\")")
	flags.StringP("url", "u", "", "URL the directory is served under, ending in /")
	flags.StringP("output", "o", "", "feed file name (default \"index.xml\")")
	flags.String("stylesheet", "", "XSLT stylesheet referenced by the feed (default \"style.xsl\")")
	flags.Bool(config.NoTransformFlag, false, "do not print the styled version of the feed")
	flags.Bool("thumbnails", false, "generate cover thumbnails")
	flags.BoolP("verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newFormatsCmd())
	return cmd
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "bookfeed",
		ReportTimestamp: true,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func runGenerate(cmd *cobra.Command, cfgFile string) error {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: cfgFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	if cfg.File != "" {
		logger.Debug("using config file", "path", cfg.File)
	}

	opts := append(bookfeed.ConfigOptions(cfg),
		bookfeed.WithLogger(logger),
		bookfeed.WithOutput(cmd.OutOrStdout()),
	)
	report, err := bookfeed.New(afero.NewOsFs(), opts...).Generate(cmd.Context())
	if err != nil {
		return err
	}

	logger.Info("catalog updated",
		"books", report.Books,
		"skipped", len(report.Skipped),
		"thumbnails", report.Thumbnails,
	)
	return nil
}
