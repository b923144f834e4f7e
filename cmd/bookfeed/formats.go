package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/tsawler/bookfeed/format"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the recognized file suffixes",
		Long: `List the recognized file suffixes in match order. A file is classified by
the longest suffix it ends with; everything before it is the book's stem.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), formatsTable(format.Default()))
			return err
		},
	}
}

func formatsTable(r *format.Registry) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
		Headers("SUFFIX", "TITLE", "MEDIA TYPE", "REL", "DESCRIPTION").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return lipgloss.NewStyle()
		})

	for _, d := range r.Descriptors() {
		t.Row(d.Suffix, d.Title, d.MediaType, relName(d.Rel), d.Description)
	}
	return t
}

func relName(r format.Relation) string {
	switch r {
	case format.Acquisition:
		return "acquisition"
	case format.Image:
		return "image"
	case format.Thumbnail:
		return "thumbnail"
	default:
		return string(r)
	}
}
