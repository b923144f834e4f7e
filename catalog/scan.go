// Package catalog groups the files of an ebook directory into books.
//
// Files that share a stem (the name with its format suffix removed) are
// different renditions of the same book. A Builder walks a sorted file list,
// attaches one link per file to its book, keeps the newest modification time
// and merges whatever metadata the EPUB and PDF files carry:
//
//	files, err := catalog.Scan(fs, "/srv/ebooks", "index.xml")
//	if err != nil {
//	    return err
//	}
//	res, err := catalog.NewBuilder(fs, "https://example.com/ebooks/").Build(files)
//
// Metadata from later files overwrites earlier values, field by field, in
// listing order.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// File is one directory entry considered for the feed.
type File struct {
	Name    string
	Path    string
	ModTime time.Time
}

// Scan lists the regular files directly inside dir in lexicographic order
// of name. Subdirectories and the names in ignore are left out. Symbolic
// links are followed; a link to a regular file is listed under its own name
// with the target's modification time, and broken links are skipped.
func Scan(fs afero.Fs, dir string, ignore ...string) ([]File, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: scanning %s: %w", dir, err)
	}

	files := make([]File, 0, len(infos))
	for _, fi := range infos {
		name := fi.Name()
		if slices.Contains(ignore, name) {
			continue
		}
		path := filepath.Join(dir, name)
		if fi.Mode()&os.ModeSymlink != 0 {
			if fi, err = fs.Stat(path); err != nil {
				continue
			}
		}
		if !fi.Mode().IsRegular() {
			continue
		}
		files = append(files, File{
			Name:    name,
			Path:    path,
			ModTime: fi.ModTime(),
		})
	}

	// ReadDir already sorts; the order is part of the contract, so make it
	// explicit.
	slices.SortFunc(files, func(a, b File) int {
		return strings.Compare(a.Name, b.Name)
	})
	return files, nil
}
