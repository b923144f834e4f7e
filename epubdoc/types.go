// Package epubdoc reads the package metadata of EPUB files.
//
// An EPUB is a ZIP archive. Its META-INF/container.xml names the package
// document (OPF), whose <metadata> element carries Dublin Core fields such as
// dc:title, dc:creator and dc:description.
package epubdoc

// Package represents the parsed OPF document.
type Package struct {
	Path     string // location of the OPF inside the archive
	Version  string // "2.0" or "3.0"
	Metadata Metadata
}

// Metadata contains the Dublin Core fields of the package. Single-valued
// fields hold the first element of that name; Creator lists every creator in
// document order. Values are whitespace-trimmed.
type Metadata struct {
	Title       string
	Creator     []string
	Description string
	Language    string
	Identifier  string
	Publisher   string
	Date        string

	// withText records the element names whose first occurrence had any
	// character data, even if it trimmed to nothing.
	withText map[string]bool
}

// HasText reports whether the first element with the given local name, such
// as "title" or "creator", carried character data before trimming.
func (m Metadata) HasText(name string) bool {
	return m.withText[name]
}
