package epubdoc

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// DCNamespace is the Dublin Core elements namespace used by OPF metadata.
const DCNamespace = "http://purl.org/dc/elements/1.1/"

// OPF-related errors.
var (
	ErrNoOPF      = errors.New("epub: missing package document (OPF)")
	ErrInvalidOPF = errors.New("epub: invalid package document")
)

type dcElement struct {
	Content string `xml:",chardata"`
}

// parseOPF reads the package document at opfPath. Dublin Core elements are
// collected wherever they appear, so EPUB 2 files that wrap them in
// <dc-metadata> are read the same way as EPUB 3 files.
func parseOPF(zr *zip.Reader, opfPath string) (*Package, error) {
	data, err := readFile(zr, opfPath)
	if errors.Is(err, errNotInArchive) {
		return nil, fmt.Errorf("%w: %s", ErrNoOPF, opfPath)
	}
	if err != nil {
		return nil, err
	}

	pkg := &Package{Path: opfPath, Metadata: Metadata{withText: make(map[string]bool)}}
	seen := make(map[string]bool)
	var (
		titles, descriptions, languages []string
		identifiers, publishers, dates  []string
		sawPackage                      bool
	)

	dec := newDecoder(data)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOPF, err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if !sawPackage {
			if se.Name.Local != "package" {
				return nil, fmt.Errorf("%w: root element is <%s>", ErrInvalidOPF, se.Name.Local)
			}
			sawPackage = true
			pkg.Version = attr(se, "version")
			continue
		}

		if se.Name.Space != DCNamespace {
			continue
		}

		var el dcElement
		if err := dec.DecodeElement(&el, &se); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOPF, err)
		}
		text := strings.TrimSpace(el.Content)
		if !seen[se.Name.Local] {
			seen[se.Name.Local] = true
			pkg.Metadata.withText[se.Name.Local] = el.Content != ""
		}

		switch se.Name.Local {
		case "title":
			titles = append(titles, text)
		case "creator":
			pkg.Metadata.Creator = append(pkg.Metadata.Creator, text)
		case "description":
			descriptions = append(descriptions, text)
		case "language":
			languages = append(languages, text)
		case "identifier":
			identifiers = append(identifiers, text)
		case "publisher":
			publishers = append(publishers, text)
		case "date":
			dates = append(dates, text)
		}
	}

	if !sawPackage {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidOPF)
	}

	pkg.Metadata.Title = first(titles)
	pkg.Metadata.Description = first(descriptions)
	pkg.Metadata.Language = first(languages)
	pkg.Metadata.Identifier = first(identifiers)
	pkg.Metadata.Publisher = first(publishers)
	pkg.Metadata.Date = first(dates)

	return pkg, nil
}

// newDecoder returns an XML decoder that understands the legacy encodings
// some older EPUBs declare.
func newDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
