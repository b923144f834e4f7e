package epubdoc

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// ContainerPath is the fixed location of the OCF container descriptor.
const ContainerPath = "META-INF/container.xml"

// Container-related errors.
var (
	ErrNoContainer      = errors.New("epub: missing META-INF/container.xml")
	ErrInvalidContainer = errors.New("epub: invalid container.xml")
	ErrNoRootfile       = errors.New("epub: no rootfile found in container.xml")
)

// containerXML represents the structure of META-INF/container.xml.
type containerXML struct {
	XMLName   xml.Name   `xml:"container"`
	Rootfiles []rootfile `xml:"rootfiles>rootfile"`
}

type rootfile struct {
	FullPath string `xml:"full-path,attr"`
}

// parseContainer parses META-INF/container.xml and returns the path of the
// first rootfile that names a package document.
func parseContainer(zr *zip.Reader) (string, error) {
	data, err := readFile(zr, ContainerPath)
	if errors.Is(err, errNotInArchive) {
		return "", ErrNoContainer
	}
	if err != nil {
		return "", err
	}

	var container containerXML
	if err := newDecoder(data).Decode(&container); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidContainer, err)
	}

	for _, rf := range container.Rootfiles {
		if rf.FullPath != "" {
			return rf.FullPath, nil
		}
	}

	return "", ErrNoRootfile
}

var errNotInArchive = errors.New("epub: file not in archive")

// readFile reads a named entry from the archive.
func readFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("epub: opening %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("epub: reading %s: %w", name, err)
		}
		return data, nil
	}
	return nil, errNotInArchive
}
