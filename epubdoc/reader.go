package epubdoc

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidArchive is returned when the file is not a readable ZIP archive.
var ErrInvalidArchive = errors.New("epub: invalid or corrupted archive")

// Reader holds the parsed package document of one EPUB.
type Reader struct {
	pkg    *Package
	closer io.Closer
}

// Open reads the EPUB at filePath. Close releases the file.
func Open(filePath string) (*Reader, error) {
	rc, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	pkg, err := readPackage(&rc.Reader)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return &Reader{pkg: pkg, closer: rc}, nil
}

// OpenReader reads an EPUB of the given size from ra. The caller keeps
// ownership of ra.
func OpenReader(ra io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	pkg, err := readPackage(zr)
	if err != nil {
		return nil, err
	}
	return &Reader{pkg: pkg}, nil
}

// readPackage follows container.xml to the package document and parses it.
func readPackage(zr *zip.Reader) (*Package, error) {
	opfPath, err := parseContainer(zr)
	if err != nil {
		return nil, err
	}
	return parseOPF(zr, opfPath)
}

// Close releases the file opened by Open. It is a no-op for readers created
// with OpenReader.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Package returns the parsed package document.
func (r *Reader) Package() *Package {
	return r.pkg
}

// Metadata returns the Dublin Core fields of the package.
func (r *Reader) Metadata() Metadata {
	return r.pkg.Metadata
}
