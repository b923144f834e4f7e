package pdfdoc

import (
	"errors"
	"fmt"
	"io"

	"github.com/tsawler/bookfeed/model"
)

// Info holds the text entries of the document information dictionary, keyed
// by entry name without the slash ("Title", "Author", "Subject", ...).
// Entries whose values are not strings are left out.
type Info map[string]string

// Info returns the trailer's /Info dictionary. A document without one has an
// empty Info. Encrypted documents that need a password return an error
// wrapping ErrEncrypted.
func (d *Document) Info() (Info, error) {
	if d.securityErr != nil {
		return nil, d.securityErr
	}

	info := make(Info)
	o, err := d.Resolve(d.trailer["Info"])
	if err != nil {
		return nil, err
	}
	dict, ok := o.(Dict)
	if !ok {
		return info, nil
	}

	for k, v := range dict {
		v, err := d.Resolve(v)
		if err != nil {
			return nil, fmt.Errorf("pdfdoc: /Info /%s: %w", k, err)
		}
		if s, ok := v.(String); ok {
			info[string(k)] = s.Text()
		}
	}
	return info, nil
}

// Extract reads the title and author of a PDF. A field is present in the
// result whenever the information dictionary carries it. A document locked
// by a user password yields no fields.
func Extract(ra io.ReaderAt, size int64) (model.Metadata, error) {
	d, err := Open(ra, size)
	if err != nil {
		return nil, err
	}
	meta := make(model.Metadata)
	info, err := d.Info()
	if errors.Is(err, ErrEncrypted) {
		return meta, nil
	}
	if err != nil {
		return nil, err
	}

	if v, ok := info["Title"]; ok {
		meta[model.FieldTitle] = v
	}
	if v, ok := info["Author"]; ok {
		meta[model.FieldAuthor] = v
	}
	return meta, nil
}
