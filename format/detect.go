package format

import (
	"errors"
	"fmt"
	"strings"
)

// Registry-related errors.
var (
	ErrEmptySuffix     = errors.New("format: empty suffix")
	ErrDuplicateSuffix = errors.New("format: duplicate suffix")
)

// Registry is an ordered set of descriptors. A file name is classified by the
// longest registered suffix it ends with, so multi-part suffixes such as
// ".kepub.epub" always win over the bare extension they contain.
type Registry struct {
	descriptors []Descriptor
}

// NewRegistry creates a registry from descriptors given in priority order.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	seen := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		if d.Suffix == "" {
			return nil, ErrEmptySuffix
		}
		if seen[d.Suffix] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSuffix, d.Suffix)
		}
		seen[d.Suffix] = true
	}

	r := &Registry{descriptors: make([]Descriptor, len(descriptors))}
	copy(r.descriptors, descriptors)
	return r, nil
}

// Descriptors returns the registered descriptors in priority order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Lookup returns the descriptor registered for exactly this suffix.
func (r *Registry) Lookup(suffix string) (*Descriptor, bool) {
	for i := range r.descriptors {
		if r.descriptors[i].Suffix == suffix {
			return &r.descriptors[i], true
		}
	}
	return nil, false
}

// Classify finds the descriptor for a file name and returns it together with
// the stem (the name with the matched suffix removed). The stem may be empty
// when the suffix is the whole name. ok is false for unrecognized files.
//
// The returned descriptor points into the registry and must not be modified.
func (r *Registry) Classify(name string) (d *Descriptor, stem string, ok bool) {
	best := -1
	for i := range r.descriptors {
		suffix := r.descriptors[i].Suffix
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		// Ties cannot happen: suffixes are unique, and two distinct suffixes of
		// the same name with equal length would be equal.
		if best < 0 || len(suffix) > len(r.descriptors[best].Suffix) {
			best = i
		}
	}
	if best < 0 {
		return nil, "", false
	}

	d = &r.descriptors[best]
	return d, strings.TrimSuffix(name, d.Suffix), true
}
