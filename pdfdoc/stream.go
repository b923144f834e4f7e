package pdfdoc

import (
	"errors"
	"fmt"

	"github.com/tsawler/bookfeed/internal/filters"
)

// ErrUnsupportedFilter is returned for stream encodings that cannot hold
// document structure, such as image codecs.
var ErrUnsupportedFilter = errors.New("pdfdoc: unsupported stream filter")

// Decode returns the decoded data of s.
func (d *Document) Decode(s *Stream) ([]byte, error) {
	return d.decode(s)
}

func (d *Document) decode(s *Stream) ([]byte, error) {
	names, err := d.filterChain(s.Dict)
	if err != nil {
		return nil, err
	}
	parms := d.decodeParms(s.Dict, len(names))

	data := s.Raw
	for i, name := range names {
		switch name {
		case "FlateDecode", "Fl":
			data, err = filters.Flate(data, d.predictor(parms[i]))
		case "ASCIIHexDecode", "AHx":
			data, err = filters.ASCIIHex(data)
		case "ASCII85Decode", "A85":
			data, err = filters.ASCII85(data)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFilter, name)
		}
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (d *Document) filterChain(dict Dict) ([]Name, error) {
	f, err := d.Resolve(dict["Filter"])
	if err != nil {
		return nil, err
	}
	switch v := f.(type) {
	case nil, Null:
		return nil, nil
	case Name:
		return []Name{v}, nil
	case Array:
		names := make([]Name, 0, len(v))
		for _, item := range v {
			item, err := d.Resolve(item)
			if err != nil {
				return nil, err
			}
			n, ok := item.(Name)
			if !ok {
				return nil, fmt.Errorf("%w: filter is %s", ErrUnsupportedFilter, typeName(item))
			}
			names = append(names, n)
		}
		return names, nil
	}
	return nil, fmt.Errorf("%w: filter is %s", ErrUnsupportedFilter, typeName(f))
}

// decodeParms returns one parameter dictionary (possibly nil) per filter.
func (d *Document) decodeParms(dict Dict, n int) []Dict {
	out := make([]Dict, n)
	p, err := d.Resolve(dict["DecodeParms"])
	if err != nil {
		return out
	}
	switch v := p.(type) {
	case Dict:
		if n > 0 {
			out[0] = v
		}
	case Array:
		for i := 0; i < n && i < len(v); i++ {
			if item, err := d.Resolve(v[i]); err == nil {
				out[i], _ = item.(Dict)
			}
		}
	}
	return out
}

func (d *Document) predictor(parms Dict) filters.Predictor {
	get := func(key Name) int {
		o, err := d.Resolve(parms[key])
		if err != nil {
			return 0
		}
		n, _ := o.(Int)
		return int(n)
	}
	return filters.Predictor{
		Predictor:        get("Predictor"),
		Colors:           get("Colors"),
		BitsPerComponent: get("BitsPerComponent"),
		Columns:          get("Columns"),
	}
}
