package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Cross-reference errors.
var (
	ErrNoStartXRef = errors.New("pdfdoc: startxref not found")
	ErrBadXRef     = errors.New("pdfdoc: malformed cross-reference data")
)

type entryKind byte

const (
	entryFree entryKind = iota
	entryOffset
	entryCompressed
)

// xrefEntry locates one object. For entryOffset, a is the byte offset and b
// the generation. For entryCompressed, a is the object stream number and b
// the index within it.
type xrefEntry struct {
	kind entryKind
	a    int64
	b    int
}

// tailSize is how much of the end of the file is searched for startxref.
const tailSize = 2048

func (d *Document) findStartXRef() (int64, error) {
	n := min(int64(tailSize), d.size)
	buf := make([]byte, n)
	if _, err := d.ra.ReadAt(buf, d.size-n); err != nil {
		return 0, fmt.Errorf("pdfdoc: reading trailer: %w", err)
	}

	i := bytes.LastIndex(buf, []byte("startxref"))
	if i < 0 {
		return 0, ErrNoStartXRef
	}
	rest := bytes.TrimLeft(buf[i+len("startxref"):], "\x00\t\n\f\r ")
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	off, err := strconv.ParseInt(string(rest[:end]), 10, 64)
	if err != nil || off <= 0 || off >= d.size {
		return 0, fmt.Errorf("%w: startxref offset %q", ErrBadXRef, rest[:end])
	}
	return off, nil
}

// loadXRef reads the newest section and follows /Prev links back through
// incremental updates. Entries from newer sections take precedence.
func (d *Document) loadXRef() error {
	start, err := d.findStartXRef()
	if err != nil {
		return err
	}

	seen := make(map[int64]bool)
	for off := start; off > 0 && !seen[off]; {
		seen[off] = true

		trailer, err := d.readSection(off)
		if err != nil {
			return err
		}
		if d.trailer == nil {
			d.trailer = trailer
		}

		// Hybrid files keep compressed entries in a separate stream.
		if stm, ok := trailer.Int("XRefStm"); ok && !seen[stm] {
			seen[stm] = true
			if _, err := d.readSection(stm); err != nil {
				return err
			}
		}

		prev, ok := trailer.Int("Prev")
		if !ok {
			break
		}
		off = prev
	}
	return nil
}

func (d *Document) setEntry(num int, e xrefEntry) {
	if num < 0 {
		return
	}
	if _, ok := d.xref[num]; !ok {
		d.xref[num] = e
	}
}

// readSection parses whichever kind of cross-reference section sits at off
// and returns its trailer dictionary.
func (d *Document) readSection(off int64) (Dict, error) {
	if off < 0 || off >= d.size {
		return nil, fmt.Errorf("%w: offset %d outside file", ErrBadXRef, off)
	}
	p := newParser(lexerAt(d.ra, off, d.size))

	t, err := p.next()
	if err != nil {
		return nil, err
	}
	if t.is("xref") {
		return d.readTable(p)
	}
	p.unread(t)
	return d.readStream(p)
}

func (d *Document) readTable(p *parser) (Dict, error) {
	for {
		t, err := p.next()
		if err != nil {
			return nil, err
		}
		if t.is("trailer") {
			obj, err := p.object()
			if err != nil {
				return nil, err
			}
			trailer, ok := obj.(Dict)
			if !ok {
				return nil, fmt.Errorf("%w: trailer is %s", ErrBadXRef, typeName(obj))
			}
			return trailer, nil
		}

		t2, err := p.next()
		if err != nil {
			return nil, err
		}
		if t.kind != tokInt || t2.kind != tokInt {
			return nil, fmt.Errorf("%w: bad subsection header at offset %d", ErrBadXRef, t.pos)
		}
		first, _ := strconv.Atoi(string(t.text))
		count, _ := strconv.Atoi(string(t2.text))

		for i := 0; i < count; i++ {
			var f [3]token
			for j := range f {
				if f[j], err = p.next(); err != nil {
					return nil, err
				}
			}
			if f[0].kind != tokInt || f[1].kind != tokInt || f[2].kind != tokKeyword {
				return nil, fmt.Errorf("%w: bad entry at offset %d", ErrBadXRef, f[0].pos)
			}
			if string(f[2].text) != "n" {
				d.setEntry(first+i, xrefEntry{kind: entryFree})
				continue
			}
			offset, _ := strconv.ParseInt(string(f[0].text), 10, 64)
			gen, _ := strconv.Atoi(string(f[1].text))
			d.setEntry(first+i, xrefEntry{kind: entryOffset, a: offset, b: gen})
		}
	}
}

func (d *Document) readStream(p *parser) (Dict, error) {
	p.length = d.lengthOf
	_, obj, err := p.indirect()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadXRef, err)
	}
	s, ok := obj.(*Stream)
	if !ok {
		return nil, fmt.Errorf("%w: expected xref stream, got %s", ErrBadXRef, typeName(obj))
	}
	if t, _ := s.Dict.Name("Type"); t != "XRef" {
		return nil, fmt.Errorf("%w: stream type %q", ErrBadXRef, t)
	}

	w, err := ints(s.Dict["W"])
	if err != nil || len(w) != 3 || w[0] > 8 || w[1] > 8 || w[2] > 8 {
		return nil, fmt.Errorf("%w: bad /W", ErrBadXRef)
	}
	var index []int64
	if idx, ok := s.Dict["Index"]; ok {
		if index, err = ints(idx); err != nil || len(index)%2 != 0 {
			return nil, fmt.Errorf("%w: bad /Index", ErrBadXRef)
		}
	} else {
		size, _ := s.Dict.Int("Size")
		index = []int64{0, size}
	}

	data, err := d.decode(s)
	if err != nil {
		return nil, err
	}

	width := int(w[0] + w[1] + w[2])
	if width <= 0 {
		return nil, fmt.Errorf("%w: zero-width entries", ErrBadXRef)
	}
	for i := 0; i+1 < len(index); i += 2 {
		first, count := index[i], index[i+1]
		for j := int64(0); j < count; j++ {
			if len(data) < width {
				return s.Dict, nil
			}
			row := data[:width]
			data = data[width:]

			kind := int64(1)
			if w[0] > 0 {
				kind = field(row[:w[0]])
			}
			a := field(row[w[0] : w[0]+w[1]])
			b := field(row[w[0]+w[1]:])

			num := int(first + j)
			switch kind {
			case 0:
				d.setEntry(num, xrefEntry{kind: entryFree})
			case 1:
				d.setEntry(num, xrefEntry{kind: entryOffset, a: a, b: int(b)})
			case 2:
				d.setEntry(num, xrefEntry{kind: entryCompressed, a: a, b: int(b)})
			}
			// Unknown types are references to null.
		}
	}
	return s.Dict, nil
}

// field reads a big-endian unsigned integer.
func field(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

func ints(o Object) ([]int64, error) {
	arr, ok := o.(Array)
	if !ok {
		return nil, fmt.Errorf("expected array, got %s", typeName(o))
	}
	out := make([]int64, len(arr))
	for i, v := range arr {
		n, ok := v.(Int)
		if !ok || n < 0 {
			return nil, fmt.Errorf("expected non-negative integer, got %s", typeName(v))
		}
		out[i] = int64(n)
	}
	return out, nil
}
