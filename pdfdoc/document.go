package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// Document errors.
var (
	ErrNotPDF    = errors.New("pdfdoc: not a PDF file")
	ErrEncrypted = errors.New("pdfdoc: document is encrypted")
	ErrCycle     = errors.New("pdfdoc: reference cycle")
)

// headerWindow is how far into the file the %PDF- marker may appear.
const headerWindow = 1024

// maxHops bounds chains of references to references.
const maxHops = 32

// Document gives access to the objects of a PDF file through its
// cross-reference data. It is not safe for concurrent use.
type Document struct {
	ra      io.ReaderAt
	size    int64
	version string
	xref    map[int]xrefEntry
	trailer Dict
	cache   map[int]Object
	objstms map[int]*objectStream
	loading map[int]bool
	closer  io.Closer

	security    *securityHandler
	securityErr error
}

// Open reads the header and cross-reference data of the PDF held by ra.
func Open(ra io.ReaderAt, size int64) (*Document, error) {
	d := &Document{
		ra:      ra,
		size:    size,
		xref:    make(map[int]xrefEntry),
		cache:   make(map[int]Object),
		objstms: make(map[int]*objectStream),
		loading: make(map[int]bool),
	}
	if err := d.readHeader(); err != nil {
		return nil, err
	}
	if err := d.loadXRef(); err != nil {
		return nil, err
	}
	if d.Encrypted() {
		d.security, d.securityErr = d.openSecurity()
	}
	return d, nil
}

// OpenFile opens the named PDF file. Close releases it.
func OpenFile(name string) (*Document, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	d, err := Open(f, fi.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	d.closer = f
	return d, nil
}

// Close releases the file opened by OpenFile. It is a no-op otherwise.
func (d *Document) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

func (d *Document) readHeader() error {
	buf := make([]byte, min(int64(headerWindow), d.size))
	n, err := d.ra.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("pdfdoc: reading header: %w", err)
	}
	buf = buf[:n]

	i := bytes.Index(buf, []byte("%PDF-"))
	if i < 0 {
		return ErrNotPDF
	}
	v := buf[i+5:]
	end := 0
	for end < len(v) && (v[end] == '.' || (v[end] >= '0' && v[end] <= '9')) {
		end++
	}
	d.version = string(v[:end])
	return nil
}

// Version returns the version from the file header, such as "1.7".
func (d *Document) Version() string {
	return d.version
}

// Trailer returns the trailer dictionary of the newest revision.
func (d *Document) Trailer() Dict {
	return d.trailer
}

// Encrypted reports whether the trailer names an encryption dictionary.
// Documents using the standard security handler with an empty user password
// are decrypted transparently.
func (d *Document) Encrypted() bool {
	_, ok := d.trailer["Encrypt"]
	return ok
}

// Resolve follows references until it reaches a direct object. Dangling
// references resolve to Null.
func (d *Document) Resolve(o Object) (Object, error) {
	for range maxHops {
		ref, ok := o.(Ref)
		if !ok {
			return o, nil
		}
		var err error
		if o, err = d.object(ref.Num); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: more than %d hops", ErrCycle, maxHops)
}

func (d *Document) object(num int) (Object, error) {
	if o, ok := d.cache[num]; ok {
		return o, nil
	}
	e, ok := d.xref[num]
	if !ok || e.kind == entryFree {
		return Null{}, nil
	}
	if d.loading[num] {
		return nil, fmt.Errorf("%w: object %d", ErrCycle, num)
	}
	d.loading[num] = true
	defer delete(d.loading, num)

	var (
		o   Object
		err error
	)
	switch e.kind {
	case entryOffset:
		o, err = d.objectAt(num, e.a)
		if err == nil && d.security != nil && num != d.security.encNum {
			o, err = d.security.decrypt(o, num, e.b)
		}
	case entryCompressed:
		o, err = d.compressedObject(num, int(e.a), e.b)
	}
	if err != nil {
		return nil, fmt.Errorf("pdfdoc: object %d: %w", num, err)
	}
	d.cache[num] = o
	return o, nil
}

func (d *Document) objectAt(num int, off int64) (Object, error) {
	if off <= 0 || off >= d.size {
		return nil, fmt.Errorf("%w: offset %d outside file", ErrBadXRef, off)
	}
	p := newParser(lexerAt(d.ra, off, d.size))
	p.length = d.lengthOf

	ref, o, err := p.indirect()
	if err != nil {
		return nil, err
	}
	if ref.Num != num {
		return nil, fmt.Errorf("%w: found object %d at offset %d", ErrBadXRef, ref.Num, off)
	}
	return o, nil
}

// lengthOf resolves a /Length entry. While the cross-reference data is still
// loading an indirect length may be unresolvable; the caller then falls back
// to scanning for endstream.
func (d *Document) lengthOf(o Object) (int64, bool) {
	o, err := d.Resolve(o)
	if err != nil {
		return 0, false
	}
	n, ok := o.(Int)
	return int64(n), ok
}
