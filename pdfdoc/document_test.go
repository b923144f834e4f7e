package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/tsawler/bookfeed/model"
)

func basicPDF(t *testing.T, info string) *pdfBuilder {
	b := newPDF(t).
		obj(1, "<< /Type /Catalog /Pages 2 0 R >>").
		obj(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	if info != "" {
		b.obj(3, info)
	}
	return b
}

func TestExtract_ClassicTable(t *testing.T) {
	b := basicPDF(t, "<< /Title (Dune \\(Deluxe\\)) /Author "+utf16("Frank Herbert")+" /Producer (test) >>")
	b.table("/Root 1 0 R /Info 3 0 R")

	data := b.bytes()
	meta, err := Extract(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if got := meta[model.FieldTitle]; got != "Dune (Deluxe)" {
		t.Errorf("title = %q", got)
	}
	if got := meta[model.FieldAuthor]; got != "Frank Herbert" {
		t.Errorf("author = %q", got)
	}
	if _, ok := meta.Get(model.FieldContent); ok {
		t.Error("PDF extraction should not set content")
	}
}

func TestExtract_PartialInfo(t *testing.T) {
	b := basicPDF(t, "<< /Author (Someone) >>")
	b.table("/Root 1 0 R /Info 3 0 R")

	data := b.bytes()
	meta, err := Extract(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if _, ok := meta.Get(model.FieldTitle); ok {
		t.Error("absent title must not be set")
	}
	if meta[model.FieldAuthor] != "Someone" {
		t.Errorf("author = %q", meta[model.FieldAuthor])
	}
}

func TestExtract_EmptyValueIsPresent(t *testing.T) {
	b := basicPDF(t, "<< /Title () >>")
	b.table("/Root 1 0 R /Info 3 0 R")

	data := b.bytes()
	meta, err := Extract(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if v, ok := meta.Get(model.FieldTitle); !ok || v != "" {
		t.Errorf("title = %q, %v; want empty and present", v, ok)
	}
}

func TestExtract_NoInfo(t *testing.T) {
	b := basicPDF(t, "")
	b.table("/Root 1 0 R")

	data := b.bytes()
	meta, err := Extract(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(meta) != 0 {
		t.Errorf("meta = %v, want empty", meta)
	}
}

func TestExtract_Errors(t *testing.T) {
	noStartXRef := basicPDF(t, "<< /Title (x) >>")

	badOffset := basicPDF(t, "<< /Title (x) >>")
	badOffset.buf.WriteString("startxref\n999999\n%%EOF\n")

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"not a pdf", []byte("hello, world"), ErrNotPDF},
		{"empty", nil, ErrNotPDF},
		{"no startxref", noStartXRef.bytes(), ErrNoStartXRef},
		{"startxref beyond file", badOffset.bytes(), ErrBadXRef},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(bytes.NewReader(tt.data), int64(len(tt.data)))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpen_XRefStreamWithObjectStream(t *testing.T) {
	b := newPDF(t)
	compressed := b.objectStream(5, map[int]string{
		1: "<< /Type /Catalog /Pages 2 0 R >>",
		2: "<< /Type /Pages /Kids [] /Count 0 >>",
		3: "<< /Title (Compressed Title) /Author (Packed Author) >>",
	})
	b.xrefStream(6, "/Root 1 0 R /Info 3 0 R", compressed)

	d, err := b.open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	info, err := d.Info()
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info["Title"] != "Compressed Title" {
		t.Errorf("Title = %q", info["Title"])
	}
	if info["Author"] != "Packed Author" {
		t.Errorf("Author = %q", info["Author"])
	}

	root, err := d.Resolve(d.Trailer()["Root"])
	if err != nil {
		t.Fatalf("Resolve root: %v", err)
	}
	if typ, _ := root.(Dict).Name("Type"); typ != "Catalog" {
		t.Errorf("root type = %q", typ)
	}
}

func TestOpen_IncrementalUpdateWins(t *testing.T) {
	b := basicPDF(t, "<< /Title (Old Title) /Author (Kept Author) >>")
	first := b.table("/Root 1 0 R /Info 3 0 R")
	b.obj(3, "<< /Title (New Title) /Author (Kept Author) >>")
	b.update(fmt.Sprintf("/Root 1 0 R /Info 3 0 R /Prev %d", first), 3)

	d, err := b.open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	info, err := d.Info()
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info["Title"] != "New Title" {
		t.Errorf("Title = %q, want the updated value", info["Title"])
	}

	// Objects only listed in the older section are still reachable.
	pages, err := d.Resolve(Ref{Num: 2})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := pages.(Dict); !ok {
		t.Errorf("object 2 = %s, want dict", typeName(pages))
	}
}

func TestOpen_IndirectStreamLength(t *testing.T) {
	payload := []byte("BT (Hello) Tj ET")
	b := basicPDF(t, "<< /Title (Lengths) >>")
	b.offsets[4] = b.buf.Len()
	fmt.Fprintf(&b.buf, "4 0 obj\n<< /Length 5 0 R >>\nstream\n%s\nendstream\nendobj\n", payload)
	b.obj(5, fmt.Sprint(len(payload)))
	b.table("/Root 1 0 R /Info 3 0 R")

	d, err := b.open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	o, err := d.Resolve(Ref{Num: 4})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	s, ok := o.(*Stream)
	if !ok {
		t.Fatalf("object 4 = %s, want stream", typeName(o))
	}
	data, err := d.Decode(s)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("data = %q, want %q", data, payload)
	}
}

func TestResolve_Cycle(t *testing.T) {
	b := newPDF(t).obj(1, "2 0 R").obj(2, "1 0 R")
	b.table("/Root 1 0 R")

	d, err := b.open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := d.Resolve(Ref{Num: 1}); !errors.Is(err, ErrCycle) {
		t.Errorf("err = %v, want ErrCycle", err)
	}
}

func TestResolve_DanglingIsNull(t *testing.T) {
	b := basicPDF(t, "")
	b.table("/Root 1 0 R")

	d, err := b.open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	o, err := d.Resolve(Ref{Num: 42})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := o.(Null); !ok {
		t.Errorf("got %s, want null", typeName(o))
	}
	if d.Version() != "1.7" {
		t.Errorf("Version = %q", d.Version())
	}
}
