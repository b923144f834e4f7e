package pdfdoc

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"sort"
	"testing"
)

// pdfBuilder assembles small PDF files with correct offsets for tests.
type pdfBuilder struct {
	t       *testing.T
	buf     bytes.Buffer
	offsets map[int]int
}

func newPDF(t *testing.T) *pdfBuilder {
	t.Helper()
	b := &pdfBuilder{t: t, offsets: make(map[int]int)}
	b.buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	return b
}

func (b *pdfBuilder) obj(num int, body string) *pdfBuilder {
	b.offsets[num] = b.buf.Len()
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
	return b
}

func (b *pdfBuilder) stream(num int, dict string, data []byte) *pdfBuilder {
	b.offsets[num] = b.buf.Len()
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n", num, dict, len(data))
	b.buf.Write(data)
	b.buf.WriteString("\nendstream\nendobj\n")
	return b
}

func (b *pdfBuilder) maxNum() int {
	n := 0
	for num := range b.offsets {
		n = max(n, num)
	}
	return n
}

// table appends a classic cross-reference table covering every object
// written so far, followed by the trailer. It returns the table's offset.
func (b *pdfBuilder) table(trailer string) int {
	start := b.buf.Len()
	size := b.maxNum() + 1
	fmt.Fprintf(&b.buf, "xref\n0 %d\n", size)
	for num := 0; num < size; num++ {
		if off, ok := b.offsets[num]; ok {
			fmt.Fprintf(&b.buf, "%010d 00000 n \n", off)
		} else {
			b.buf.WriteString("0000000000 65535 f \n")
		}
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d %s >>\nstartxref\n%d\n%%%%EOF\n", size, trailer, start)
	return start
}

// update appends an incremental-update table listing only nums.
func (b *pdfBuilder) update(trailer string, nums ...int) int {
	start := b.buf.Len()
	b.buf.WriteString("xref\n")
	for _, num := range nums {
		fmt.Fprintf(&b.buf, "%d 1\n%010d 00000 n \n", num, b.offsets[num])
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d %s >>\nstartxref\n%d\n%%%%EOF\n", b.maxNum()+1, trailer, start)
	return start
}

// objectStream stores bodies compressed inside stream object num and
// returns the xref entries for them.
func (b *pdfBuilder) objectStream(num int, bodies map[int]string) map[int][2]int {
	nums := make([]int, 0, len(bodies))
	for n := range bodies {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var header, body bytes.Buffer
	entries := make(map[int][2]int)
	for i, n := range nums {
		fmt.Fprintf(&header, "%d %d ", n, body.Len())
		body.WriteString(bodies[n])
		body.WriteByte(' ')
		entries[n] = [2]int{num, i}
	}

	data := append(header.Bytes(), body.Bytes()...)
	b.stream(num, fmt.Sprintf("/Type /ObjStm /N %d /First %d /Filter /FlateDecode", len(nums), header.Len()), deflate(b.t, data))
	return entries
}

// xrefStream appends a cross-reference stream as object num. compressed
// lists objects stored in object streams.
func (b *pdfBuilder) xrefStream(num int, trailer string, compressed map[int][2]int) {
	start := b.buf.Len()
	b.offsets[num] = start

	size := max(b.maxNum(), num) + 1
	for n := range compressed {
		size = max(size, n+1)
	}

	var rows bytes.Buffer
	for n := 0; n < size; n++ {
		row := make([]byte, 7)
		switch {
		case hasKey(compressed, n):
			row[0] = 2
			binary.BigEndian.PutUint32(row[1:5], uint32(compressed[n][0]))
			binary.BigEndian.PutUint16(row[5:7], uint16(compressed[n][1]))
		case b.offsets[n] != 0:
			row[0] = 1
			binary.BigEndian.PutUint32(row[1:5], uint32(b.offsets[n]))
		}
		rows.Write(row)
	}

	data := deflate(b.t, rows.Bytes())
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 2] /Filter /FlateDecode /Length %d %s >>\nstream\n",
		num, size, len(data), trailer)
	b.buf.Write(data)
	fmt.Fprintf(&b.buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", start)
}

func hasKey(m map[int][2]int, k int) bool {
	_, ok := m[k]
	return ok
}

func (b *pdfBuilder) bytes() []byte {
	return b.buf.Bytes()
}

func (b *pdfBuilder) open() (*Document, error) {
	data := b.bytes()
	return Open(bytes.NewReader(data), int64(len(data)))
}

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// utf16 encodes s as a hex string with a big-endian byte order mark.
func utf16(s string) string {
	var sb bytes.Buffer
	sb.WriteString("<FEFF")
	for _, r := range s {
		fmt.Fprintf(&sb, "%04X", r)
	}
	sb.WriteString(">")
	return sb.String()
}
