package pdfdoc

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/tsawler/bookfeed/model"
)

// lock describes how a test document is protected. The owner password is
// always "owner".
type lock struct {
	v, r, bits    int
	aes           bool
	user          string
	plainMetadata bool
}

// locker encrypts fixture data the way a PDF writer would.
type locker struct {
	lock
	id, o, u, key []byte
}

const fixturePerms = -44

func padPassword(pw string) []byte {
	return append([]byte(pw), passwordPad...)[:32]
}

func xorKey(key []byte, i byte) []byte {
	out := make([]byte, len(key))
	for j := range key {
		out[j] = key[j] ^ i
	}
	return out
}

func newLocker(l lock) *locker {
	lk := &locker{lock: l, id: []byte("0123456789abcdef")}
	n := l.bits / 8

	okey := md5.Sum(padPassword("owner"))
	ownerKey := okey[:]
	if l.r >= 3 {
		for range 50 {
			s := md5.Sum(ownerKey[:n])
			ownerKey = s[:]
		}
	}
	ownerKey = ownerKey[:n]
	lk.o = rc4Crypt(ownerKey, padPassword(l.user))
	if l.r >= 3 {
		for i := 1; i <= 19; i++ {
			lk.o = rc4Crypt(xorKey(ownerKey, byte(i)), lk.o)
		}
	}

	h := md5.New()
	h.Write(padPassword(l.user))
	h.Write(lk.o)
	binary.Write(h, binary.LittleEndian, int32(fixturePerms))
	h.Write(lk.id)
	if l.r >= 4 && l.plainMetadata {
		h.Write([]byte{0xff, 0xff, 0xff, 0xff})
	}
	key := h.Sum(nil)
	if l.r >= 3 {
		for range 50 {
			s := md5.Sum(key[:n])
			key = s[:]
		}
	}
	lk.key = key[:n]

	if l.r == 2 {
		lk.u = rc4Crypt(lk.key, passwordPad)
	} else {
		s := md5.Sum(append(slices.Clone(passwordPad), lk.id...))
		lk.u = rc4Crypt(lk.key, s[:])
		for i := 1; i <= 19; i++ {
			lk.u = rc4Crypt(xorKey(lk.key, byte(i)), lk.u)
		}
		lk.u = append(lk.u, make([]byte, 16)...)
	}
	return lk
}

// dict returns the body of the encryption dictionary.
func (lk *locker) dict() string {
	var sb bytes.Buffer
	fmt.Fprintf(&sb, "<< /Filter /Standard /V %d /R %d /Length %d /P %d /O %s /U %s",
		lk.v, lk.r, lk.bits, fixturePerms, hexString(lk.o), hexString(lk.u))
	if lk.v == 4 {
		cfm := "V2"
		if lk.aes {
			cfm = "AESV2"
		}
		fmt.Fprintf(&sb, " /CF << /StdCF << /CFM /%s /AuthEvent /DocOpen /Length 16 >> >> /StrF /StdCF /StmF /StdCF", cfm)
		if lk.plainMetadata {
			sb.WriteString(" /EncryptMetadata false")
		}
	}
	sb.WriteString(" >>")
	return sb.String()
}

func (lk *locker) trailer() string {
	return fmt.Sprintf("/ID [%s %s] /Encrypt 4 0 R", hexString(lk.id), hexString(lk.id))
}

// seal encrypts data stored in object num with generation 0.
func (lk *locker) seal(num int, data []byte) []byte {
	k := append(slices.Clone(lk.key), byte(num), byte(num>>8), byte(num>>16), 0, 0)
	if lk.aes {
		k = append(k, "sAlT"...)
	}
	sum := md5.Sum(k)
	objKey := sum[:min(len(lk.key)+5, 16)]
	if !lk.aes {
		return rc4Crypt(objKey, data)
	}

	pad := aes.BlockSize - len(data)%aes.BlockSize
	plain := append(slices.Clone(data), bytes.Repeat([]byte{byte(pad)}, pad)...)
	iv := []byte("fixed-iv-16bytes")
	block, err := aes.NewCipher(objKey)
	if err != nil {
		panic(err)
	}
	out := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plain)
	return append(slices.Clone(iv), out...)
}

func (lk *locker) str(num int, s string) string {
	return hexString(lk.seal(num, []byte(s)))
}

func hexString(b []byte) string {
	return fmt.Sprintf("<%X>", b)
}

func lockedPDF(t *testing.T, l lock, title, author string) []byte {
	lk := newLocker(l)
	b := basicPDF(t, fmt.Sprintf("<< /Title %s /Author %s /Producer %s >>",
		lk.str(3, title), lk.str(3, author), lk.str(3, "test")))
	b.obj(4, lk.dict())
	b.table("/Root 1 0 R /Info 3 0 R " + lk.trailer())
	return b.bytes()
}

func TestExtract_EmptyUserPassword(t *testing.T) {
	tests := []struct {
		name string
		lock lock
	}{
		{"rc4 40-bit revision 2", lock{v: 1, r: 2, bits: 40}},
		{"rc4 128-bit revision 3", lock{v: 2, r: 3, bits: 128}},
		{"rc4 crypt filter revision 4", lock{v: 4, r: 4, bits: 128}},
		{"aes crypt filter revision 4", lock{v: 4, r: 4, bits: 128, aes: true}},
		{"aes with plain metadata", lock{v: 4, r: 4, bits: 128, aes: true, plainMetadata: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := lockedPDF(t, tt.lock, "Dune", "Frank Herbert")
			meta, err := Extract(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got := meta[model.FieldTitle]; got != "Dune" {
				t.Errorf("title = %q", got)
			}
			if got := meta[model.FieldAuthor]; got != "Frank Herbert" {
				t.Errorf("author = %q", got)
			}
		})
	}
}

func TestExtract_EncryptedEmptyString(t *testing.T) {
	data := lockedPDF(t, lock{v: 4, r: 4, bits: 128, aes: true}, "", "A")
	meta, err := Extract(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if v, ok := meta.Get(model.FieldTitle); !ok || v != "" {
		t.Errorf("title = %q, %v; want empty and present", v, ok)
	}
}

func TestExtract_UserPasswordYieldsNoFields(t *testing.T) {
	data := lockedPDF(t, lock{v: 2, r: 3, bits: 128, user: "secret"}, "Dune", "Frank Herbert")

	meta, err := Extract(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(meta) != 0 {
		t.Errorf("meta = %v, want empty", meta)
	}

	d, err := Open(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !d.Encrypted() {
		t.Error("Encrypted() = false")
	}
	if _, err := d.Info(); !errors.Is(err, ErrEncrypted) {
		t.Errorf("Info err = %v, want ErrEncrypted", err)
	}
}

func TestInfo_UnsupportedSecurity(t *testing.T) {
	tests := []struct {
		name    string
		encrypt string
	}{
		{"public key handler", "<< /Filter /Adobe.PubSec /V 4 /R 4 >>"},
		{"aes-256 revision", "<< /Filter /Standard /V 5 /R 6 /O <00> /U <00> /P -4 >>"},
		{"missing owner entry", "<< /Filter /Standard /V 1 /R 2 /U <00> /P -4 >>"},
		{"not a dictionary", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := basicPDF(t, "<< /Title (x) >>").obj(4, tt.encrypt)
			b.table("/Root 1 0 R /Info 3 0 R /Encrypt 4 0 R")
			d, err := b.open()
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if _, err := d.Info(); !errors.Is(err, ErrEncrypted) {
				t.Errorf("Info err = %v, want ErrEncrypted", err)
			}
		})
	}
}

func TestOpen_EncryptedObjectStream(t *testing.T) {
	lk := newLocker(lock{v: 4, r: 4, bits: 128, aes: true})

	b := newPDF(t)
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(4, lk.dict())

	// Strings inside an object stream are protected by the stream alone.
	bodies := map[int]string{
		2: "<< /Type /Pages /Kids [] /Count 0 >>",
		3: "<< /Title (Children of Dune) /Author (Frank Herbert) >>",
	}
	var header, body bytes.Buffer
	for _, n := range []int{2, 3} {
		fmt.Fprintf(&header, "%d %d ", n, body.Len())
		body.WriteString(bodies[n])
		body.WriteByte(' ')
	}
	data := append(header.Bytes(), body.Bytes()...)
	b.stream(5, fmt.Sprintf("/Type /ObjStm /N 2 /First %d /Filter /FlateDecode", header.Len()),
		lk.seal(5, deflate(t, data)))
	b.xrefStream(6, "/Root 1 0 R /Info 3 0 R "+lk.trailer(), map[int][2]int{2: {5, 0}, 3: {5, 1}})

	d, err := b.open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	info, err := d.Info()
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info["Title"] != "Children of Dune" || info["Author"] != "Frank Herbert" {
		t.Errorf("info = %v", info)
	}
}
