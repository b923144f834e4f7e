package pdfdoc

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
)

var errCiphertext = errors.New("pdfdoc: malformed AES ciphertext")

// passwordPad completes passwords shorter than 32 bytes. The empty password
// pads to exactly this string.
var passwordPad = []byte{
	0x28, 0xbf, 0x4e, 0x5e, 0x4e, 0x75, 0x8a, 0x41,
	0x64, 0x00, 0x4e, 0x56, 0xff, 0xfa, 0x01, 0x08,
	0x2e, 0x2e, 0x00, 0xb6, 0xd0, 0x68, 0x3e, 0x80,
	0x2f, 0x0c, 0xa9, 0xfe, 0x64, 0x53, 0x69, 0x7a,
}

type cryptMethod byte

const (
	cryptNone cryptMethod = iota
	cryptRC4
	cryptAES
)

// securityHandler decrypts strings and streams protected by the standard
// security handler, revisions 2 to 4, opened with the empty user password.
type securityHandler struct {
	key             []byte
	strF            cryptMethod
	stmF            cryptMethod
	encryptMetadata bool
	encNum          int
}

// openSecurity derives the file key from the encryption dictionary. The
// returned error wraps ErrEncrypted when the document cannot be opened
// without a password.
func (d *Document) openSecurity() (*securityHandler, error) {
	h := &securityHandler{strF: cryptRC4, stmF: cryptRC4, encryptMetadata: true, encNum: -1}
	if ref, ok := d.trailer["Encrypt"].(Ref); ok {
		h.encNum = ref.Num
	}

	o, err := d.Resolve(d.trailer["Encrypt"])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncrypted, err)
	}
	dict, ok := o.(Dict)
	if !ok {
		return nil, fmt.Errorf("%w: /Encrypt is %s", ErrEncrypted, typeName(o))
	}
	if f, _ := dict.Name("Filter"); f != "Standard" {
		return nil, fmt.Errorf("%w: unsupported security handler %q", ErrEncrypted, f)
	}

	v, _ := dict.Int("V")
	r, _ := dict.Int("R")
	if r < 2 || r > 4 {
		return nil, fmt.Errorf("%w: unsupported revision %d", ErrEncrypted, r)
	}

	length := int64(40)
	switch v {
	case 1:
	case 2:
		if l, ok := dict.Int("Length"); ok {
			length = l
		}
	case 4:
		length = 128
		if h.strF, err = d.cryptFilter(dict, "StrF"); err != nil {
			return nil, err
		}
		if h.stmF, err = d.cryptFilter(dict, "StmF"); err != nil {
			return nil, err
		}
		if b, ok := dict["EncryptMetadata"].(Bool); ok {
			h.encryptMetadata = bool(b)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported algorithm /V %d", ErrEncrypted, v)
	}
	if length < 40 || length > 128 || length%8 != 0 {
		return nil, fmt.Errorf("%w: bad key length %d", ErrEncrypted, length)
	}

	owner, err := d.stringEntry(dict, "O")
	if err != nil {
		return nil, err
	}
	user, err := d.stringEntry(dict, "U")
	if err != nil {
		return nil, err
	}
	perms, _ := dict.Int("P")

	h.key = fileKey(owner, uint32(perms), d.fileID(), r, int(length/8), h.encryptMetadata)
	if !h.userPassword(user, d.fileID(), r) {
		return nil, fmt.Errorf("%w: a user password is required", ErrEncrypted)
	}
	return h, nil
}

func (d *Document) stringEntry(dict Dict, key Name) ([]byte, error) {
	o, err := d.Resolve(dict[key])
	if err != nil {
		return nil, fmt.Errorf("%w: /%s: %w", ErrEncrypted, key, err)
	}
	s, ok := o.(String)
	if !ok || len(s) < 32 {
		return nil, fmt.Errorf("%w: bad /%s entry", ErrEncrypted, key)
	}
	return s, nil
}

// cryptFilter maps the crypt filter named by /StrF or /StmF to its method.
func (d *Document) cryptFilter(dict Dict, key Name) (cryptMethod, error) {
	name, ok := dict.Name(key)
	if !ok || name == "Identity" {
		return cryptNone, nil
	}
	o, err := d.Resolve(dict["CF"])
	if err != nil {
		return cryptNone, fmt.Errorf("%w: /CF: %w", ErrEncrypted, err)
	}
	filters, _ := o.(Dict)
	o, err = d.Resolve(filters[name])
	if err != nil {
		return cryptNone, fmt.Errorf("%w: /CF /%s: %w", ErrEncrypted, name, err)
	}
	cf, ok := o.(Dict)
	if !ok {
		return cryptNone, fmt.Errorf("%w: crypt filter %q not defined", ErrEncrypted, name)
	}
	switch m, _ := cf.Name("CFM"); m {
	case "V2":
		return cryptRC4, nil
	case "AESV2":
		return cryptAES, nil
	case "None", "":
		return cryptNone, nil
	default:
		return cryptNone, fmt.Errorf("%w: unsupported crypt filter method %q", ErrEncrypted, m)
	}
}

// fileID returns the first element of the trailer's /ID array.
func (d *Document) fileID() []byte {
	o, err := d.Resolve(d.trailer["ID"])
	if err != nil {
		return nil
	}
	ids, ok := o.(Array)
	if !ok || len(ids) == 0 {
		return nil
	}
	s, _ := ids[0].(String)
	return s
}

// fileKey computes the encryption key for the empty user password.
func fileKey(owner []byte, perms uint32, id []byte, r int64, n int, encryptMetadata bool) []byte {
	h := md5.New()
	h.Write(passwordPad)
	h.Write(owner[:32])
	var p [4]byte
	binary.LittleEndian.PutUint32(p[:], perms)
	h.Write(p[:])
	h.Write(id)
	if r >= 4 && !encryptMetadata {
		h.Write([]byte{0xff, 0xff, 0xff, 0xff})
	}
	sum := h.Sum(nil)
	if r >= 3 {
		for range 50 {
			next := md5.Sum(sum[:n])
			sum = next[:]
		}
	}
	return sum[:n]
}

// userPassword reports whether the file key reproduces the /U entry.
func (h *securityHandler) userPassword(user, id []byte, r int64) bool {
	if r == 2 {
		return bytes.Equal(rc4Crypt(h.key, passwordPad), user[:32])
	}

	sum := md5.Sum(append(slices.Clone(passwordPad), id...))
	got := rc4Crypt(h.key, sum[:])
	k := make([]byte, len(h.key))
	for i := 1; i <= 19; i++ {
		for j := range h.key {
			k[j] = h.key[j] ^ byte(i)
		}
		got = rc4Crypt(k, got)
	}
	return bytes.Equal(got, user[:16])
}

func (h *securityHandler) objectKey(num, gen int, salt bool) []byte {
	k := slices.Clone(h.key)
	k = append(k, byte(num), byte(num>>8), byte(num>>16), byte(gen), byte(gen>>8))
	if salt {
		k = append(k, "sAlT"...)
	}
	sum := md5.Sum(k)
	return sum[:min(len(h.key)+5, 16)]
}

func (h *securityHandler) decryptBytes(m cryptMethod, data []byte, num, gen int) ([]byte, error) {
	switch m {
	case cryptRC4:
		return rc4Crypt(h.objectKey(num, gen, false), data), nil
	case cryptAES:
		return aesDecrypt(h.objectKey(num, gen, true), data)
	}
	return data, nil
}

// decrypt returns a copy of o, which was stored as object num gen, with its
// strings and stream data decrypted.
func (h *securityHandler) decrypt(o Object, num, gen int) (Object, error) {
	switch v := o.(type) {
	case String:
		b, err := h.decryptBytes(h.strF, v, num, gen)
		if err != nil {
			return nil, err
		}
		return String(b), nil
	case Array:
		out := make(Array, len(v))
		for i, e := range v {
			var err error
			if out[i], err = h.decrypt(e, num, gen); err != nil {
				return nil, err
			}
		}
		return out, nil
	case Dict:
		out := make(Dict, len(v))
		for k, e := range v {
			var err error
			if out[k], err = h.decrypt(e, num, gen); err != nil {
				return nil, err
			}
		}
		return out, nil
	case *Stream:
		dict, err := h.decrypt(v.Dict, num, gen)
		if err != nil {
			return nil, err
		}
		raw := v.Raw
		if h.streamEncrypted(v.Dict) {
			if raw, err = h.decryptBytes(h.stmF, raw, num, gen); err != nil {
				return nil, err
			}
		}
		return &Stream{Dict: dict.(Dict), Raw: raw}, nil
	}
	return o, nil
}

func (h *securityHandler) streamEncrypted(dict Dict) bool {
	switch t, _ := dict.Name("Type"); t {
	case "XRef":
		return false
	case "Metadata":
		return h.encryptMetadata
	}
	return true
}

func rc4Crypt(key, data []byte) []byte {
	c, err := rc4.NewCipher(key)
	if err != nil {
		return data
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out
}

// aesDecrypt decrypts AES-128-CBC data whose first block is the IV.
func aesDecrypt(key, data []byte) ([]byte, error) {
	if len(data) <= aes.BlockSize {
		return nil, nil
	}
	if len(data)%aes.BlockSize != 0 {
		return nil, errCiphertext
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data)-aes.BlockSize)
	cipher.NewCBCDecrypter(block, data[:aes.BlockSize]).CryptBlocks(out, data[aes.BlockSize:])
	pad := int(out[len(out)-1])
	if pad == 0 || pad > aes.BlockSize {
		return nil, errCiphertext
	}
	return out[:len(out)-pad], nil
}
