package pdfdoc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokInt
	tokReal
	tokString
	tokName
	tokKeyword
	tokArrayOpen
	tokArrayClose
	tokDictOpen
	tokDictClose
)

type token struct {
	kind tokenKind
	text []byte // decoded bytes for strings and names, raw text otherwise
	pos  int64
}

func (t token) is(keyword string) bool {
	return t.kind == tokKeyword && string(t.text) == keyword
}

// lexer splits PDF syntax into tokens. pos is the absolute file offset of the
// next unread byte.
type lexer struct {
	r   *bufio.Reader
	pos int64
}

func newLexer(r io.Reader, pos int64) *lexer {
	return &lexer{r: bufio.NewReader(r), pos: pos}
}

// lexerAt starts a lexer at off within a file of the given size.
func lexerAt(ra io.ReaderAt, off, size int64) *lexer {
	return newLexer(io.NewSectionReader(ra, off, size-off), off)
}

func isSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *lexer) readByte() (byte, error) {
	c, err := l.r.ReadByte()
	if err == nil {
		l.pos++
	}
	return c, err
}

func (l *lexer) unreadByte() {
	if l.r.UnreadByte() == nil {
		l.pos--
	}
}

func (l *lexer) peekByte() (byte, error) {
	b, err := l.r.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// skipSpace consumes whitespace and comments.
func (l *lexer) skipSpace() error {
	for {
		c, err := l.readByte()
		if err != nil {
			return err
		}
		switch {
		case isSpace(c):
		case c == '%':
			for c != '\n' && c != '\r' {
				if c, err = l.readByte(); err != nil {
					return err
				}
			}
		default:
			l.unreadByte()
			return nil
		}
	}
}

func (l *lexer) next() (token, error) {
	if err := l.skipSpace(); err != nil {
		if errors.Is(err, io.EOF) {
			return token{kind: tokEOF, pos: l.pos}, nil
		}
		return token{}, err
	}

	start := l.pos
	c, err := l.readByte()
	if err != nil {
		return token{}, err
	}

	switch c {
	case '[':
		return token{kind: tokArrayOpen, pos: start}, nil
	case ']':
		return token{kind: tokArrayClose, pos: start}, nil
	case '(':
		s, err := l.literalString()
		return token{kind: tokString, text: s, pos: start}, err
	case '<':
		if n, err := l.peekByte(); err == nil && n == '<' {
			l.readByte()
			return token{kind: tokDictOpen, pos: start}, nil
		}
		s, err := l.hexString()
		return token{kind: tokString, text: s, pos: start}, err
	case '>':
		if n, err := l.readByte(); err != nil || n != '>' {
			return token{}, fmt.Errorf("pdfdoc: stray '>' at offset %d", start)
		}
		return token{kind: tokDictClose, pos: start}, nil
	case '/':
		n, err := l.name()
		return token{kind: tokName, text: n, pos: start}, err
	}

	l.unreadByte()
	word, err := l.regular()
	if err != nil {
		return token{}, err
	}
	if len(word) == 0 {
		// A lone ')', '{' or '}'. None of them matter for metadata.
		l.readByte()
		return token{kind: tokKeyword, text: []byte{c}, pos: start}, nil
	}

	if c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') {
		if bytes.IndexByte(word, '.') >= 0 {
			if _, err := strconv.ParseFloat(string(word), 64); err == nil {
				return token{kind: tokReal, text: word, pos: start}, nil
			}
		} else if _, err := strconv.ParseInt(string(word), 10, 64); err == nil {
			return token{kind: tokInt, text: word, pos: start}, nil
		}
	}
	return token{kind: tokKeyword, text: word, pos: start}, nil
}

// regular reads a run of regular characters.
func (l *lexer) regular() ([]byte, error) {
	var word []byte
	for {
		c, err := l.readByte()
		if errors.Is(err, io.EOF) {
			return word, nil
		}
		if err != nil {
			return nil, err
		}
		if isSpace(c) || isDelim(c) {
			l.unreadByte()
			return word, nil
		}
		word = append(word, c)
	}
}

func (l *lexer) name() ([]byte, error) {
	raw, err := l.regular()
	if err != nil {
		return nil, err
	}
	if bytes.IndexByte(raw, '#') < 0 {
		return raw, nil
	}

	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '#' && i+2 < len(raw) {
			if v, err := strconv.ParseUint(string(raw[i+1:i+3]), 16, 8); err == nil {
				out = append(out, byte(v))
				i += 2
				continue
			}
		}
		out = append(out, raw[i])
	}
	return out, nil
}

func (l *lexer) literalString() ([]byte, error) {
	var out []byte
	depth := 1
	for {
		c, err := l.readByte()
		if err != nil {
			return nil, fmt.Errorf("pdfdoc: unterminated string: %w", err)
		}

		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return out, nil
			}
		case '\r':
			// End-of-line sequences inside strings read as a single newline.
			if n, err := l.peekByte(); err == nil && n == '\n' {
				l.readByte()
			}
			c = '\n'
		case '\\':
			if c, err = l.readByte(); err != nil {
				return nil, fmt.Errorf("pdfdoc: unterminated string: %w", err)
			}
			switch c {
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			case '\r':
				if n, err := l.peekByte(); err == nil && n == '\n' {
					l.readByte()
				}
				continue
			case '\n':
				continue
			case '0', '1', '2', '3', '4', '5', '6', '7':
				v := int(c - '0')
				for i := 0; i < 2; i++ {
					n, err := l.peekByte()
					if err != nil || n < '0' || n > '7' {
						break
					}
					l.readByte()
					v = v*8 + int(n-'0')
				}
				c = byte(v)
			}
			// Any other escaped character stands for itself.
		}
		out = append(out, c)
	}
}

func (l *lexer) hexString() ([]byte, error) {
	var digits []byte
	for {
		c, err := l.readByte()
		if err != nil {
			return nil, fmt.Errorf("pdfdoc: unterminated hex string: %w", err)
		}
		if c == '>' {
			break
		}
		if !isSpace(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	out := make([]byte, len(digits)/2)
	for i := range out {
		v, err := strconv.ParseUint(string(digits[2*i:2*i+2]), 16, 8)
		if err != nil {
			return nil, fmt.Errorf("pdfdoc: bad hex string: %w", err)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// streamBody reads the data following a "stream" keyword. A negative length
// means the /Length entry was unusable and the data runs to "endstream".
func (l *lexer) streamBody(length int64) ([]byte, error) {
	// The keyword is followed by CRLF or LF; a lone CR is tolerated.
	if c, err := l.readByte(); err == nil {
		if c == '\r' {
			if n, err := l.peekByte(); err == nil && n == '\n' {
				l.readByte()
			}
		} else if c != '\n' {
			l.unreadByte()
		}
	}

	if length >= 0 {
		data := make([]byte, length)
		n, err := io.ReadFull(l.r, data)
		l.pos += int64(n)
		if err == nil {
			return data, nil
		}
		return nil, fmt.Errorf("pdfdoc: short stream: %w", err)
	}

	marker := []byte("endstream")
	var data []byte
	for {
		c, err := l.readByte()
		if err != nil {
			return nil, fmt.Errorf("pdfdoc: missing endstream: %w", err)
		}
		data = append(data, c)
		if bytes.HasSuffix(data, marker) {
			data = data[:len(data)-len(marker)]
			data = bytes.TrimSuffix(data, []byte("\n"))
			data = bytes.TrimSuffix(data, []byte("\r"))
			return data, nil
		}
	}
}
