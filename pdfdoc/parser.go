package pdfdoc

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = errors.New("pdfdoc: syntax error")

// maxDepth bounds array and dictionary nesting.
const maxDepth = 64

// parser builds objects from tokens. length resolves a stream's /Length
// entry, which may be an indirect reference; nil means streams are read up
// to their endstream keyword.
type parser struct {
	lx      *lexer
	pending []token
	length  func(Object) (int64, bool)
}

func newParser(lx *lexer) *parser {
	return &parser{lx: lx}
}

func (p *parser) next() (token, error) {
	if n := len(p.pending); n > 0 {
		t := p.pending[n-1]
		p.pending = p.pending[:n-1]
		return t, nil
	}
	return p.lx.next()
}

// unread pushes tokens back so that the next call to next returns the last
// one given.
func (p *parser) unread(ts ...token) {
	for i := len(ts) - 1; i >= 0; i-- {
		p.pending = append(p.pending, ts[i])
	}
}

func syntaxErr(t token, format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, t.pos, fmt.Sprintf(format, args...))
}

func (p *parser) object() (Object, error) {
	return p.parse(0)
}

func (p *parser) parse(depth int) (Object, error) {
	t, err := p.next()
	if err != nil {
		return nil, err
	}
	if depth > maxDepth {
		return nil, syntaxErr(t, "nesting deeper than %d", maxDepth)
	}

	switch t.kind {
	case tokEOF:
		return nil, syntaxErr(t, "unexpected end of data")
	case tokInt:
		v, _ := strconv.ParseInt(string(t.text), 10, 64)
		return p.maybeRef(t, v)
	case tokReal:
		v, _ := strconv.ParseFloat(string(t.text), 64)
		return Real(v), nil
	case tokString:
		return String(t.text), nil
	case tokName:
		return Name(t.text), nil
	case tokArrayOpen:
		var arr Array
		for {
			n, err := p.next()
			if err != nil {
				return nil, err
			}
			if n.kind == tokArrayClose {
				return arr, nil
			}
			p.unread(n)
			v, err := p.parse(depth + 1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
	case tokDictOpen:
		d := make(Dict)
		for {
			k, err := p.next()
			if err != nil {
				return nil, err
			}
			if k.kind == tokDictClose {
				return d, nil
			}
			if k.kind != tokName {
				return nil, syntaxErr(k, "dictionary key is not a name")
			}
			v, err := p.parse(depth + 1)
			if err != nil {
				return nil, err
			}
			d[Name(k.text)] = v
		}
	case tokKeyword:
		switch string(t.text) {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		case "null":
			return Null{}, nil
		}
	}
	return nil, syntaxErr(t, "unexpected %q", t.text)
}

// maybeRef turns "num gen R" into a Ref and leaves other integers alone.
func (p *parser) maybeRef(first token, v int64) (Object, error) {
	second, err := p.next()
	if err != nil {
		return nil, err
	}
	if second.kind != tokInt {
		p.unread(second)
		return Int(v), nil
	}
	third, err := p.next()
	if err != nil {
		return nil, err
	}
	if !third.is("R") {
		p.unread(second, third)
		return Int(v), nil
	}
	gen, _ := strconv.Atoi(string(second.text))
	return Ref{Num: int(v), Gen: gen}, nil
}

// indirect parses "num gen obj ... endobj" and returns the reference it
// defines together with the object.
func (p *parser) indirect() (Ref, Object, error) {
	var nums [2]int
	for i := range nums {
		t, err := p.next()
		if err != nil {
			return Ref{}, nil, err
		}
		if t.kind != tokInt {
			return Ref{}, nil, syntaxErr(t, "expected object number")
		}
		nums[i], _ = strconv.Atoi(string(t.text))
	}
	ref := Ref{Num: nums[0], Gen: nums[1]}

	t, err := p.next()
	if err != nil {
		return ref, nil, err
	}
	if !t.is("obj") {
		return ref, nil, syntaxErr(t, "expected obj keyword")
	}

	obj, err := p.object()
	if err != nil {
		return ref, nil, err
	}

	t, err = p.next()
	if err != nil {
		return ref, nil, err
	}
	if !t.is("stream") {
		// endobj is optional in practice; nothing after it is read.
		return ref, obj, nil
	}

	dict, ok := obj.(Dict)
	if !ok {
		return ref, nil, syntaxErr(t, "stream without dictionary")
	}
	length := int64(-1)
	if p.length != nil {
		if n, ok := p.length(dict["Length"]); ok && n >= 0 {
			length = n
		}
	}
	if len(p.pending) > 0 {
		return ref, nil, syntaxErr(t, "unexpected token before stream data")
	}
	raw, err := p.lx.streamBody(length)
	if err != nil {
		return ref, nil, err
	}
	return ref, &Stream{Dict: dict, Raw: raw}, nil
}
