package pdfdoc

import (
	"fmt"
	"strconv"
)

// Object is any PDF object: Null, Bool, Int, Real, String, Name, Array,
// Dict, *Stream or Ref.
type Object interface{}

// Null is the PDF null object.
type Null struct{}

// Bool is a PDF boolean.
type Bool bool

// Int is a PDF integer.
type Int int64

// Real is a PDF real number.
type Real float64

// String holds the raw bytes of a literal or hexadecimal string.
type String []byte

// Text decodes the string as a PDF text string.
func (s String) Text() string {
	return DecodeText(s)
}

// Name is a PDF name without its leading slash.
type Name string

// Array is a PDF array.
type Array []Object

// Dict is a PDF dictionary.
type Dict map[Name]Object

// Int returns the integer stored under key.
func (d Dict) Int(key Name) (int64, bool) {
	switch v := d[key].(type) {
	case Int:
		return int64(v), true
	case Real:
		return int64(v), true
	}
	return 0, false
}

// Name returns the name stored under key.
func (d Dict) Name(key Name) (Name, bool) {
	n, ok := d[key].(Name)
	return n, ok
}

// Stream is a dictionary followed by raw, still encoded, data.
type Stream struct {
	Dict Dict
	Raw  []byte
}

// Ref is an indirect reference.
type Ref struct {
	Num int
	Gen int
}

func (r Ref) String() string {
	return strconv.Itoa(r.Num) + " " + strconv.Itoa(r.Gen) + " R"
}

// typeName is used in error messages.
func typeName(o Object) string {
	switch o.(type) {
	case nil, Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Real:
		return "real"
	case String:
		return "string"
	case Name:
		return "name"
	case Array:
		return "array"
	case Dict:
		return "dict"
	case *Stream:
		return "stream"
	case Ref:
		return "ref"
	}
	return fmt.Sprintf("%T", o)
}
