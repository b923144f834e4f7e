// Package opds builds and serializes OPDS catalog feeds.
//
// A feed is a tree of Elements. Each Element holds either a single Text
// child or element children, never both; Append enforces this so that a
// finished tree always serializes without mixed content.
package opds

import "errors"

// ErrMixedContent is returned when an element would hold both text and
// child elements, or more than one text node.
var ErrMixedContent = errors.New("opds: element cannot mix text and child elements")

// Node is an *Element or a Text.
type Node interface {
	isNode()
}

// Text is character data.
type Text string

func (Text) isNode() {}

// Attr is a single attribute. Attributes keep the order they were added in.
type Attr struct {
	Name  string
	Value string
}

// Namespace is a namespace declaration. An empty Prefix declares the
// default namespace.
type Namespace struct {
	Prefix string
	URI    string
}

// Element is a named node with ordered attributes and children.
// Namespaces is only written for the root element.
type Element struct {
	Name       string
	Attrs      []Attr
	Namespaces []Namespace

	children []Node
	hasText  bool
}

func (*Element) isNode() {}

// NewElement returns an element with no children.
func NewElement(name string, attrs ...Attr) *Element {
	return &Element{Name: name, Attrs: attrs}
}

// TextElement returns an element whose only child is text.
func TextElement(name, text string, attrs ...Attr) *Element {
	e := NewElement(name, attrs...)
	e.children = []Node{Text(text)}
	e.hasText = true
	return e
}

// Append adds children in order. It fails without modifying e if the
// result would mix text and elements.
func (e *Element) Append(children ...Node) error {
	texts, elems := 0, 0
	for _, c := range children {
		if _, ok := c.(Text); ok {
			texts++
		} else {
			elems++
		}
	}

	switch {
	case texts > 1, texts == 1 && elems > 0:
		return ErrMixedContent
	case e.hasText && len(children) > 0:
		return ErrMixedContent
	case texts == 1 && len(e.children) > 0:
		return ErrMixedContent
	}

	e.children = append(e.children, children...)
	e.hasText = e.hasText || texts == 1
	return nil
}

// mustAppend is used while rendering, where the shape is fixed.
func (e *Element) mustAppend(children ...Node) *Element {
	if err := e.Append(children...); err != nil {
		panic(err)
	}
	return e
}

// Children returns the child nodes in order.
func (e *Element) Children() []Node {
	return e.children
}

// Text returns the element's text and whether it has any.
func (e *Element) Text() (string, bool) {
	if !e.hasText {
		return "", false
	}
	return string(e.children[0].(Text)), true
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Elements returns the child elements with the given name, in order.
func (e *Element) Elements(name string) []*Element {
	var out []*Element
	for _, c := range e.children {
		if el, ok := c.(*Element); ok && el.Name == name {
			out = append(out, el)
		}
	}
	return out
}
