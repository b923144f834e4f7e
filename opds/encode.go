package opds

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Encode writes root as an indented UTF-8 document with an XML declaration.
// A non-empty stylesheet adds an xml-stylesheet processing instruction
// pointing at it, so browsers render the feed through XSLT.
func Encode(w io.Writer, root *Element, stylesheet string) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(xml.Header)
	if stylesheet != "" {
		fmt.Fprintf(bw, "<?xml-stylesheet type=\"text/xsl\" href=\"%s\"?>\n", escapeAttr(stylesheet))
	}

	enc := xml.NewEncoder(bw)
	enc.Indent("", "  ")
	if err := encodeElement(enc, root, true); err != nil {
		return fmt.Errorf("opds: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("opds: %w", err)
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

func encodeElement(enc *xml.Encoder, e *Element, root bool) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Name}}
	if root {
		for _, ns := range e.Namespaces {
			name := "xmlns"
			if ns.Prefix != "" {
				name += ":" + ns.Prefix
			}
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: name}, Value: ns.URI})
		}
	}
	for _, a := range e.Attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}

	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range e.children {
		switch c := c.(type) {
		case Text:
			if err := enc.EncodeToken(xml.CharData(c)); err != nil {
				return err
			}
		case *Element:
			if err := encodeElement(enc, c, false); err != nil {
				return err
			}
		}
	}
	return enc.EncodeToken(start.End())
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;")

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
