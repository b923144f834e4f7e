// Package pdfdoc reads the document information dictionary of a PDF file.
//
// Only the structures needed to reach the trailer and the objects it points
// at are implemented: classic cross-reference tables, cross-reference
// streams, incremental updates chained through /Prev, and compressed object
// streams. Page content is never parsed.
//
// Basic usage:
//
//	doc, err := pdfdoc.Open(f, size)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	info, err := doc.Info()
//	fmt.Println(info["Title"], info["Author"])
//
// Extract wraps the above and returns the book fields directly.
package pdfdoc
