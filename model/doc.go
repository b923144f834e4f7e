// Package model defines the book catalog built from a directory scan.
//
// A [Book] collects every file that shares a stem ("moby-dick.epub",
// "moby-dick.pdf", "moby-dick.jpg") as an ordered list of [Link] values,
// together with the bibliographic fields merged from the files that carry
// embedded [Metadata]. A [Feed] holds the feed-level fields.
//
// # Merging
//
// Metadata is partial: an extractor only sets the fields it found. Merging a
// later result overwrites the fields it contains and leaves the others alone:
//
//	book := model.NewBook("moby-dick", id)
//	book.Merge(model.Metadata{model.FieldTitle: "Moby Dick"})
//	book.Merge(model.Metadata{model.FieldAuthor: "Herman Melville"})
//	// book.Title == "Moby Dick", book.Author == "Herman Melville"
package model
