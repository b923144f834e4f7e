// Package filters decodes the stream encodings found in PDF files that carry
// document metadata: FlateDecode (with PNG and TIFF predictors) and the two
// ASCII encodings.
//
//	decoded, err := filters.Flate(data, filters.Predictor{Predictor: 12, Columns: 5})
package filters
