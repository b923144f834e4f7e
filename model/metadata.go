package model

// Field names one bibliographic field an extractor can report.
type Field string

const (
	FieldTitle   Field = "title"
	FieldAuthor  Field = "author"
	FieldContent Field = "content"
)

// Metadata is a partial set of bibliographic fields. A missing key means the
// source did not provide that field; an empty value is still a value.
type Metadata map[Field]string

// Get returns the value for f and whether it is present.
func (m Metadata) Get(f Field) (string, bool) {
	v, ok := m[f]
	return v, ok
}
