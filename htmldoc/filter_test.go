package htmldoc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text unchanged", "Just a story.", "Just a story."},
		{"ampersand without markup unchanged", "AT&amp;T", "AT&amp;T"},
		{"simple tags", "Hello <b>world</b>", "Hello world"},
		{"paragraphs", "<p>One.</p><p>Two.</p>", "One.Two."},
		{"escaped markup", "a &lt;b&gt; c", "a <b> c"},
		{"entities decoded with tags", "<i>Caf&eacute; &amp; bar</i>", "Café & bar"},
		{"comments dropped", "x<!-- hidden -->y", "xy"},
		{"attributes dropped", `<a href="https://example.com">link</a>`, "link"},
		{"empty", "", ""},
		{"lone angle bracket", "1 < 2", "1 < 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filter(tt.in))
		})
	}
}

func TestHasMarkup(t *testing.T) {
	assert.True(t, HasMarkup("a <b"))
	assert.True(t, HasMarkup("a &lt; b"))
	assert.False(t, HasMarkup("a &gt; b"))
	assert.False(t, HasMarkup("plain"))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestText_ReadError(t *testing.T) {
	_, err := Text(failingReader{})
	require.Error(t, err)
}
