// Package thumbnail writes scaled JPEG copies of cover images for OPDS
// thumbnail links.
package thumbnail

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif" // decoders for cover formats
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/image/draw"
)

// Defaults for New.
const (
	DefaultHeight  = 240
	DefaultQuality = 85
)

// ErrDecode is returned for files that are not decodable images.
var ErrDecode = errors.New("thumbnail: cannot decode image")

// Maker writes thumbnails into a directory.
type Maker struct {
	fs      afero.Fs
	dir     string
	height  int
	quality int
}

// New returns a Maker that writes into dir, scaling images down to height
// pixels. A height of zero means DefaultHeight.
func New(fs afero.Fs, dir string, height int) *Maker {
	if height <= 0 {
		height = DefaultHeight
	}
	return &Maker{fs: fs, dir: dir, height: height, quality: DefaultQuality}
}

// Name is the thumbnail file name for a source image. The source
// extension is kept so that covers sharing a stem do not collide.
func Name(source string) string {
	return filepath.Base(source) + ".jpg"
}

// Path returns where the thumbnail for source is written.
func (m *Maker) Path(source string) string {
	return filepath.Join(m.dir, Name(source))
}

// Make writes the thumbnail for the image at source. An existing thumbnail
// at least as new as modTime is kept. Make reports whether it wrote a file.
func (m *Maker) Make(source string, modTime time.Time) (bool, error) {
	dst := m.Path(source)
	if fi, err := m.fs.Stat(dst); err == nil && !fi.ModTime().Before(modTime) {
		return false, nil
	}

	img, err := m.decode(source)
	if err != nil {
		return false, err
	}

	if err := m.fs.MkdirAll(m.dir, 0o755); err != nil {
		return false, fmt.Errorf("thumbnail: %w", err)
	}
	f, err := m.fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("thumbnail: %w", err)
	}
	if err := jpeg.Encode(f, Scale(img, m.height), &jpeg.Options{Quality: m.quality}); err != nil {
		f.Close()
		return false, fmt.Errorf("thumbnail: encoding %s: %w", dst, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("thumbnail: %w", err)
	}
	return true, nil
}

func (m *Maker) decode(source string) (image.Image, error) {
	f, err := m.fs.Open(source)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, source, err)
	}
	return img, nil
}

// Scale returns img resized to height pixels with its aspect ratio kept.
// Images already no taller than height are only copied.
func Scale(img image.Image, height int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if h > height && h > 0 {
		w = max(1, w*height/h)
		h = height
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
