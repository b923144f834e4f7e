package filters

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// ErrPredictor is returned when predicted data does not fit its row layout.
var ErrPredictor = errors.New("filters: malformed predictor data")

// Predictor holds the /DecodeParms entries that control prediction.
// Zero values are replaced by the PDF defaults.
type Predictor struct {
	Predictor        int
	Colors           int
	BitsPerComponent int
	Columns          int
}

func (p Predictor) withDefaults() Predictor {
	if p.Predictor == 0 {
		p.Predictor = 1
	}
	if p.Colors == 0 {
		p.Colors = 1
	}
	if p.BitsPerComponent == 0 {
		p.BitsPerComponent = 8
	}
	if p.Columns == 0 {
		p.Columns = 1
	}
	return p
}

// bytesPerPixel rounds up for sub-byte samples.
func (p Predictor) bytesPerPixel() int {
	return max(1, (p.Colors*p.BitsPerComponent+7)/8)
}

func (p Predictor) rowBytes() int {
	return (p.Columns*p.Colors*p.BitsPerComponent + 7) / 8
}

// Flate inflates zlib data and undoes any predictor.
func Flate(data []byte, p Predictor) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("filters: flate: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("filters: flate: %w", err)
	}
	// Truncated streams are common; keep what was inflated.

	p = p.withDefaults()
	switch {
	case p.Predictor == 1:
		return out, nil
	case p.Predictor == 2:
		return unTIFF(out, p)
	case p.Predictor >= 10 && p.Predictor <= 15:
		return unPNG(out, p)
	default:
		return nil, fmt.Errorf("filters: unsupported predictor %d", p.Predictor)
	}
}

func unTIFF(data []byte, p Predictor) ([]byte, error) {
	if p.BitsPerComponent != 8 {
		return nil, fmt.Errorf("filters: TIFF predictor with %d bits per component", p.BitsPerComponent)
	}
	row := p.rowBytes()
	if row == 0 || len(data)%row != 0 {
		return nil, ErrPredictor
	}
	for start := 0; start < len(data); start += row {
		for i := start + p.Colors; i < start+row; i++ {
			data[i] += data[i-p.Colors]
		}
	}
	return data, nil
}

// unPNG reverses PNG filtering. Each row is prefixed by its filter type byte,
// which takes precedence over the /Predictor value.
func unPNG(data []byte, p Predictor) ([]byte, error) {
	row := p.rowBytes()
	stride := row + 1
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of row size %d", ErrPredictor, len(data), stride)
	}

	bpp := p.bytesPerPixel()
	out := make([]byte, 0, len(data)/stride*row)
	prev := make([]byte, row)
	cur := make([]byte, row)

	for start := 0; start < len(data); start += stride {
		kind := data[start]
		copy(cur, data[start+1:start+stride])

		for i := range cur {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]

			switch kind {
			case 0:
			case 1:
				cur[i] += left
			case 2:
				cur[i] += up
			case 3:
				cur[i] += byte((int(left) + int(up)) / 2)
			case 4:
				cur[i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("%w: row filter %d", ErrPredictor, kind)
			}
		}

		out = append(out, cur...)
		prev, cur = cur, prev
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := absInt(p-int(a)), absInt(p-int(b)), absInt(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
