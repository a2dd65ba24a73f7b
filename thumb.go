package pngss

import (
	"errors"
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
)

const (
	thumbWidth  = 64
	thumbHeight = 40
	thumbColors = 16
)

// Thumbnail is a fixed-size paletted preview of a catalogued image,
// quantized to at most 16 colors. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces for
// storage as a catalog blob.
type Thumbnail struct {
	img *image.Paletted
}

// NewThumbnail resamples m down to the thumbnail size and quantizes its
// palette.
func NewThumbnail(m image.Image) *Thumbnail {
	q := quantize.MedianCutQuantizer{}
	dst := image.NewPaletted(image.Rect(0, 0, thumbWidth, thumbHeight),
		q.Quantize(make(color.Palette, 0, thumbColors), m))

	b := m.Bounds()
	for y := 0; y < thumbHeight; y++ {
		sy := b.Min.Y + y*b.Dy()/thumbHeight
		for x := 0; x < thumbWidth; x++ {
			sx := b.Min.X + x*b.Dx()/thumbWidth
			dst.Set(x, y, m.At(sx, sy))
		}
	}

	return &Thumbnail{img: dst}
}

// Image returns the thumbnail as an image.Image.
func (t *Thumbnail) Image() image.Image {
	return t.img
}

// MarshalBinary encodes the thumbnail into binary form: a color count,
// the palette as RGB triplets and then one palette index per pixel.
func (t *Thumbnail) MarshalBinary() ([]byte, error) {
	if len(t.img.Palette) > thumbColors {
		return nil, errors.New("too many colors")
	}
	b := make([]byte, 0, 1+3*len(t.img.Palette)+thumbWidth*thumbHeight)
	b = append(b, byte(len(t.img.Palette)))
	for _, c := range t.img.Palette {
		r, g, bb, _ := c.RGBA()
		b = append(b, byte(r>>8), byte(g>>8), byte(bb>>8))
	}
	b = append(b, t.img.Pix...)
	return b, nil
}

// UnmarshalBinary decodes the thumbnail from binary form.
func (t *Thumbnail) UnmarshalBinary(b []byte) error {
	if len(b) < 1 {
		return errors.New("insufficient data")
	}
	n := int(b[0])
	if n == 0 || n > thumbColors || len(b) != 1+3*n+thumbWidth*thumbHeight {
		return errors.New("insufficient data")
	}
	pal := make(color.Palette, n)
	for i := 0; i < n; i++ {
		pal[i] = color.RGBA{b[1+3*i], b[2+3*i], b[3+3*i], 0xff}
	}
	t.img = image.NewPaletted(image.Rect(0, 0, thumbWidth, thumbHeight), pal)
	copy(t.img.Pix, b[1+3*n:])
	return nil
}
