/*
Package png implements a streaming decoder for a constrained subset of
the PNG image format: 8 bits per channel, non-interlaced, grayscale, RGB,
indexed, grayscale+alpha and RGBA images.

The decoder is built for row-at-a-time consumption: Decoder accepts bytes
incrementally and yields one reconstructed scanline at a time, holding at
most one row of history and a 32 KiB DEFLATE window regardless of image
size. Decode and DecodeConfig wrap the same session behind the familiar
io.Reader entry points.

Chunk CRCs and the zlib Adler-32 trailer are consumed but never verified;
the container's structural framing is trusted as-is.
*/
package png

import (
	"image"
	"image/color"
	"io"
)

func pump(d *Decoder, r io.Reader, buf []byte) error {
	n, err := r.Read(buf)
	if n > 0 {
		d.Feed(buf[:n])
	}
	if err == io.EOF {
		if n == 0 {
			return io.ErrUnexpectedEOF
		}
		return nil
	}
	return err
}

// DecodeConfig returns the colour model and dimensions of a PNG image
// without decoding the pixel data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	d := NewDecoder()
	buf := make([]byte, 4096)

	var hdr Header
	for {
		var err error
		if hdr, err = d.Header(); err == nil {
			break
		}
		if err != ErrNeedMoreInput {
			return image.Config{}, err
		}
		if err := pump(d, r, buf); err != nil {
			return image.Config{}, err
		}
	}

	var model color.Model
	switch hdr.ColorType {
	case Grayscale:
		model = color.GrayModel
	case GrayscaleAlpha, RGB, RGBA:
		model = color.NRGBAModel
	case Indexed:
		// The model is the palette, so scan forward to the PLTE chunk.
		for {
			if p, ok := d.Palette(); ok {
				model = p.colorPalette()
				break
			}
			if d.stage >= dsSeenIDAT {
				return image.Config{}, FormatError("missing PLTE")
			}
			if err := d.parseStep(); err == ErrNeedMoreInput {
				if err := pump(d, r, buf); err != nil {
					return image.Config{}, err
				}
			} else if err != nil {
				return image.Config{}, err
			}
		}
	}

	return image.Config{
		ColorModel: model,
		Width:      hdr.Width,
		Height:     hdr.Height,
	}, nil
}

// Decode reads a PNG image from r. Indexed images decode to
// *image.Paletted, grayscale to *image.Gray and everything else to
// *image.NRGBA.
func Decode(r io.Reader) (image.Image, error) {
	d := NewDecoder()
	buf := make([]byte, 4096)

	var (
		gray     *image.Gray
		paletted *image.Paletted
		nrgba    *image.NRGBA
		img      image.Image
	)

	for {
		row, err := d.NextRow()
		if err == ErrNeedMoreInput {
			if err := pump(d, r, buf); err != nil {
				return nil, err
			}
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		hdr := d.hdr
		if img == nil {
			rect := image.Rect(0, 0, hdr.Width, hdr.Height)
			switch hdr.ColorType {
			case Grayscale:
				gray = image.NewGray(rect)
				img = gray
			case Indexed:
				paletted = image.NewPaletted(rect, d.pal.colorPalette())
				img = paletted
			default:
				nrgba = image.NewNRGBA(rect)
				img = nrgba
			}
		}

		switch hdr.ColorType {
		case Grayscale:
			copy(gray.Pix[row.Y()*gray.Stride:], row.Raw())
		case Indexed:
			raw := row.Raw()
			for _, idx := range raw {
				if int(idx) >= d.pal.Len() {
					return nil, FormatError("palette index out of range")
				}
			}
			copy(paletted.Pix[row.Y()*paletted.Stride:], raw)
		default:
			if _, err := row.RGBA(nrgba.Pix[row.Y()*nrgba.Stride : (row.Y()+1)*nrgba.Stride]); err != nil {
				return nil, err
			}
		}
	}

	return img, nil
}
