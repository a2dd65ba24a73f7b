package png

import "io"

// A Pixel is one decoded pixel normalised to 8 bits per channel. Colour
// types without an alpha channel decode with A = 0xff.
type Pixel struct {
	R, G, B, A uint8
}

// A Row is a view over one reconstructed scanline. It remains valid only
// until the next call to Decoder.NextRow; callers that need the data
// longer must copy it out.
type Row struct {
	hdr *Header
	pal *Palette
	pix []byte
	y   int
}

// Y returns the row index, counting from the top of the image.
func (r Row) Y() int {
	return r.y
}

// Raw returns the reconstructed scanline bytes before any colour mapping:
// width times channels samples, or width palette indices for indexed
// images.
func (r Row) Raw() []byte {
	return r.pix
}

// Pixels returns a forward-only reader over the row's pixels. Calling
// Pixels again restarts from the left edge.
func (r Row) Pixels() PixelReader {
	return PixelReader{row: r}
}

// A PixelReader yields the pixels of one row left to right. There is no
// random access; the decoder keeps only a single row in memory.
type PixelReader struct {
	row Row
	x   int
}

// Next returns the next pixel, or io.EOF past the right edge. An indexed
// pixel whose value is outside the palette is a FormatError.
func (pr *PixelReader) Next() (Pixel, error) {
	r := pr.row
	if pr.x >= r.hdr.Width {
		return Pixel{}, io.EOF
	}
	c := r.hdr.ColorType.Channels()
	s := r.pix[pr.x*c : pr.x*c+c]
	pr.x++
	switch r.hdr.ColorType {
	case Grayscale:
		return Pixel{s[0], s[0], s[0], 0xff}, nil
	case GrayscaleAlpha:
		return Pixel{s[0], s[0], s[0], s[1]}, nil
	case RGB:
		return Pixel{s[0], s[1], s[2], 0xff}, nil
	case RGBA:
		return Pixel{s[0], s[1], s[2], s[3]}, nil
	default: // Indexed
		e, ok := r.pal.At(int(s[0]))
		if !ok {
			return Pixel{}, FormatError("palette index out of range")
		}
		return Pixel{e.R, e.G, e.B, 0xff}, nil
	}
}

// RGB writes the row as packed 8-bit RGB triplets into dst, which must
// hold at least 3*width bytes, and returns the filled prefix.
func (r Row) RGB(dst []byte) ([]byte, error) {
	n := 3 * r.hdr.Width
	if len(dst) < n {
		return nil, FormatError("destination too small")
	}
	pr := r.Pixels()
	for i := 0; i < n; i += 3 {
		p, err := pr.Next()
		if err != nil {
			return nil, err
		}
		dst[i], dst[i+1], dst[i+2] = p.R, p.G, p.B
	}
	return dst[:n], nil
}

// RGBA writes the row as packed 8-bit RGBA quads into dst, which must
// hold at least 4*width bytes, and returns the filled prefix.
func (r Row) RGBA(dst []byte) ([]byte, error) {
	n := 4 * r.hdr.Width
	if len(dst) < n {
		return nil, FormatError("destination too small")
	}
	pr := r.Pixels()
	for i := 0; i < n; i += 4 {
		p, err := pr.Next()
		if err != nil {
			return nil, err
		}
		dst[i], dst[i+1], dst[i+2], dst[i+3] = p.R, p.G, p.B, p.A
	}
	return dst[:n], nil
}
