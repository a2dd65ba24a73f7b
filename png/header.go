package png

import "encoding/binary"

// ColorType is the PNG colour model, using the on-wire values.
type ColorType uint8

const (
	Grayscale      ColorType = 0
	RGB            ColorType = 2
	Indexed        ColorType = 3
	GrayscaleAlpha ColorType = 4
	RGBA           ColorType = 6
)

func (c ColorType) String() string {
	switch c {
	case Grayscale:
		return "grayscale"
	case RGB:
		return "rgb"
	case Indexed:
		return "indexed"
	case GrayscaleAlpha:
		return "grayscale+alpha"
	case RGBA:
		return "rgba"
	}
	return "unknown"
}

// Channels returns the number of samples per pixel. Indexed pixels are a
// single palette index.
func (c ColorType) Channels() int {
	switch c {
	case GrayscaleAlpha:
		return 2
	case RGB:
		return 3
	case RGBA:
		return 4
	}
	return 1
}

// Header is the validated IHDR metadata. Once a Header has been accepted
// every later decoding stage may assume 8-bit samples and a
// non-interlaced layout.
type Header struct {
	Width     int
	Height    int
	BitDepth  uint8
	ColorType ColorType
}

// rowSize is the byte length of one scanline after defiltering.
func (h Header) rowSize() int {
	return h.Width * h.ColorType.Channels()
}

const ihdrLength = 13

// parseIHDR decodes and validates the fixed 13-byte IHDR payload. It is
// the single gate deciding whether the stream is inside the supported
// subset.
func parseIHDR(data []byte) (Header, error) {
	if len(data) != ihdrLength {
		return Header{}, FormatError("bad IHDR length")
	}
	width := binary.BigEndian.Uint32(data[0:4])
	height := binary.BigEndian.Uint32(data[4:8])
	if width == 0 || height == 0 {
		return Header{}, FormatError("zero width or height")
	}
	if width > 0x7fffffff || height > 0x7fffffff {
		return Header{}, UnsupportedError("dimensions too large")
	}
	if data[8] != 8 {
		return Header{}, UnsupportedError("bit depth")
	}
	ct := ColorType(data[9])
	switch ct {
	case Grayscale, RGB, Indexed, GrayscaleAlpha, RGBA:
	default:
		return Header{}, UnsupportedError("color type")
	}
	if data[10] != 0 {
		return Header{}, UnsupportedError("compression method")
	}
	if data[11] != 0 {
		return Header{}, UnsupportedError("filter method")
	}
	if data[12] != 0 {
		return Header{}, UnsupportedError("interlacing")
	}
	return Header{
		Width:     int(width),
		Height:    int(height),
		BitDepth:  data[8],
		ColorType: ct,
	}, nil
}
