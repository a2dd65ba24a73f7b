package png

import "image/color"

const maxPaletteEntries = 256

// PaletteEntry is one RGB colour from a PLTE chunk.
type PaletteEntry struct {
	R, G, B uint8
}

// Palette is the colour lookup table for indexed images. It has a fixed
// capacity of 256 entries and is populated at most once per stream.
type Palette struct {
	entries [maxPaletteEntries]PaletteEntry
	n       int
}

func (p *Palette) parse(data []byte) error {
	if len(data) == 0 || len(data)%3 != 0 || len(data)/3 > maxPaletteEntries {
		return FormatError("bad PLTE length")
	}
	p.n = len(data) / 3
	for i := 0; i < p.n; i++ {
		p.entries[i] = PaletteEntry{R: data[3*i], G: data[3*i+1], B: data[3*i+2]}
	}
	return nil
}

// Len returns the number of entries.
func (p *Palette) Len() int {
	return p.n
}

// At returns entry i; ok is false when i is past the end of the table,
// which means the encoder referenced a colour that does not exist.
func (p *Palette) At(i int) (PaletteEntry, bool) {
	if i >= p.n {
		return PaletteEntry{}, false
	}
	return p.entries[i], true
}

func (p *Palette) colorPalette() color.Palette {
	cp := make(color.Palette, p.n)
	for i := 0; i < p.n; i++ {
		e := p.entries[i]
		cp[i] = color.RGBA{e.R, e.G, e.B, 0xff}
	}
	return cp
}
