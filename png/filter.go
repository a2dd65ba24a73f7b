package png

// Filter types, as per the PNG spec. Every scanline is prefixed by one of
// these before compression and must have it reversed afterwards.
const (
	ftNone    = 0
	ftSub     = 1
	ftUp      = 2
	ftAverage = 3
	ftPaeth   = 4
	nFilter   = 5
)

// paeth implements the Paeth predictor: whichever of the left, up and
// upper-left neighbours is closest to a+b-c, preferring left, then up.
func paeth(a, b, c uint8) uint8 {
	pa := int(b) - int(c)
	pb := int(a) - int(c)
	pc := pa + pb
	if pa < 0 {
		pa = -pa
	}
	if pb < 0 {
		pb = -pb
	}
	if pc < 0 {
		pc = -pc
	}
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

// defilter reconstructs a scanline in place. cur holds the filtered row
// bytes, prev the previous reconstructed row (all zero for the first row)
// and bpp the bytes per pixel. All arithmetic is mod 256.
func defilter(ft byte, cur, prev []byte, bpp int) error {
	switch ft {
	case ftNone:
	case ftSub:
		for x := bpp; x < len(cur); x++ {
			cur[x] += cur[x-bpp]
		}
	case ftUp:
		for x, p := range prev {
			cur[x] += p
		}
	case ftAverage:
		for x := 0; x < bpp; x++ {
			cur[x] += prev[x] / 2
		}
		for x := bpp; x < len(cur); x++ {
			cur[x] += uint8((int(cur[x-bpp]) + int(prev[x])) / 2)
		}
	case ftPaeth:
		for x := 0; x < bpp; x++ {
			cur[x] += paeth(0, prev[x], 0)
		}
		for x := bpp; x < len(cur); x++ {
			cur[x] += paeth(cur[x-bpp], prev[x], prev[x-bpp])
		}
	default:
		return FormatError("bad filter type")
	}
	return nil
}
