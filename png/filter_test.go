package png

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// applyFilter is the encoder-side transform, implemented here only to
// check that defilter inverts it.
func applyFilter(ft byte, row, prev []byte, bpp int) []byte {
	out := make([]byte, len(row))
	left := func(x int) uint8 {
		if x < bpp {
			return 0
		}
		return row[x-bpp]
	}
	upperLeft := func(x int) uint8 {
		if x < bpp {
			return 0
		}
		return prev[x-bpp]
	}
	for x := range row {
		switch ft {
		case ftNone:
			out[x] = row[x]
		case ftSub:
			out[x] = row[x] - left(x)
		case ftUp:
			out[x] = row[x] - prev[x]
		case ftAverage:
			out[x] = row[x] - uint8((int(left(x))+int(prev[x]))/2)
		case ftPaeth:
			out[x] = row[x] - paeth(left(x), prev[x], upperLeft(x))
		}
	}
	return out
}

func TestDefilterRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for _, bpp := range []int{1, 2, 3, 4} {
		width := 31 * bpp
		prev := make([]byte, width)
		row := make([]byte, width)
		rnd.Read(prev)
		rnd.Read(row)

		for ft := byte(0); ft < nFilter; ft++ {
			got := applyFilter(ft, row, prev, bpp)
			require.NoError(t, defilter(ft, got, prev, bpp))
			assert.Equal(t, row, got, "filter type %d bpp %d", ft, bpp)
		}
	}
}

func TestDefilterFirstRow(t *testing.T) {
	// The previous row is all zero for the first scanline.
	prev := make([]byte, 6)
	cur := []byte{10, 20, 30, 40, 50, 60}
	expected := []byte{10, 30, 60, 100, 150, 210}

	require.NoError(t, defilter(ftSub, cur, prev, 1))
	assert.Equal(t, expected, cur)
}

func TestDefilterBadType(t *testing.T) {
	cur := make([]byte, 4)
	prev := make([]byte, 4)
	err := defilter(nFilter, cur, prev, 1)
	assert.IsType(t, FormatError(""), err)
}

func TestPaethTieBreak(t *testing.T) {
	// Exact ties prefer left, then up, then upper-left.
	assert.Equal(t, uint8(5), paeth(5, 5, 5))
	assert.Equal(t, uint8(3), paeth(3, 4, 4))
	assert.Equal(t, uint8(4), paeth(2, 4, 2))
}
