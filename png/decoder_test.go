package png

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"testing"

	"github.com/bodgit/pngss/flate"
	kzlib "github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunk builds one chunk with a correct CRC. The decoder never checks the
// CRC but real files carry one, so fixtures do too.
func chunk(typ string, data []byte) []byte {
	b := make([]byte, 8, 12+len(data))
	binary.BigEndian.PutUint32(b, uint32(len(data)))
	copy(b[4:], typ)
	b = append(b, data...)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	return binary.BigEndian.AppendUint32(b, crc.Sum32())
}

func ihdr(w, h int, depth, ct byte) []byte {
	p := make([]byte, ihdrLength)
	binary.BigEndian.PutUint32(p, uint32(w))
	binary.BigEndian.PutUint32(p[4:], uint32(h))
	p[8] = depth
	p[9] = ct
	return chunk("IHDR", p)
}

func pngFile(chunks ...[]byte) []byte {
	b := []byte(Signature)
	for _, c := range chunks {
		b = append(b, c...)
	}
	return b
}

// zlibStored wraps data in a zlib stream holding a single stored DEFLATE
// block. The Adler-32 trailer is junk; the decoder never reads it.
func zlibStored(data []byte) []byte {
	b := []byte{0x78, 0x01, 0x01}
	n := uint16(len(data))
	b = append(b, byte(n), byte(n>>8), byte(^n), byte(^n>>8))
	b = append(b, data...)
	return append(b, 0, 0, 0, 0)
}

// zlibDeflate compresses data with a real encoder.
func zlibDeflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := kzlib.NewWriterLevel(&buf, kzlib.BestCompression)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// collectRows pulls every row out of a fully fed decoder, copying the raw
// scanline bytes.
func collectRows(d *Decoder) ([][]byte, error) {
	var rows [][]byte
	for {
		row, err := d.NextRow()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, append([]byte(nil), row.Raw()...))
	}
}

func TestGrayscaleStoredBlock(t *testing.T) {
	// 2x2 grayscale, unfiltered rows [10 20] and [30 40] in one stored
	// DEFLATE block.
	raw := []byte{0, 10, 20, 0, 30, 40}
	file := pngFile(
		ihdr(2, 2, 8, byte(Grayscale)),
		chunk("IDAT", zlibStored(raw)),
		chunk("IEND", nil),
	)

	d := NewDecoder()
	d.Feed(file)
	rows, err := collectRows(d)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []byte{10, 20}, rows[0])
	assert.Equal(t, []byte{30, 40}, rows[1])
}

func TestIndexedOnePixel(t *testing.T) {
	file := pngFile(
		ihdr(1, 1, 8, byte(Indexed)),
		chunk("PLTE", []byte{255, 0, 0}),
		chunk("IDAT", zlibStored([]byte{0, 0})),
		chunk("IEND", nil),
	)

	d := NewDecoder()
	d.Feed(file)
	row, err := d.NextRow()
	require.NoError(t, err)

	pr := row.Pixels()
	p, err := pr.Next()
	require.NoError(t, err)
	assert.Equal(t, Pixel{255, 0, 0, 255}, p)
	_, err = pr.Next()
	assert.Equal(t, io.EOF, err)

	_, err = d.NextRow()
	assert.Equal(t, io.EOF, err)
}

func TestIHDRValidation(t *testing.T) {
	for _, tt := range []struct {
		name        string
		w, h        int
		depth, ct   byte
		unsupported bool
	}{
		{name: "zero width", w: 0, h: 1, depth: 8, ct: 0},
		{name: "zero height", w: 1, h: 0, depth: 8, ct: 0},
		{name: "16-bit depth", w: 1, h: 1, depth: 16, ct: 0, unsupported: true},
		{name: "1-bit depth", w: 1, h: 1, depth: 1, ct: 3, unsupported: true},
		{name: "bad color type", w: 1, h: 1, depth: 8, ct: 5, unsupported: true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder()
			d.Feed(pngFile(ihdr(tt.w, tt.h, tt.depth, tt.ct)))
			_, err := d.Header()
			if tt.unsupported {
				assert.IsType(t, UnsupportedError(""), err)
			} else {
				assert.IsType(t, FormatError(""), err)
			}
		})
	}
}

func TestIHDRInterlaced(t *testing.T) {
	p := make([]byte, ihdrLength)
	binary.BigEndian.PutUint32(p, 1)
	binary.BigEndian.PutUint32(p[4:], 1)
	p[8] = 8
	p[12] = 1 // Adam7

	d := NewDecoder()
	d.Feed(pngFile(chunk("IHDR", p)))
	_, err := d.Header()
	assert.IsType(t, UnsupportedError(""), err)
}

func TestBadSignature(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("\x89JNG\r\n\x1a\nxxxxxxxx"))
	_, err := d.Header()
	assert.IsType(t, FormatError(""), err)
}

func TestFirstChunkNotIHDR(t *testing.T) {
	d := NewDecoder()
	d.Feed(pngFile(chunk("PLTE", []byte{1, 2, 3})))
	_, err := d.Header()
	assert.IsType(t, FormatError(""), err)
}

func TestPLTEAfterIDAT(t *testing.T) {
	raw := []byte{0, 1}
	file := pngFile(
		ihdr(1, 1, 8, byte(Grayscale)),
		chunk("IDAT", zlibStored(raw)),
		chunk("PLTE", []byte{1, 2, 3}),
		chunk("IEND", nil),
	)

	d := NewDecoder()
	d.Feed(file)
	// The single row decodes before the misplaced PLTE is reached.
	row, err := d.NextRow()
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, row.Raw())

	_, err = d.NextRow()
	assert.Equal(t, io.EOF, err)
}

func TestPLTEAfterIDATIncomplete(t *testing.T) {
	// With rows still owing, the misplaced PLTE is hit while looking for
	// more IDAT data.
	z := zlibStored([]byte{0, 1, 0, 2})
	file := pngFile(
		ihdr(1, 2, 8, byte(Grayscale)),
		chunk("IDAT", z[:4]),
		chunk("PLTE", []byte{1, 2, 3}),
	)

	d := NewDecoder()
	d.Feed(file)
	_, err := d.NextRow()
	assert.IsType(t, FormatError(""), err)
}

func TestIndexedMissingPLTE(t *testing.T) {
	file := pngFile(
		ihdr(1, 1, 8, byte(Indexed)),
		chunk("IDAT", zlibStored([]byte{0, 0})),
		chunk("IEND", nil),
	)

	d := NewDecoder()
	d.Feed(file)
	_, err := d.NextRow()
	assert.IsType(t, FormatError(""), err)
	assert.Contains(t, err.Error(), "PLTE")
}

func TestPaletteIndexOutOfRange(t *testing.T) {
	file := pngFile(
		ihdr(1, 1, 8, byte(Indexed)),
		chunk("PLTE", []byte{255, 0, 0, 0, 255, 0}),
		chunk("IDAT", zlibStored([]byte{0, 5})),
		chunk("IEND", nil),
	)

	d := NewDecoder()
	d.Feed(file)
	row, err := d.NextRow()
	require.NoError(t, err)

	pr := row.Pixels()
	_, err = pr.Next()
	assert.IsType(t, FormatError(""), err)
}

func TestBadFilterType(t *testing.T) {
	file := pngFile(
		ihdr(1, 1, 8, byte(Grayscale)),
		chunk("IDAT", zlibStored([]byte{9, 1})),
		chunk("IEND", nil),
	)

	d := NewDecoder()
	d.Feed(file)
	_, err := d.NextRow()
	assert.IsType(t, FormatError(""), err)

	// The session is terminal after a decode error.
	_, err2 := d.NextRow()
	assert.Equal(t, err, err2)
}

func TestAncillaryChunksSkipped(t *testing.T) {
	raw := []byte{0, 7}
	file := pngFile(
		ihdr(1, 1, 8, byte(Grayscale)),
		chunk("gAMA", []byte{0, 0, 0xb1, 0x8f}),
		chunk("tEXt", []byte("Comment\x00not interpreted")),
		chunk("IDAT", zlibStored(raw)),
		chunk("tIME", make([]byte, 7)),
		chunk("IEND", nil),
	)

	d := NewDecoder()
	d.Feed(file)
	rows, err := collectRows(d)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []byte{7}, rows[0])
}

func TestSplitIDAT(t *testing.T) {
	// One logical compressed stream spread over many IDAT chunks of
	// awkward sizes, fed one byte at a time.
	raw := []byte{
		ftSub, 10, 10, 10,
		ftUp, 1, 2, 3,
		ftPaeth, 0, 0, 0,
	}
	z := zlibDeflate(t, raw)

	chunks := [][]byte{ihdr(3, 3, 8, byte(Grayscale))}
	for len(z) > 0 {
		n := min(5, len(z))
		chunks = append(chunks, chunk("IDAT", z[:n]))
		z = z[n:]
	}
	chunks = append(chunks, chunk("IEND", nil))
	file := pngFile(chunks...)

	d := NewDecoder()
	var rows [][]byte
	for {
		row, err := d.NextRow()
		if err == ErrNeedMoreInput {
			require.NotEmpty(t, file, "decoder wants input beyond the end of the stream")
			d.Feed(file[:1])
			file = file[1:]
			continue
		}
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		rows = append(rows, append([]byte(nil), row.Raw()...))
	}

	require.Len(t, rows, 3)
	assert.Equal(t, []byte{10, 20, 30}, rows[0])
	assert.Equal(t, []byte{11, 22, 33}, rows[1])
	assert.Equal(t, []byte{11, 22, 33}, rows[2])
}

func TestTruncatedIDAT(t *testing.T) {
	raw := []byte{0, 1, 0, 2, 0, 3, 0, 4}
	z := zlibDeflate(t, raw)
	cut := z[:len(z)-6] // mid final block

	d := NewDecoder()
	d.Feed(pngFile(ihdr(1, 4, 8, byte(Grayscale)), chunk("IDAT", cut)))

	// Without the IEND the decoder keeps asking for more input.
	_, err := d.NextRow()
	for err == nil {
		_, err = d.NextRow()
	}
	require.Equal(t, ErrNeedMoreInput, err)

	// IEND arriving with rows still owing proves the compressed stream
	// was truncated.
	d.Feed(chunk("IEND", nil))
	_, err = d.NextRow()
	assert.IsType(t, flate.CorruptInputError(0), err)
}

func TestRowYAndCount(t *testing.T) {
	raw := []byte{0, 1, 2, 0, 3, 4, 0, 5, 6}
	file := pngFile(
		ihdr(2, 3, 8, byte(Grayscale)),
		chunk("IDAT", zlibStored(raw)),
		chunk("IEND", nil),
	)

	d := NewDecoder()
	d.Feed(file)
	for y := 0; y < 3; y++ {
		row, err := d.NextRow()
		require.NoError(t, err)
		assert.Equal(t, y, row.Y())
		assert.Len(t, row.Raw(), 2)
	}
	_, err := d.NextRow()
	assert.Equal(t, io.EOF, err)
}
