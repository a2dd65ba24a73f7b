package png

import (
	"encoding/binary"
	"io"

	"github.com/bodgit/pngss/flate"
)

// Decoding stage. IHDR, PLTE (if present), IDAT and IEND must appear in
// that order; anything after IEND is ignored.
const (
	dsStart = iota
	dsSeenIHDR
	dsSeenPLTE
	dsSeenIDAT
	dsSeenIEND
)

// Container scanning state.
const (
	csSignature = iota
	csChunkHeader
	csIDAT
	csSkip
	csDone
)

// A Decoder is a streaming decode session for one PNG image. The caller
// pushes container bytes in with Feed and pulls reconstructed scanlines
// out with NextRow; no call ever blocks on I/O.
//
// Memory use is bounded by one scanline of history plus the inflater's
// 32 KiB window, independent of image height. A Decoder serves exactly
// one decode and is not safe for concurrent use; any error other than
// ErrNeedMoreInput is terminal for the session.
type Decoder struct {
	in  []byte // buffered container bytes, in[off:] not yet consumed
	off int

	cs        int
	remaining int // payload or skip bytes left in the current chunk
	stage     int

	hdr    Header
	pal    Palette
	hasPal bool

	z *flate.Inflater

	cur  []byte // filter byte + filtered row, filled incrementally
	curN int
	prev []byte // previous reconstructed row
	y    int

	err error
}

// NewDecoder returns an empty decode session awaiting the PNG signature.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed hands container bytes to the decoder. The slice is copied; the
// caller may reuse it immediately.
func (d *Decoder) Feed(p []byte) {
	if d.off > 0 {
		n := copy(d.in, d.in[d.off:])
		d.in = d.in[:n]
		d.off = 0
	}
	d.in = append(d.in, p...)
}

func (d *Decoder) avail() int {
	return len(d.in) - d.off
}

func (d *Decoder) take(n int) []byte {
	b := d.in[d.off : d.off+n]
	d.off += n
	return b
}

// Header returns the validated image header, parsing forward until the
// IHDR chunk has been seen. Before then it returns ErrNeedMoreInput.
func (d *Decoder) Header() (Header, error) {
	if d.err != nil {
		return Header{}, d.err
	}
	for d.stage < dsSeenIHDR {
		if err := d.parseStep(); err != nil {
			if err != ErrNeedMoreInput {
				d.err = err
			}
			return Header{}, err
		}
	}
	return d.hdr, nil
}

// Palette returns the palette table once a PLTE chunk has been decoded.
func (d *Decoder) Palette() (*Palette, bool) {
	if !d.hasPal {
		return nil, false
	}
	return &d.pal, true
}

// NextRow returns the next reconstructed scanline, top to bottom. It
// returns ErrNeedMoreInput when the fed bytes run out, io.EOF after the
// final row, and a terminal error otherwise. The returned Row is only
// valid until the next call.
func (d *Decoder) NextRow() (Row, error) {
	if d.err != nil {
		return Row{}, d.err
	}
	row, err := d.nextRow()
	if err != nil && err != ErrNeedMoreInput && err != io.EOF {
		d.err = err
	}
	return row, err
}

func (d *Decoder) nextRow() (Row, error) {
	for {
		if d.stage >= dsSeenIDAT {
			if d.y == d.hdr.Height {
				return Row{}, io.EOF
			}
			n, err := d.z.Read(d.cur[d.curN:])
			d.curN += n
			if d.curN == len(d.cur) {
				return d.finishRow()
			}
			switch err {
			case nil, flate.ErrNeedMoreInput:
				// Starved; feed it more IDAT payload below.
			case io.EOF:
				return Row{}, FormatError("not enough image data")
			default:
				return Row{}, err
			}
		}
		if d.cs == csDone {
			// IEND arrived with rows still owing: the compressed
			// stream is genuinely truncated.
			return Row{}, flate.CorruptInputError(d.z.InputOffset())
		}
		if err := d.parseStep(); err != nil {
			return Row{}, err
		}
	}
}

func (d *Decoder) finishRow() (Row, error) {
	row := d.cur[1:]
	if err := defilter(d.cur[0], row, d.prev, d.hdr.ColorType.Channels()); err != nil {
		return Row{}, err
	}
	copy(d.prev, row)
	d.curN = 0
	y := d.y
	d.y++
	return Row{hdr: &d.hdr, pal: &d.pal, pix: row, y: y}, nil
}

// parseStep advances the container scan by one unit: the signature, one
// whole small chunk, or a slice of IDAT/skipped payload. It returns
// ErrNeedMoreInput when the buffered bytes cannot complete the unit.
func (d *Decoder) parseStep() error {
	switch d.cs {
	case csSignature:
		if d.avail() < len(Signature) {
			return ErrNeedMoreInput
		}
		if string(d.take(len(Signature))) != Signature {
			return FormatError("not a PNG file")
		}
		d.cs = csChunkHeader

	case csChunkHeader:
		if d.avail() < 8 {
			return ErrNeedMoreInput
		}
		length := binary.BigEndian.Uint32(d.in[d.off:])
		var typ FourCC
		copy(typ[:], d.in[d.off+4:])
		if length > 0x7fffffff {
			return FormatError("bad chunk length")
		}
		if !typ.valid() {
			return FormatError("bad chunk type")
		}
		if d.stage == dsStart && typ != fccIHDR {
			return FormatError("first chunk is not IHDR")
		}
		return d.startChunk(typ, int(length))

	case csIDAT:
		if d.remaining == 0 {
			d.remaining = 4 // chunk CRC, unchecked
			d.cs = csSkip
			return nil
		}
		m := min(d.avail(), d.remaining)
		if m == 0 {
			return ErrNeedMoreInput
		}
		d.z.Feed(d.take(m))
		d.remaining -= m

	case csSkip:
		m := min(d.avail(), d.remaining)
		if m == 0 && d.remaining > 0 {
			return ErrNeedMoreInput
		}
		d.take(m)
		d.remaining -= m
		if d.remaining == 0 {
			d.cs = csChunkHeader
		}

	case csDone:
		// Trailing bytes after IEND are ignored.
		return ErrNeedMoreInput
	}
	return nil
}

// startChunk dispatches on the chunk type tag. IHDR and PLTE are small
// and parsed whole once their payload and CRC are buffered; IDAT payload
// streams straight into the inflater; anything unrecognised is skipped
// without error.
func (d *Decoder) startChunk(typ FourCC, length int) error {
	switch typ {
	case fccIHDR:
		if d.stage != dsStart {
			return FormatError("duplicate IHDR")
		}
		if length != ihdrLength {
			return FormatError("bad IHDR length")
		}
		if d.avail() < 8+length+4 {
			return ErrNeedMoreInput
		}
		d.take(8)
		hdr, err := parseIHDR(d.take(length))
		if err != nil {
			return err
		}
		d.take(4) // chunk CRC, unchecked
		d.hdr = hdr
		d.stage = dsSeenIHDR
		d.cur = make([]byte, 1+hdr.rowSize())
		d.prev = make([]byte, hdr.rowSize())
		d.z = flate.NewInflater()

	case fccPLTE:
		if d.stage != dsSeenIHDR {
			return FormatError("out of order PLTE")
		}
		if length == 0 || length%3 != 0 || length/3 > maxPaletteEntries {
			return FormatError("bad PLTE length")
		}
		if d.avail() < 8+length+4 {
			return ErrNeedMoreInput
		}
		d.take(8)
		if err := d.pal.parse(d.take(length)); err != nil {
			return err
		}
		d.take(4)
		d.hasPal = true
		d.stage = dsSeenPLTE

	case fccIDAT:
		if d.stage < dsSeenIHDR || d.stage > dsSeenIDAT {
			return FormatError("out of order IDAT")
		}
		if d.stage != dsSeenIDAT && d.hdr.ColorType == Indexed && !d.hasPal {
			return FormatError("missing PLTE")
		}
		d.stage = dsSeenIDAT
		d.take(8)
		d.remaining = length
		d.cs = csIDAT

	case fccIEND:
		if length != 0 {
			return FormatError("bad IEND length")
		}
		if d.stage < dsSeenIDAT {
			return FormatError("missing IDAT")
		}
		if d.avail() < 8+4 {
			return ErrNeedMoreInput
		}
		d.take(12)
		d.stage = dsSeenIEND
		d.cs = csDone

	default:
		d.take(8)
		d.remaining = length + 4
		d.cs = csSkip
	}
	return nil
}
