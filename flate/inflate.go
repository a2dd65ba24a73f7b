/*
Package flate implements an incremental DEFLATE (RFC 1951) decompressor
with optional zlib (RFC 1950) framing.

Unlike the standard library it never blocks on input: compressed bytes are
handed in with Feed and Read decodes as far as the queued input allows,
returning ErrNeedMoreInput when it runs dry part way through a block. All
decoding state, including the 32 KiB sliding window and the Huffman
tables, lives in fixed arrays inside the Inflater, so memory use is
bounded regardless of stream size.

The Adler-32 trailer of a zlib stream is consumed but never verified.
*/
package flate

import (
	"errors"
	"io"
	"strconv"
)

// WindowSize is the DEFLATE back-reference window, the furthest a
// length/distance pair may reach into previously decoded output.
const WindowSize = 1 << 15

// ErrNeedMoreInput is returned by Read when decoding cannot continue until
// more compressed bytes have been supplied with Feed. It is not terminal.
var ErrNeedMoreInput = errors.New("flate: need more input")

// A CorruptInputError reports the presence of corrupt input at a given
// compressed byte offset.
type CorruptInputError int64

func (e CorruptInputError) Error() string {
	return "flate: corrupt input before offset " + strconv.FormatInt(int64(e), 10)
}

const (
	stateZlibHeader = iota
	stateBlockHeader
	stateStoredCopy
	stateBlock
	stateBackref
	stateTrailer
	stateDone
)

const (
	blockTypeStored  = 0
	blockTypeFixed   = 1
	blockTypeDynamic = 2
)

type window struct {
	buf  [WindowSize]byte
	pos  int
	full bool
}

func (w *window) writeByte(c byte) {
	w.buf[w.pos] = c
	w.pos++
	if w.pos == WindowSize {
		w.pos = 0
		w.full = true
	}
}

func (w *window) write(p []byte) {
	for _, c := range p {
		w.writeByte(c)
	}
}

// size returns how many history bytes are addressable.
func (w *window) size() int {
	if w.full {
		return WindowSize
	}
	return w.pos
}

func (w *window) byteAt(dist int) byte {
	i := w.pos - dist
	if i < 0 {
		i += WindowSize
	}
	return w.buf[i]
}

// An Inflater decompresses one DEFLATE stream. Feed queues compressed
// bytes and Read drains decompressed output; the zero value is not usable,
// use NewInflater or NewRawInflater.
type Inflater struct {
	br  bitReader
	win window

	state int
	final bool
	raw   bool // no zlib framing
	err   error

	// Dynamic block tables; h1 doubles as the code length table while the
	// literal/length table is being read, as in the standard library.
	h1, h2 huffman
	lens   [maxNumLit + maxNumDist]uint8

	htL, htD *huffman

	copyLen  int
	copyDist int
}

// NewInflater returns an Inflater for a zlib-framed DEFLATE stream, the
// framing used inside PNG IDAT data.
func NewInflater() *Inflater {
	return &Inflater{state: stateZlibHeader}
}

// NewRawInflater returns an Inflater for a bare DEFLATE stream with no
// zlib header or trailer.
func NewRawInflater() *Inflater {
	return &Inflater{state: stateBlockHeader, raw: true}
}

// Reset discards all state so the Inflater can decode a new stream.
func (z *Inflater) Reset() {
	raw := z.raw
	*z = Inflater{raw: raw, state: stateZlibHeader}
	if raw {
		z.state = stateBlockHeader
	}
}

// Feed queues compressed bytes. The slice is copied; the caller may reuse
// it immediately.
func (z *Inflater) Feed(p []byte) {
	z.br.feed(p)
}

// InputOffset returns the number of compressed bytes consumed so far.
func (z *Inflater) InputOffset() int64 {
	return z.br.offset()
}

// Read decompresses into p. It returns the number of bytes produced, which
// may be less than len(p). Once the queued input is exhausted it returns
// either a short count or, if nothing could be produced, ErrNeedMoreInput.
// At the end of the stream it returns io.EOF. Any other error is terminal.
func (z *Inflater) Read(p []byte) (int, error) {
	if z.err != nil {
		return 0, z.err
	}
	n := 0
	for n < len(p) {
		switch z.state {
		case stateZlibHeader:
			var hdr [2]byte
			if z.br.available() < len(hdr) {
				return z.short(n)
			}
			z.br.readBytes(hdr[:])
			// CM must be deflate, CINFO a window of at most 32K, the
			// check bits must divide and no preset dictionary.
			if hdr[0]&0x0f != 8 || hdr[0]>>4 > 7 ||
				(uint32(hdr[0])<<8|uint32(hdr[1]))%31 != 0 ||
				hdr[1]&0x20 != 0 {
				return n, z.fail(z.corrupt())
			}
			z.state = stateBlockHeader

		case stateBlockHeader:
			pos := z.br.pos()
			if err := z.readBlockHeader(); err != nil {
				if err == ErrNeedMoreInput {
					z.br.seek(pos)
					return z.short(n)
				}
				return n, z.fail(err)
			}

		case stateStoredCopy:
			m := len(p) - n
			if m > z.copyLen {
				m = z.copyLen
			}
			if avail := z.br.available(); m > avail {
				m = avail
			}
			if m == 0 {
				return z.short(n)
			}
			m = z.br.readBytes(p[n : n+m])
			z.win.write(p[n : n+m])
			z.copyLen -= m
			n += m
			if z.copyLen == 0 {
				z.finishBlock()
			}

		case stateBlock:
			m, err := z.decodeBlock(p[n:])
			n += m
			if err == ErrNeedMoreInput {
				return z.short(n)
			}
			if err != nil {
				return n, z.fail(err)
			}

		case stateBackref:
			n += z.copyHistory(p[n:])
			if z.copyLen == 0 {
				z.state = stateBlock
			}

		case stateTrailer:
			z.br.alignByte()
			if z.br.available() < 4 {
				return z.short(n)
			}
			z.br.skipBytes(4) // Adler-32, unverified
			z.state = stateDone

		case stateDone:
			if n > 0 {
				return n, nil
			}
			z.err = io.EOF
			return 0, io.EOF
		}
	}
	return n, nil
}

func (z *Inflater) short(n int) (int, error) {
	if n > 0 {
		return n, nil
	}
	return 0, ErrNeedMoreInput
}

func (z *Inflater) fail(err error) error {
	z.err = err
	return err
}

func (z *Inflater) corrupt() error {
	return CorruptInputError(z.br.offset())
}

// readBlockHeader parses a block header and, for dynamic blocks, the
// Huffman table definitions. The caller holds a resume point; on
// ErrNeedMoreInput everything consumed here is rewound and re-parsed once
// more input arrives.
func (z *Inflater) readBlockHeader() error {
	v, ok := z.br.bits(3)
	if !ok {
		return ErrNeedMoreInput
	}
	z.final = v&1 == 1
	switch v >> 1 {
	case blockTypeStored:
		z.br.alignByte()
		var b [4]byte
		if z.br.available() < len(b) {
			return ErrNeedMoreInput
		}
		z.br.readBytes(b[:])
		length := int(b[0]) | int(b[1])<<8
		check := int(b[2]) | int(b[3])<<8
		if uint16(check) != ^uint16(length) {
			return z.corrupt()
		}
		if length == 0 {
			z.finishBlock()
			return nil
		}
		z.copyLen = length
		z.state = stateStoredCopy
	case blockTypeFixed:
		z.htL, z.htD = &fixedLit, &fixedDist
		z.state = stateBlock
	case blockTypeDynamic:
		if err := z.readHuffman(); err != nil {
			return err
		}
		z.htL, z.htD = &z.h1, &z.h2
		z.state = stateBlock
	default:
		return z.corrupt()
	}
	return nil
}

// codeOrder is the order code length codes are stored in a dynamic block
// header, RFC 1951 section 3.2.7.
var codeOrder = [numCodes]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

func (z *Inflater) readHuffman() error {
	v, ok := z.br.bits(5 + 5 + 4)
	if !ok {
		return ErrNeedMoreInput
	}
	nlit := int(v&0x1f) + 257
	ndist := int(v>>5&0x1f) + 1
	nclen := int(v>>10&0xf) + 4
	if nlit > maxNumLit || ndist > maxNumDist {
		return z.corrupt()
	}

	var clens [numCodes]uint8
	for i := 0; i < nclen; i++ {
		c, ok := z.br.bits(3)
		if !ok {
			return ErrNeedMoreInput
		}
		clens[codeOrder[i]] = uint8(c)
	}
	if !z.h1.build(clens[:]) {
		return z.corrupt()
	}

	for i, n := 0, nlit+ndist; i < n; {
		sym, res := z.br.huffSym(&z.h1)
		if res == symShort {
			return ErrNeedMoreInput
		}
		if res == symInvalid {
			return z.corrupt()
		}
		if sym < 16 {
			z.lens[i] = uint8(sym)
			i++
			continue
		}
		var rep int
		var nb uint
		var b uint8
		switch sym {
		case 16:
			if i == 0 {
				return z.corrupt()
			}
			rep, nb, b = 3, 2, z.lens[i-1]
		case 17:
			rep, nb, b = 3, 3, 0
		case 18:
			rep, nb, b = 11, 7, 0
		}
		extra, ok := z.br.bits(nb)
		if !ok {
			return ErrNeedMoreInput
		}
		rep += int(extra)
		if i+rep > n {
			return z.corrupt()
		}
		for j := 0; j < rep; j++ {
			z.lens[i] = b
			i++
		}
	}

	if !z.h1.build(z.lens[:nlit]) || !z.h2.build(z.lens[nlit:nlit+ndist]) {
		return z.corrupt()
	}
	// The end of block code must exist or the block can never terminate.
	if z.lens[endBlockMarker] == 0 {
		return z.corrupt()
	}
	return nil
}

// Length and distance code expansion tables, RFC 1951 section 3.2.5.
var (
	lenBase = [29]uint16{
		3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
		35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
	}
	lenExtra = [29]uint8{
		0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
		3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
	}
	distBase = [30]uint16{
		1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
		257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
	}
	distExtra = [30]uint8{
		0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
		7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
	}
)

// decodeBlock decodes literal and length/distance symbols until the output
// slice fills, the block ends, or input runs out. A partially read symbol
// is rewound so decoding resumes cleanly after the next Feed.
func (z *Inflater) decodeBlock(dst []byte) (int, error) {
	n := 0
	for n < len(dst) {
		pos := z.br.pos()
		sym, res := z.br.huffSym(z.htL)
		if res == symShort {
			z.br.seek(pos)
			return n, ErrNeedMoreInput
		}
		if res == symInvalid {
			return n, z.corrupt()
		}
		switch {
		case sym < endBlockMarker:
			dst[n] = byte(sym)
			z.win.writeByte(byte(sym))
			n++
		case sym == endBlockMarker:
			z.finishBlock()
			return n, nil
		case sym < maxNumLit:
			length, dist, err := z.readBackref(sym)
			if err == ErrNeedMoreInput {
				z.br.seek(pos)
				return n, err
			}
			if err != nil {
				return n, err
			}
			if dist > z.win.size() {
				// Reaches before the start of the output stream.
				return n, z.corrupt()
			}
			z.copyLen, z.copyDist = length, dist
			z.state = stateBackref
			return n, nil
		default:
			return n, z.corrupt()
		}
	}
	return n, nil
}

func (z *Inflater) readBackref(sym int) (length, dist int, err error) {
	li := sym - 257
	extra, ok := z.br.bits(uint(lenExtra[li]))
	if !ok {
		return 0, 0, ErrNeedMoreInput
	}
	length = int(lenBase[li]) + int(extra)

	dsym, res := z.br.huffSym(z.htD)
	if res == symShort {
		return 0, 0, ErrNeedMoreInput
	}
	if res == symInvalid || dsym >= maxNumDist {
		return 0, 0, z.corrupt()
	}
	extra, ok = z.br.bits(uint(distExtra[dsym]))
	if !ok {
		return 0, 0, ErrNeedMoreInput
	}
	dist = int(distBase[dsym]) + int(extra)
	return length, dist, nil
}

func (z *Inflater) copyHistory(dst []byte) int {
	n := 0
	for n < len(dst) && z.copyLen > 0 {
		c := z.win.byteAt(z.copyDist)
		dst[n] = c
		z.win.writeByte(c)
		n++
		z.copyLen--
	}
	return n
}

func (z *Inflater) finishBlock() {
	if !z.final {
		z.state = stateBlockHeader
		return
	}
	if z.raw {
		z.state = stateDone
		return
	}
	z.state = stateTrailer
}
