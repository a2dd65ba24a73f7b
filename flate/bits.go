package flate

// bitReader consumes compressed input least-significant-bit first from an
// internal byte queue. Input arrives in arbitrary sized pieces via feed;
// reads that cannot be satisfied report failure instead of blocking so the
// caller can retry once more input has been queued.
type bitReader struct {
	in  []byte // queued compressed bytes, in[off:] not yet consumed
	off int

	b  uint32 // bit buffer, next bit in the LSB
	nb uint   // valid bits in b

	// Compressed bytes dropped from the front of in over the lifetime of
	// the stream, so off+history is a stable input offset for errors.
	history int64
}

// bitPos is a resume point. A decode unit that runs out of input part way
// through seeks back to the position captured before it started.
type bitPos struct {
	off int
	b   uint32
	nb  uint
}

func (br *bitReader) pos() bitPos {
	return bitPos{off: br.off, b: br.b, nb: br.nb}
}

func (br *bitReader) seek(p bitPos) {
	br.off, br.b, br.nb = p.off, p.b, p.nb
}

// offset returns the number of compressed bytes fully consumed so far,
// counting bits still sitting in the bit buffer as unconsumed.
func (br *bitReader) offset() int64 {
	return br.history + int64(br.off) - int64((br.nb+7)/8)
}

func (br *bitReader) feed(p []byte) {
	if br.off > 0 {
		n := copy(br.in, br.in[br.off:])
		br.in = br.in[:n]
		br.history += int64(br.off)
		br.off = 0
	}
	br.in = append(br.in, p...)
}

func (br *bitReader) moreBits() bool {
	if br.off == len(br.in) {
		return false
	}
	br.b |= uint32(br.in[br.off]) << br.nb
	br.nb += 8
	br.off++
	return true
}

// bits consumes the next n bits, n <= 24.
func (br *bitReader) bits(n uint) (uint32, bool) {
	for br.nb < n {
		if !br.moreBits() {
			return 0, false
		}
	}
	v := br.b & (1<<n - 1)
	br.b >>= n
	br.nb -= n
	return v, true
}

// alignByte discards bits up to the next byte boundary. Stored blocks and
// the zlib trailer begin on a byte boundary.
func (br *bitReader) alignByte() {
	drop := br.nb & 7
	br.b >>= drop
	br.nb -= drop
}

// available reports the number of whole bytes that can be read after
// alignByte has been called.
func (br *bitReader) available() int {
	return int(br.nb/8) + len(br.in) - br.off
}

// readBytes copies up to len(dst) aligned bytes, returning the count.
func (br *bitReader) readBytes(dst []byte) int {
	n := 0
	for n < len(dst) && br.nb >= 8 {
		dst[n] = byte(br.b)
		br.b >>= 8
		br.nb -= 8
		n++
	}
	m := copy(dst[n:], br.in[br.off:])
	br.off += m
	return n + m
}

// skipBytes discards up to n aligned bytes, returning the count.
func (br *bitReader) skipBytes(n int) int {
	skipped := 0
	for skipped < n && br.nb >= 8 {
		br.b >>= 8
		br.nb -= 8
		skipped++
	}
	m := len(br.in) - br.off
	if m > n-skipped {
		m = n - skipped
	}
	br.off += m
	return skipped + m
}
