package flate

const (
	maxCodeLen = 15  // longest Huffman code allowed by DEFLATE
	maxNumLit  = 286 // literal/length alphabet size
	maxNumDist = 30  // distance alphabet size
	numCodes   = 19  // code length alphabet size

	endBlockMarker = 256
)

// huffman is a canonical Huffman decoding table built from code lengths.
// Codes are resolved by walking the per-length counts rather than a node
// tree, so the table is two fixed arrays and needs no allocation.
type huffman struct {
	count  [maxCodeLen + 1]uint16 // codes of each length
	symbol [maxNumLit + 2]uint16  // symbols ordered by code; 288 covers the fixed table
}

// build initialises the table from the code length of every symbol. A
// length of zero means the symbol is unused. It rejects over-subscribed
// length sets; incomplete sets are permitted and caught as invalid codes
// during decoding, which is how DEFLATE single-code distance trees work.
func (h *huffman) build(lengths []uint8) bool {
	for i := range h.count {
		h.count[i] = 0
	}
	for _, n := range lengths {
		h.count[n]++
	}
	if int(h.count[0]) == len(lengths) {
		return true
	}

	left := 1
	for i := 1; i <= maxCodeLen; i++ {
		left <<= 1
		left -= int(h.count[i])
		if left < 0 {
			return false
		}
	}

	var offs [maxCodeLen + 1]uint16
	for i := 1; i < maxCodeLen; i++ {
		offs[i+1] = offs[i] + h.count[i]
	}
	for sym, n := range lengths {
		if n != 0 {
			h.symbol[offs[n]] = uint16(sym)
			offs[n]++
		}
	}
	return true
}

// symResult distinguishes a decoded symbol from input underflow and from a
// corrupt code; the caller converts symInvalid to a CorruptInputError
// carrying the stream offset.
type symResult int

const (
	symOK symResult = iota
	symShort
	symInvalid
)

// huffSym decodes one symbol against h, bit by bit. DEFLATE Huffman codes
// are written most-significant bit first, so each consumed bit extends the
// code from the right.
func (br *bitReader) huffSym(h *huffman) (int, symResult) {
	code, first, index := 0, 0, 0
	for l := 1; l <= maxCodeLen; l++ {
		b, ok := br.bits(1)
		if !ok {
			return 0, symShort
		}
		code |= int(b)
		count := int(h.count[l])
		if code-count < first {
			return int(h.symbol[index+code-first]), symOK
		}
		index += count
		first += count
		first <<= 1
		code <<= 1
	}
	return 0, symInvalid
}

// Fixed literal/length and distance tables, RFC 1951 section 3.2.6.
var fixedLit, fixedDist huffman

func init() {
	var lens [maxNumLit + 2]uint8
	for i := 0; i < 144; i++ {
		lens[i] = 8
	}
	for i := 144; i < 256; i++ {
		lens[i] = 9
	}
	for i := 256; i < 280; i++ {
		lens[i] = 7
	}
	for i := 280; i < 288; i++ {
		lens[i] = 8
	}
	fixedLit.build(lens[:288])

	var dists [maxNumDist + 2]uint8
	for i := range dists {
		dists[i] = 5
	}
	fixedDist.build(dists[:32])
}
