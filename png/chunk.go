package png

// Signature is the fixed eight bytes every PNG stream begins with.
const Signature = "\x89PNG\r\n\x1a\n"

// FourCC is a chunk type tag.
type FourCC [4]byte

var (
	fccIHDR = FourCC{'I', 'H', 'D', 'R'}
	fccPLTE = FourCC{'P', 'L', 'T', 'E'}
	fccIDAT = FourCC{'I', 'D', 'A', 'T'}
	fccIEND = FourCC{'I', 'E', 'N', 'D'}
)

func (f FourCC) String() string {
	return string(f[:])
}

// valid reports whether all four bytes are ASCII letters, the only tags
// the PNG container permits.
func (f FourCC) valid() bool {
	for _, c := range f {
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}
