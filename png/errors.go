package png

import "errors"

// A FormatError reports that the input is not valid PNG within its own
// framing: bad signature, chunk ordering violations, truncated chunks,
// invalid filter bytes or palette references.
type FormatError string

func (e FormatError) Error() string { return "png: invalid format: " + string(e) }

// An UnsupportedError reports that the input uses a valid PNG feature that
// this decoder deliberately does not implement, such as 16-bit channels or
// interlacing.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "png: unsupported feature: " + string(e) }

// ErrNeedMoreInput is returned when decoding cannot continue until more of
// the stream has been supplied with Feed. It is not terminal.
var ErrNeedMoreInput = errors.New("png: need more input")
