package dispatch

import "bedrock.io/crossfs/internal/eio"

// FillXattr implements the extended-attribute read convention shared by
// both recognized attribute names: a zero-sized request reports the
// required buffer size (including the trailing NUL); an undersized
// non-zero buffer reports a range error; an adequately sized buffer is
// filled and the actual length (including trailing NUL) is reported.
func FillXattr(value string, size int) ([]byte, error) {
	needed := len(value) + 1 // trailing NUL
	if size == 0 {
		return make([]byte, needed), nil
	}
	if size < needed {
		return nil, eio.E(eio.Op("Getxattr"), eio.RangeError)
	}
	out := make([]byte, needed)
	copy(out, value)
	return out, nil
}
