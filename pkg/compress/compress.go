// Package compress defines the pluggable compression surface of the
// binary backend. Codecs register under a one-byte code; a compressed
// element records the code of the codec that produced it, so a reader
// only needs the matching codec linked in.
package compress

import "github.com/cockroachdb/errors"

// Compressor turns a payload into a self-describing compressed form
// and back. Uncompress must recover the exact original bytes from
// Compress output alone.
type Compressor interface {
	Code() byte
	Compress(data []byte) ([]byte, error)
	Uncompress(data []byte) ([]byte, error)
}

var registry [256]Compressor

// Register installs c for its code, replacing any previous codec.
// Codec packages call this from init; import one to make its code
// decodable.
func Register(c Compressor) {
	registry[c.Code()] = c
}

// Get returns the codec registered for code, or an error when nothing
// claims it.
func Get(code byte) (Compressor, error) {
	if c := registry[code]; c != nil {
		return c, nil
	}
	return nil, errors.Newf("compress: no codec registered for code %#x", code)
}
