// Package bindoc is the binary format backend: BSON-shaped documents
// extended with width-preserving integer elements, aligned binary
// payloads decodable without copying, and optionally compressed
// payloads.
//
// Every document is a root doc holding one blank-named element, the
// value. Output buffers are allocated on an aligned base so aligned
// payloads land at satisfying addresses; readers of a buffer that
// lost that property fall back to copying, never to failing.
package bindoc

import (
	"github.com/rawbytedev/tokdoc/de"
	"github.com/rawbytedev/tokdoc/pkg/compress"
	"github.com/rawbytedev/tokdoc/ser"
)

// Options tunes both directions. The zero value is the safe default.
type Options struct {
	// HigherAlignment permits payload alignments above the buffer's
	// base alignment. The document then opens with an "align" field
	// recording the raised requirement. Off, such a payload panics the
	// writer: the document would promise an alignment its buffer does
	// not hold.
	HigherAlignment bool
	// Compressor, when set, compresses binary payloads of at least
	// CompressMin bytes. Decoding needs the matching codec package
	// linked in, nothing more: the payload records its codec.
	Compressor  compress.Compressor
	CompressMin int
	// UnsafeStrings lets decoded strings and names alias the input
	// buffer instead of copying.
	UnsafeStrings bool
	// Diagnostics makes decode errors carry a position and message.
	Diagnostics bool
}

// Marshal renders value as a binary document. ctx is threaded
// untouched to every producer.
func Marshal(value ser.Serialize, ctx any) []byte {
	return MarshalOptions(value, ctx, Options{})
}

func MarshalOptions(value ser.Serialize, ctx any, opt Options) []byte {
	w := NewWriter(opt)
	ser.Write(w, value, ctx)
	return w.Finish()
}

// Unmarshal decodes a binary document into v with default options.
func Unmarshal(data []byte, v de.Visitor, ctx any) error {
	return UnmarshalOptions(data, v, ctx, Options{})
}

// UnmarshalOptions decodes a binary document into v. The whole input
// must be consumed; a short or overlong buffer is an error.
func UnmarshalOptions(data []byte, v de.Visitor, ctx any, opt Options) error {
	t := NewTokenizer(data, opt)
	if err := de.Run(t, v, ctx); err != nil {
		return err
	}
	return t.Trailing()
}
