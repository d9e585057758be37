// Package jsontext is the textual format backend. It maps engine
// events to JSON and back, embedding aligned binary payloads as
// marked runs inside string literals so a JSON document can carry
// zero-copy-decodable bytes.
package jsontext

import (
	"github.com/rawbytedev/tokdoc/de"
	"github.com/rawbytedev/tokdoc/ser"
)

// Options tunes a decode pass. The zero value is the safe default.
type Options struct {
	// UnsafeStrings lets string tokens alias the input buffer instead
	// of copying. The caller must keep the buffer alive and unmodified
	// for as long as any decoded string is reachable.
	UnsafeStrings bool
	// Diagnostics makes decode errors carry a position and message.
	// Off, every failure is the bare sentinel and costs nothing to
	// build; re-run the same input with Diagnostics on to find out
	// what went wrong.
	Diagnostics bool
}

// Marshal renders value as JSON text. ctx is threaded untouched to
// every producer.
func Marshal(value ser.Serialize, ctx any) []byte {
	w := NewWriter()
	ser.Write(w, value, ctx)
	return w.Output()
}

// Unmarshal decodes data into v with default options. data is
// consumed destructively: embedded binary runs are rewritten in place.
func Unmarshal(data []byte, v de.Visitor, ctx any) error {
	return UnmarshalOptions(data, v, ctx, Options{})
}

// UnmarshalOptions decodes data into v. Anything but whitespace after
// the root value is an error.
func UnmarshalOptions(data []byte, v de.Visitor, ctx any, opt Options) error {
	t := NewTokenizer(data, opt)
	if err := de.Run(t, v, ctx); err != nil {
		return err
	}
	return t.Trailing()
}
