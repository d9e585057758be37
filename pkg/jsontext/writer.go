package jsontext

import (
	"math"
	"strconv"

	"github.com/rawbytedev/tokdoc/blob"
	"github.com/rawbytedev/tokdoc/ser"
)

var _ ser.Writer = (*Writer)(nil)

// escape marks the bytes that cannot appear raw inside a JSON string.
var escape [256]bool

func init() {
	for c := 0; c < 0x20; c++ {
		escape[c] = true
	}
	escape['"'] = true
	escape['\\'] = true
}

const hexDigits = "0123456789abcdef"

type wframe struct {
	close byte
	first bool
}

// Writer emits JSON text from engine events into an in-memory buffer.
// It implements ser.Writer; events never fail. The container stack is
// heap-backed, so nesting depth costs no native stack.
type Writer struct {
	buf      []byte
	stack    []wframe
	afterKey bool
}

func NewWriter() *Writer { return &Writer{} }

// Output returns the text produced so far. The slice aliases the
// writer's buffer.
func (w *Writer) Output() []byte { return w.buf }

func (w *Writer) comma() {
	if w.afterKey {
		w.afterKey = false
		return
	}
	if n := len(w.stack); n > 0 {
		if w.stack[n-1].first {
			w.stack[n-1].first = false
		} else {
			w.buf = append(w.buf, ',')
		}
	}
}

func (w *Writer) Null() {
	w.comma()
	w.buf = append(w.buf, "null"...)
}

func (w *Writer) Bool(b bool) {
	w.comma()
	if b {
		w.buf = append(w.buf, "true"...)
	} else {
		w.buf = append(w.buf, "false"...)
	}
}

func (w *Writer) Int(n int64) {
	w.comma()
	w.buf = strconv.AppendInt(w.buf, n, 10)
}

func (w *Writer) Uint(n uint64) {
	w.comma()
	w.buf = strconv.AppendUint(w.buf, n, 10)
}

// Non-finite floats have no JSON spelling and degrade to null.
func (w *Writer) Float32(f float32) { w.float(float64(f), 32) }
func (w *Writer) Float64(f float64) { w.float(f, 64) }

func (w *Writer) float(f float64, bits int) {
	w.comma()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		w.buf = append(w.buf, "null"...)
		return
	}
	w.buf = strconv.AppendFloat(w.buf, f, 'g', -1, bits)
}

func (w *Writer) String(s string) {
	w.comma()
	w.string(s)
}

// Bytes embeds the payload as a marked run inside a string literal.
func (w *Writer) Bytes(b []byte, align int) {
	w.comma()
	w.buf = append(w.buf, '"')
	w.buf = blob.AppendMarked(w.buf, b, align)
	w.buf = append(w.buf, '"')
}

func (w *Writer) BeginSeq() {
	w.comma()
	w.buf = append(w.buf, '[')
	w.stack = append(w.stack, wframe{close: ']', first: true})
}

func (w *Writer) BeginMap() {
	w.comma()
	w.buf = append(w.buf, '{')
	w.stack = append(w.stack, wframe{close: '}', first: true})
}

func (w *Writer) Key(k string) {
	w.comma()
	w.string(k)
	w.buf = append(w.buf, ':')
	w.afterKey = true
}

func (w *Writer) End() {
	n := len(w.stack) - 1
	w.buf = append(w.buf, w.stack[n].close)
	w.stack = w.stack[:n]
}

// string writes a quoted JSON string. A leading sentinel byte is
// escaped so an ordinary string can never be mistaken for a marked
// binary run when tokenized.
func (w *Writer) string(s string) {
	w.buf = append(w.buf, '"')
	start := 0
	if len(s) > 0 && s[0] == blob.Sentinel {
		w.buf = append(w.buf, '\\', 'u', '0', '0',
			hexDigits[blob.Sentinel>>4], hexDigits[blob.Sentinel&0xf])
		start = 1
	}
	run := start
	for i := start; i < len(s); i++ {
		c := s[i]
		if !escape[c] {
			continue
		}
		w.buf = append(w.buf, s[run:i]...)
		switch c {
		case '"':
			w.buf = append(w.buf, '\\', '"')
		case '\\':
			w.buf = append(w.buf, '\\', '\\')
		case '\b':
			w.buf = append(w.buf, '\\', 'b')
		case '\f':
			w.buf = append(w.buf, '\\', 'f')
		case '\n':
			w.buf = append(w.buf, '\\', 'n')
		case '\r':
			w.buf = append(w.buf, '\\', 'r')
		case '\t':
			w.buf = append(w.buf, '\\', 't')
		default:
			w.buf = append(w.buf, '\\', 'u', '0', '0',
				hexDigits[c>>4], hexDigits[c&0xf])
		}
		run = i + 1
	}
	w.buf = append(w.buf, s[run:]...)
	w.buf = append(w.buf, '"')
}
