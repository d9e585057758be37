package bindoc

import (
	"math"
	"strings"

	"github.com/rawbytedev/tokdoc/blob"
	"github.com/rawbytedev/tokdoc/pkg/compress"
)

// Element type bytes. The set follows BSON where BSON has a fitting
// type and claims the unused high range for the widths and the
// aligned/compressed payloads BSON lacks.
const (
	tFloat64    = 0x01
	tString     = 0x02
	tDoc        = 0x03
	tSeq        = 0x04
	tBinary     = 0x05
	tBool       = 0x08
	tNull       = 0x0A
	tInt32      = 0x10
	tUint64     = 0x11
	tInt64      = 0x12
	tUint8      = 0x81
	tInt8       = 0x82
	tUint32     = 0x83
	tFloat32    = 0x85
	tAligned    = 0x8F
	tCompressed = 0x90
)

// alignPatch is the byte index of the alignment value when the writer
// opens with the "align" root field: root size u32, type byte, "align"
// plus NUL is six more.
const alignPatch = 11

// Writer emits a binary document from engine events. It implements
// ser.Writer. The output buffer's base address satisfies the
// document's alignment, so aligned payloads inside it can be viewed
// in place.
type Writer struct {
	buf *blob.Buffer
	doc []int // size-field index of each open document
	key string
	opt Options
}

// NewWriter opens the root document. With HigherAlignment set the
// first root field records the document alignment and is patched
// upward when a payload demands more than the base.
func NewWriter(opt Options) *Writer {
	w := &Writer{buf: blob.NewBuffer(), opt: opt}
	w.beginDoc()
	if opt.HigherAlignment {
		// fixed-width u32 so the value can be patched in place later
		w.key = "align"
		w.element(tUint32)
		w.buf.AppendU32(uint32(w.buf.Align()))
	}
	return w
}

// Finish closes the root document and returns the encoded bytes. The
// slice aliases the writer's buffer.
func (w *Writer) Finish() []byte {
	w.endDoc()
	return w.buf.Bytes()
}

// element writes the type byte and the pending key as a cstring.
// Sequence elements and the root value carry a blank name.
func (w *Writer) element(ty byte) {
	w.buf.AppendByte(ty)
	if w.key != "" {
		w.buf.Append([]byte(w.key))
		w.key = ""
	}
	w.buf.AppendByte(0x00)
}

func (w *Writer) beginDoc() {
	w.doc = append(w.doc, w.buf.Len())
	w.buf.AppendU32(0)
}

// endDoc patches the document size: size field through terminator,
// inclusive.
func (w *Writer) endDoc() {
	n := len(w.doc) - 1
	i := w.doc[n]
	w.doc = w.doc[:n]
	w.buf.PatchU32(i, uint32(w.buf.Len()-i+1))
	w.buf.AppendByte(0x00)
}

func (w *Writer) Null() {
	w.element(tNull)
}

func (w *Writer) Bool(b bool) {
	w.element(tBool)
	if b {
		w.buf.AppendByte(1)
	} else {
		w.buf.AppendByte(0)
	}
}

// Int stores the narrowest signed encoding holding n.
func (w *Writer) Int(n int64) {
	switch {
	case n >= math.MinInt8 && n <= math.MaxInt8:
		w.element(tInt8)
		w.buf.AppendByte(byte(int8(n)))
	case n >= math.MinInt32 && n <= math.MaxInt32:
		w.element(tInt32)
		w.buf.AppendU32(uint32(int32(n)))
	default:
		w.element(tInt64)
		w.buf.AppendU64(uint64(n))
	}
}

// Uint stores the narrowest unsigned encoding holding n.
func (w *Writer) Uint(n uint64) {
	switch {
	case n <= math.MaxUint8:
		w.element(tUint8)
		w.buf.AppendByte(byte(n))
	case n <= math.MaxUint32:
		w.element(tUint32)
		w.buf.AppendU32(uint32(n))
	default:
		w.element(tUint64)
		w.buf.AppendU64(n)
	}
}

func (w *Writer) Float32(f float32) {
	w.element(tFloat32)
	w.buf.AppendU32(math.Float32bits(f))
}

func (w *Writer) Float64(f float64) {
	w.element(tFloat64)
	w.buf.AppendU64(math.Float64bits(f))
}

func (w *Writer) String(s string) {
	w.element(tString)
	w.buf.AppendU32(uint32(len(s) + 1))
	w.buf.Append([]byte(s))
	w.buf.AppendByte(0x00)
}

// Bytes writes a binary payload. Alignment 1 goes out as plain
// binary; higher alignments get the aligned element, whose payload is
// padded to sit at a satisfying offset from the document base. A
// configured compressor takes over for payloads reaching CompressMin.
//
// An alignment above the document base alignment panics unless
// HigherAlignment was set: the document would promise an alignment
// its own buffer does not hold.
func (w *Writer) Bytes(b []byte, align int) {
	if !blob.ValidAlign(align) {
		panic("bindoc: alignment must be a power of two <= 64")
	}
	if c := w.opt.Compressor; c != nil && len(b) >= w.opt.CompressMin {
		if w.compressed(b, align, c) {
			return
		}
	}
	if align == 1 {
		w.element(tBinary)
		w.buf.AppendU32(uint32(len(b)))
		w.buf.Append(b)
		return
	}
	if align > w.buf.Align() {
		if !w.opt.HigherAlignment {
			panic("bindoc: payload alignment exceeds document alignment; set Options.HigherAlignment")
		}
		w.buf.Raise(align)
		w.buf.PatchU32(alignPatch, uint32(align))
	}
	w.element(tAligned)
	w.buf.AppendU32(uint32(len(b)))
	w.buf.AppendU32(uint32(align))
	w.buf.AppendU32(0)
	i := w.buf.Len()
	start := w.buf.AppendAligned(b, align)
	w.buf.PatchU32(i-4, uint32(start-i))
}

// compressed writes the payload through the codec. A codec that fails
// or fails to shrink the payload is skipped and the payload goes out
// uncompressed.
func (w *Writer) compressed(b []byte, align int, c compress.Compressor) bool {
	out, err := c.Compress(b)
	if err != nil || len(out) >= len(b) {
		return false
	}
	w.element(tCompressed)
	w.buf.AppendU32(uint32(len(out)))
	w.buf.AppendU32(uint32(align))
	w.buf.AppendByte(c.Code())
	w.buf.Append(out)
	return true
}

func (w *Writer) BeginSeq() {
	w.element(tSeq)
	w.beginDoc()
}

func (w *Writer) BeginMap() {
	w.element(tDoc)
	w.beginDoc()
}

// Key stages the name of the next element. Names are cstrings on the
// wire, so a NUL byte inside one would truncate it on decode; that is
// a producer contract violation and panics like a bad alignment does.
func (w *Writer) Key(k string) {
	if strings.IndexByte(k, 0x00) >= 0 {
		panic("bindoc: element key contains NUL")
	}
	w.key = k
}

func (w *Writer) End() {
	w.endDoc()
}
