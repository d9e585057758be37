package bindoc

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
	"unsafe"

	"github.com/rawbytedev/tokdoc/blob"
	"github.com/rawbytedev/tokdoc/de"
	"github.com/rawbytedev/tokdoc/pkg/compress"
)

type tframe struct {
	isMap bool
	end   int // terminator byte index
}

// Tokenizer pulls decode tokens out of a binary document. Strings and
// binary payloads borrow from the input buffer where they can; an
// aligned payload that does not sit at a satisfying address in this
// particular buffer is copied out instead of failing, so the document
// stays readable wherever it landed in memory.
type Tokenizer struct {
	data    []byte
	pos     int
	stack   []tframe
	pending byte // value type announced by a map key, 0 when none
	started bool
	opt     Options
}

func NewTokenizer(data []byte, opt Options) *Tokenizer {
	return &Tokenizer{data: data, opt: opt}
}

func (t *Tokenizer) fail(msg string) error {
	return de.Fail(t.opt.Diagnostics, t.pos, msg)
}

func (t *Tokenizer) readU8() (byte, error) {
	if t.pos >= len(t.data) {
		return 0, t.fail("unexpected end of document")
	}
	c := t.data[t.pos]
	t.pos++
	return c, nil
}

func (t *Tokenizer) readU32() (uint32, error) {
	if len(t.data)-t.pos < 4 {
		return 0, t.fail("unexpected end of document")
	}
	v := binary.LittleEndian.Uint32(t.data[t.pos:])
	t.pos += 4
	return v, nil
}

func (t *Tokenizer) readU64() (uint64, error) {
	if len(t.data)-t.pos < 8 {
		return 0, t.fail("unexpected end of document")
	}
	v := binary.LittleEndian.Uint64(t.data[t.pos:])
	t.pos += 8
	return v, nil
}

func (t *Tokenizer) readBytes(n int) ([]byte, error) {
	if n < 0 || len(t.data)-t.pos < n {
		return nil, t.fail("unexpected end of document")
	}
	b := t.data[t.pos : t.pos+n : t.pos+n]
	t.pos += n
	return b, nil
}

// cstring consumes bytes up to and including the next NUL.
func (t *Tokenizer) cstring() (string, error) {
	start := t.pos
	for t.pos < len(t.data) {
		if t.data[t.pos] == 0 {
			b := t.data[start:t.pos]
			t.pos++
			if len(b) == 0 {
				return "", nil
			}
			if t.opt.UnsafeStrings {
				return unsafe.String(unsafe.SliceData(b), len(b)), nil
			}
			return string(b), nil
		}
		t.pos++
	}
	return "", t.fail("unterminated name")
}

// start consumes the root document header. The optional "align" first
// field records the alignment the producing buffer held; it needs no
// enforcement here because misaligned payloads are copied on read.
func (t *Tokenizer) start() error {
	size, err := t.readU32()
	if err != nil {
		return err
	}
	if int(size) > len(t.data) || size < 5 {
		return t.fail("root document size out of range")
	}
	ty, key, err := t.header()
	if err != nil {
		return err
	}
	if key == "align" {
		if ty != tUint32 {
			return t.fail("malformed align field")
		}
		if _, err := t.readU32(); err != nil {
			return err
		}
		if ty, key, err = t.header(); err != nil {
			return err
		}
	}
	if key != "" {
		return t.fail("root value must carry a blank name")
	}
	t.pending = ty
	return nil
}

func (t *Tokenizer) header() (ty byte, key string, err error) {
	if ty, err = t.readU8(); err != nil {
		return 0, "", err
	}
	key, err = t.cstring()
	return ty, key, err
}

// Next implements de.Tokenizer.
func (t *Tokenizer) Next() (de.Token, error) {
	if !t.started {
		t.started = true
		if err := t.start(); err != nil {
			return de.Token{}, err
		}
	}
	if ty := t.pending; ty != 0 {
		t.pending = 0
		return t.value(ty)
	}
	if len(t.stack) == 0 {
		return de.Token{}, t.fail("token past end of document")
	}
	top := t.stack[len(t.stack)-1]
	if t.pos >= top.end {
		if t.pos != top.end {
			return de.Token{}, t.fail("document overran its size")
		}
		c, err := t.readU8()
		if err != nil {
			return de.Token{}, err
		}
		if c != 0 {
			return de.Token{}, t.fail("document not terminated")
		}
		t.stack = t.stack[:len(t.stack)-1]
		return de.Token{Kind: de.TokenEnd}, nil
	}
	ty, key, err := t.header()
	if err != nil {
		return de.Token{}, err
	}
	if top.isMap {
		t.pending = ty
		return de.Token{Kind: de.TokenKey, Str: key}, nil
	}
	return t.value(ty)
}

func (t *Tokenizer) value(ty byte) (de.Token, error) {
	switch ty {
	case tNull:
		return de.Token{Kind: de.TokenNull}, nil
	case tBool:
		c, err := t.readU8()
		if err != nil {
			return de.Token{}, err
		}
		return de.Token{Kind: de.TokenBool, Bool: c != 0}, nil
	case tInt8:
		c, err := t.readU8()
		if err != nil {
			return de.Token{}, err
		}
		return de.Token{Kind: de.TokenInt, Int: int64(int8(c))}, nil
	case tInt32:
		v, err := t.readU32()
		if err != nil {
			return de.Token{}, err
		}
		return de.Token{Kind: de.TokenInt, Int: int64(int32(v))}, nil
	case tInt64:
		v, err := t.readU64()
		if err != nil {
			return de.Token{}, err
		}
		return de.Token{Kind: de.TokenInt, Int: int64(v)}, nil
	case tUint8:
		c, err := t.readU8()
		if err != nil {
			return de.Token{}, err
		}
		return de.Token{Kind: de.TokenUint, Uint: uint64(c)}, nil
	case tUint32:
		v, err := t.readU32()
		if err != nil {
			return de.Token{}, err
		}
		return de.Token{Kind: de.TokenUint, Uint: uint64(v)}, nil
	case tUint64:
		v, err := t.readU64()
		if err != nil {
			return de.Token{}, err
		}
		return de.Token{Kind: de.TokenUint, Uint: v}, nil
	case tFloat32:
		v, err := t.readU32()
		if err != nil {
			return de.Token{}, err
		}
		return de.Token{Kind: de.TokenFloat32, Float: float64(math.Float32frombits(v))}, nil
	case tFloat64:
		v, err := t.readU64()
		if err != nil {
			return de.Token{}, err
		}
		return de.Token{Kind: de.TokenFloat64, Float: math.Float64frombits(v)}, nil
	case tString:
		return t.stringValue()
	case tBinary:
		n, err := t.readU32()
		if err != nil {
			return de.Token{}, err
		}
		b, err := t.readBytes(int(n))
		if err != nil {
			return de.Token{}, err
		}
		return de.Token{Kind: de.TokenBytes, Bytes: b, Align: 1}, nil
	case tAligned:
		return t.alignedValue()
	case tCompressed:
		return t.compressedValue()
	case tSeq, tDoc:
		size, err := t.readU32()
		if err != nil {
			return de.Token{}, err
		}
		end := t.pos + int(size) - 5
		if size < 5 || end >= len(t.data) {
			return de.Token{}, t.fail("document size out of range")
		}
		t.stack = append(t.stack, tframe{isMap: ty == tDoc, end: end})
		if ty == tDoc {
			return de.Token{Kind: de.TokenBeginMap}, nil
		}
		return de.Token{Kind: de.TokenBeginSeq}, nil
	}
	return de.Token{}, t.fail("unknown element type")
}

func (t *Tokenizer) stringValue() (de.Token, error) {
	n, err := t.readU32()
	if err != nil {
		return de.Token{}, err
	}
	if n == 0 {
		return de.Token{}, t.fail("string length out of range")
	}
	b, err := t.readBytes(int(n) - 1)
	if err != nil {
		return de.Token{}, err
	}
	nul, err := t.readU8()
	if err != nil {
		return de.Token{}, err
	}
	if nul != 0 {
		return de.Token{}, t.fail("string not terminated")
	}
	if !utf8.Valid(b) {
		return de.Token{}, t.fail("string is not valid utf-8")
	}
	var s string
	if t.opt.UnsafeStrings {
		s = unsafe.String(unsafe.SliceData(b), len(b))
		if len(b) == 0 {
			s = ""
		}
	} else {
		s = string(b)
	}
	return de.Token{Kind: de.TokenString, Str: s}, nil
}

// alignedValue reads an aligned payload: length, alignment, then the
// pad distance to the payload. The payload is borrowed when the input
// buffer happens to satisfy the alignment here and copied otherwise.
func (t *Tokenizer) alignedValue() (de.Token, error) {
	n, err := t.readU32()
	if err != nil {
		return de.Token{}, err
	}
	align, err := t.readU32()
	if err != nil {
		return de.Token{}, err
	}
	offset, err := t.readU32()
	if err != nil {
		return de.Token{}, err
	}
	if !blob.ValidAlign(int(align)) {
		return de.Token{}, t.fail("invalid payload alignment")
	}
	if _, err := t.readBytes(int(offset)); err != nil {
		return de.Token{}, err
	}
	b, err := t.readBytes(int(n))
	if err != nil {
		return de.Token{}, err
	}
	view, _ := blob.View(b, int(align))
	return de.Token{Kind: de.TokenBytes, Bytes: view, Align: int(align)}, nil
}

func (t *Tokenizer) compressedValue() (de.Token, error) {
	n, err := t.readU32()
	if err != nil {
		return de.Token{}, err
	}
	align, err := t.readU32()
	if err != nil {
		return de.Token{}, err
	}
	code, err := t.readU8()
	if err != nil {
		return de.Token{}, err
	}
	if !blob.ValidAlign(int(align)) {
		return de.Token{}, t.fail("invalid payload alignment")
	}
	body, err := t.readBytes(int(n))
	if err != nil {
		return de.Token{}, err
	}
	c, err := compress.Get(code)
	if err != nil {
		return de.Token{}, t.fail("unknown compression code")
	}
	out, err := c.Uncompress(body)
	if err != nil {
		return de.Token{}, t.fail("corrupt compressed payload")
	}
	view, _ := blob.View(out, int(align))
	return de.Token{Kind: de.TokenBytes, Bytes: view, Align: int(align)}, nil
}

// Trailing verifies the root document terminator and that the whole
// input was consumed.
func (t *Tokenizer) Trailing() error {
	c, err := t.readU8()
	if err != nil {
		return err
	}
	if c != 0 {
		return t.fail("root document not terminated")
	}
	if t.pos != len(t.data) {
		return t.fail("trailing data after document")
	}
	return nil
}
