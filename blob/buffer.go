package blob

import (
	"encoding/binary"
	"unsafe"
)

// BaseAlign is the default base alignment a binary document's backing
// buffer guarantees.
const BaseAlign = 4

// Buffer is a growable byte buffer whose base address always satisfies
// the maximum alignment requested so far. Padding computed relative to
// the buffer index therefore also holds for the final address, which
// is what lets a decoder recover aligned payloads without guessing.
type Buffer struct {
	raw   []byte
	off   int // start of the aligned window inside raw
	n     int // bytes written
	align int // base alignment guarantee
}

func NewBuffer() *Buffer { return &Buffer{align: BaseAlign} }

func (b *Buffer) Len() int { return b.n }

// Align reports the current base alignment guarantee.
func (b *Buffer) Align() int { return b.align }

// Bytes returns the written window. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte { return b.raw[b.off : b.off+b.n] }

func (b *Buffer) base() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b.raw))) + uintptr(b.off)
}

// grow reallocates so at least need more bytes fit and the base stays
// aligned.
func (b *Buffer) grow(need int) {
	if b.off+b.n+need <= len(b.raw) {
		return
	}
	cap := (b.n + need) * 2
	if cap < 64 {
		cap = 64
	}
	raw := make([]byte, cap+b.align-1)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	off := int((uintptr(b.align) - base%uintptr(b.align)) % uintptr(b.align))
	copy(raw[off:], b.Bytes())
	b.raw, b.off = raw, off
}

// Raise lifts the base alignment guarantee, moving the window when the
// current base no longer qualifies.
func (b *Buffer) Raise(align int) {
	if !ValidAlign(align) {
		panic("blob: alignment must be a power of two <= 64")
	}
	if align <= b.align {
		return
	}
	b.align = align
	if b.raw == nil || b.base()%uintptr(align) == 0 {
		return
	}
	raw := make([]byte, len(b.raw)+align-1)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	off := int((uintptr(align) - base%uintptr(align)) % uintptr(align))
	copy(raw[off:], b.Bytes())
	b.raw, b.off = raw, off
}

func (b *Buffer) Append(p []byte) {
	b.grow(len(p))
	copy(b.raw[b.off+b.n:], p)
	b.n += len(p)
}

func (b *Buffer) AppendByte(c byte) {
	b.grow(1)
	b.raw[b.off+b.n] = c
	b.n++
}

// AppendRepeat appends the byte c n times.
func (b *Buffer) AppendRepeat(c byte, n int) {
	b.grow(n)
	for i := 0; i < n; i++ {
		b.raw[b.off+b.n+i] = c
	}
	b.n += n
}

func (b *Buffer) AppendU32(v uint32) {
	b.grow(4)
	binary.LittleEndian.PutUint32(b.raw[b.off+b.n:], v)
	b.n += 4
}

func (b *Buffer) AppendU64(v uint64) {
	b.grow(8)
	binary.LittleEndian.PutUint64(b.raw[b.off+b.n:], v)
	b.n += 8
}

// PatchU32 rewrites 4 bytes at index i. Used for length back-patching.
func (b *Buffer) PatchU32(i int, v uint32) {
	binary.LittleEndian.PutUint32(b.raw[b.off+i:], v)
}

// AppendAligned pads until the next index satisfying align, raising
// the base guarantee first if needed, then appends p. Returns the
// index where p starts.
func (b *Buffer) AppendAligned(p []byte, align int) int {
	b.Raise(align)
	pad := (align - b.n%align) % align
	b.AppendRepeat(0, pad)
	start := b.n
	b.Append(p)
	return start
}
