// Package blob is the zero-copy aligned-binary codec shared by the
// format backends. A binary payload always travels with a required
// alignment (a power of two, at most MaxAlign); decoding returns a
// view into the source buffer whenever the payload already sits at a
// satisfying address, and a fresh correctly-aligned copy otherwise.
//
// Text embedding uses a marked run inside an ordinary string:
//
//	'#' sentinel, align '-' fillers (none for alignment 1), hex payload
//
// The filler count both declares the alignment and provides slack: hex
// shrinks 2:1 when decoded in place inside the caller's mutable input
// buffer, and a window of align+1 addresses always contains an aligned
// one, so the decoded payload can be slid to a satisfying address
// without copying.
package blob

import "unsafe"

const (
	// Sentinel introduces a marked binary run inside a string.
	Sentinel = '#'
	// Filler pads a marked run; the count equals the alignment.
	Filler = '-'
	// MaxAlign is the largest alignment the codec accepts.
	MaxAlign = 64
)

const hexDigits = "0123456789abcdef"

// ValidAlign reports whether align is a power of two within the
// supported range.
func ValidAlign(align int) bool {
	return align > 0 && align <= MaxAlign && align&(align-1) == 0
}

// AppendMarked appends the marked-run encoding of b with the given
/// alignment. Panics on an invalid alignment: encoding is infallible
// and a bad alignment is a producer contract violation.
func AppendMarked(dst []byte, b []byte, align int) []byte {
	if !ValidAlign(align) {
		panic("blob: alignment must be a power of two <= 64")
	}
	dst = append(dst, Sentinel)
	if align > 1 {
		for i := 0; i < align; i++ {
			dst = append(dst, Filler)
		}
	}
	for _, c := range b {
		dst = append(dst, hexDigits[c>>4], hexDigits[c&0xf])
	}
	return dst
}

/// DecodeMarked decodes the marked run occupying buf[start:end], where
// buf[start] is the sentinel. The payload is written into the run's
// own bytes, left of the hex digits it comes from, at the first
// address inside the slack window satisfying the alignment; the
// returned slice therefore borrows from buf. ok is false on a
// malformed run.
func DecodeMarked(buf []byte, start, end int) (b []byte, align int, ok bool) {
	if start >= end || buf[start] != Sentinel {
		return nil, 0, false
	}
	h := start + 1
	for h < end && buf[h] == Filler {
		h++
	}
	align = h - start - 1
	if align == 0 {
		align = 1
	}
	if !ValidAlign(align) {
		return nil, 0, false
	}
	hexLen := end - h
	if hexLen%2 != 0 {
		return nil, 0, false
	}
	n := hexLen / 2

	base := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	off := start + int((uintptr(align)-(base+uintptr(start))%uintptr(align))%uintptr(align))
	// The slack window [start, start+align] always reaches h before
	// the first unread hex pair, so forward in-place decoding is safe.
	for i := 0; i < n; i++ {
		hi := unhex(buf[h+2*i])
		lo := unhex(buf[h+2*i+1])
		if hi < 0 || lo < 0 {
			return nil, 0, false
		}
		buf[off+i] = byte(hi<<4 | lo)
	}
	return buf[off : off+n : off+n], align, true
}

func unhex(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

// Aligned reports whether b starts at an address satisfying align.
// The empty slice satisfies everything.
func Aligned(b []byte, align int) bool {
	if len(b) == 0 || align <= 1 {
		return true
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))%uintptr(align) == 0
}

// AlignedCopy returns a fresh correctly-aligned owned copy of b.
func AlignedCopy(b []byte, align int) []byte {
	if align <= 1 {
		c := make([]byte, len(b))
		copy(c, b)
		return c
	}
	raw := make([]byte, len(b)+align-1)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	off := int((uintptr(align) - base%uintptr(align)) % uintptr(align))
	c := raw[off : off+len(b) : off+len(b)]
	copy(c, b)
	return c
}

// View returns b itself when it already satisfies align (zero-copy,
// borrowed == true) and an aligned copy otherwise.
func View(b []byte, align int) (view []byte, borrowed bool) {
	if Aligned(b, align) {
		return b, true
	}
	return AlignedCopy(b, align), false
}

// GuessAlign reports the largest supported alignment the address p
// satisfies.
func GuessAlign(p uintptr) int {
	if p == 0 {
		return MaxAlign
	}
	for a := uintptr(MaxAlign); a > 1; a >>= 1 {
		if p%a == 0 {
			return int(a)
		}
	}
	return 1
}
