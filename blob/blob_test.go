package blob

import (
	"bytes"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// inside reports whether the slice view lives within the backing run.
func inside(view, backing []byte) bool {
	if len(view) == 0 {
		return true
	}
	lo, hi := addr(backing), addr(backing)+uintptr(len(backing))
	return addr(view) >= lo && addr(view)+uintptr(len(view)) <= hi
}

func TestMarkedRoundtrip(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03}
	for _, align := range []int{1, 2, 4, 8, 16, 32, 64} {
		enc := AppendMarked(nil, payload, align)
		require.Equal(t, byte(Sentinel), enc[0])

		got, a, ok := DecodeMarked(enc, 0, len(enc))
		require.True(t, ok, "align %d", align)
		require.Equal(t, align, a)
		require.Equal(t, payload, got)
		assert.True(t, Aligned(got, align), "align %d", align)
		assert.True(t, inside(got, enc), "decode must borrow, align %d", align)
	}
}

func TestMarkedRoundtripAtOffsets(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	// the run rarely starts at the buffer base in real documents
	for shift := 0; shift < 9; shift++ {
		buf := append(bytes.Repeat([]byte{'x'}, shift), AppendMarked(nil, payload, 8)...)
		got, a, ok := DecodeMarked(buf, shift, len(buf))
		require.True(t, ok, "shift %d", shift)
		require.Equal(t, 8, a)
		require.Equal(t, payload, got)
		assert.True(t, Aligned(got, 8), "shift %d", shift)
		assert.True(t, inside(got, buf), "shift %d", shift)
	}
}

func TestMarkedEmptyPayload(t *testing.T) {
	enc := AppendMarked(nil, nil, 4)
	got, a, ok := DecodeMarked(enc, 0, len(enc))
	require.True(t, ok)
	require.Equal(t, 4, a)
	require.Empty(t, got)
}

func TestMarkedMalformed(t *testing.T) {
	cases := map[string]string{
		"missing sentinel": "0102",
		"odd hex":          "#abc",
		"bad hex digit":    "#zz",
		"align not pow2":   "#---ff" + "ff",
		"align too large":  "#" + string(bytes.Repeat([]byte{Filler}, 128)) + "ff",
	}
	for name, in := range cases {
		buf := []byte(in)
		_, _, ok := DecodeMarked(buf, 0, len(buf))
		assert.False(t, ok, name)
	}
}

func TestAppendMarkedRejectsBadAlignment(t *testing.T) {
	require.Panics(t, func() { AppendMarked(nil, []byte{1}, 3) })
	require.Panics(t, func() { AppendMarked(nil, []byte{1}, 128) })
}

func TestValidAlign(t *testing.T) {
	for _, a := range []int{1, 2, 4, 8, 16, 32, 64} {
		assert.True(t, ValidAlign(a), "align %d", a)
	}
	for _, a := range []int{0, -1, 3, 6, 65, 128} {
		assert.False(t, ValidAlign(a), "align %d", a)
	}
}

func TestViewBorrowsWhenAligned(t *testing.T) {
	b := AlignedCopy([]byte{1, 2, 3, 4}, 32)
	view, borrowed := View(b, 32)
	require.True(t, borrowed)
	require.Equal(t, addr(b), addr(view))

	// slicing one byte off an aligned base is guaranteed misaligned
	src := AlignedCopy(make([]byte, 65), 64)[1:5]
	view, borrowed = View(src, 64)
	require.False(t, borrowed)
	require.True(t, Aligned(view, 64))
	require.NotEqual(t, addr(src), addr(view))
}

func TestAlignedCopy(t *testing.T) {
	for _, align := range []int{1, 8, 64} {
		c := AlignedCopy([]byte{9, 9, 9}, align)
		require.Equal(t, []byte{9, 9, 9}, c)
		require.True(t, Aligned(c, align))
	}
}

func TestGuessAlign(t *testing.T) {
	assert.Equal(t, MaxAlign, GuessAlign(0))
	assert.Equal(t, MaxAlign, GuessAlign(128))
	assert.Equal(t, 2, GuessAlign(2))
	assert.Equal(t, 4, GuessAlign(100))
	assert.Equal(t, 1, GuessAlign(7))
}

func TestBufferAlignedBase(t *testing.T) {
	b := NewBuffer()
	b.Append([]byte("abcdef"))
	require.Equal(t, 6, b.Len())
	require.Zero(t, addr(b.Bytes())%BaseAlign)

	// growth keeps both content and base alignment
	big := bytes.Repeat([]byte{7}, 1000)
	b.Append(big)
	require.Equal(t, append([]byte("abcdef"), big...), b.Bytes())
	require.Zero(t, addr(b.Bytes())%BaseAlign)
}

func TestBufferRaise(t *testing.T) {
	b := NewBuffer()
	b.Append([]byte{1, 2, 3})
	b.Raise(64)
	require.Equal(t, 64, b.Align())
	require.Equal(t, []byte{1, 2, 3}, b.Bytes())
	require.Zero(t, addr(b.Bytes())%64)

	require.Panics(t, func() { b.Raise(3) })
}

func TestBufferAppendAligned(t *testing.T) {
	b := NewBuffer()
	b.Append([]byte{0xAA}) // knock the index off alignment
	start := b.AppendAligned([]byte{1, 2, 3, 4}, 4)
	require.Zero(t, start%4)
	out := b.Bytes()
	require.Equal(t, []byte{1, 2, 3, 4}, out[start:start+4])
	require.Zero(t, addr(out[start:])%4)
}

func TestBufferPatchU32(t *testing.T) {
	b := NewBuffer()
	b.AppendU32(0)
	b.AppendByte(9)
	b.PatchU32(0, 0xDEADBEEF)
	out := b.Bytes()
	require.Equal(t, []byte{0xEF, 0xBE, 0xAD, 0xDE, 9}, out)
}
