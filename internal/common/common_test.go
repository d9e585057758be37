package common

import (
	"reflect"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarUintRoundtrip(t *testing.T) {
	condition := func(x uint64) bool {
		buf := WriteVarUint(nil, x)
		got, n := ReadVarUint(buf)
		return got == x && n == len(buf)
	}
	require.NoError(t, quick.Check(condition, &quick.Config{}))

	// truncated input reports zero consumed
	buf := WriteVarUint(nil, 1<<40)
	_, n := ReadVarUint(buf[:len(buf)-1])
	require.Zero(t, n)
}

func TestFixedKinds(t *testing.T) {
	widths := map[reflect.Kind]int{
		reflect.Bool: 1, reflect.Int8: 1, reflect.Uint8: 1,
		reflect.Int16: 2, reflect.Uint16: 2,
		reflect.Int32: 4, reflect.Uint32: 4, reflect.Float32: 4,
		reflect.Int64: 8, reflect.Uint64: 8, reflect.Float64: 8,
	}
	for k, w := range widths {
		assert.True(t, IsFixedKind(k), k.String())
		assert.Equal(t, w, FixedSize(k), k.String())
	}
	assert.False(t, IsFixedKind(reflect.String))
	assert.False(t, IsFixedKind(reflect.Int))
	assert.Equal(t, -1, FixedSize(reflect.String))
}

func TestPrimBytesSetFixedRoundtrip(t *testing.T) {
	src := []int32{1, -2, 1 << 20}
	raw := PrimBytes(reflect.ValueOf(src))
	require.Len(t, raw, 12)

	out := make([]int32, len(src))
	for i := range out {
		SetFixed(reflect.ValueOf(out).Index(i), raw[i*4:], reflect.Int32)
	}
	require.Equal(t, src, out)

	require.Nil(t, PrimBytes(reflect.ValueOf([]float64{})))
}

func TestSetUnsafeFixedAliases(t *testing.T) {
	src := []uint16{10, 20, 30}
	raw := PrimBytes(reflect.ValueOf(src))

	var out []uint16
	SetUnsafeFixed(reflect.ValueOf(&out).Elem(), raw, len(src))
	require.Equal(t, src, out)

	src[1] = 99
	require.Equal(t, uint16(99), out[1])

	var empty []uint16
	SetUnsafeFixed(reflect.ValueOf(&empty).Elem(), nil, 0)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestSetUnsafeFixedNamedSliceType(t *testing.T) {
	type ids []uint16
	src := []uint16{7, 8}
	raw := PrimBytes(reflect.ValueOf(src))

	var out ids
	SetUnsafeFixed(reflect.ValueOf(&out).Elem(), raw, len(src))
	require.Equal(t, ids{7, 8}, out)
}
