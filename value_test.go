package tokdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawbytedev/tokdoc/pkg/bindoc"
	"github.com/rawbytedev/tokdoc/pkg/jsontext"
)

func obj(members ...Member) Value { return Value{Kind: KindObject, Object: members} }
func arr(elems ...Value) Value    { return Value{Kind: KindArray, Array: elems} }
func str(s string) Value          { return Value{Kind: KindString, Str: s} }
func num(n uint64) Value          { return Value{Kind: KindUint, Uint: n} }

func TestObjectLastWins(t *testing.T) {
	var o Object
	o.Set("a", num(1))
	o.Set("b", num(2))
	o.Set("a", num(3))

	require.Len(t, o, 2)
	require.Equal(t, "a", o[0].Key) // replaced in place, order kept
	v, ok := o.Get("a")
	require.True(t, ok)
	require.Equal(t, num(3), v)

	_, ok = o.Get("missing")
	require.False(t, ok)
}

func TestEqualNumericCrossKinds(t *testing.T) {
	pos := Value{Kind: KindInt, Int: 7}
	assert.True(t, pos.Equal(num(7)))
	assert.True(t, num(7).Equal(pos))

	neg := Value{Kind: KindInt, Int: -7}
	assert.False(t, neg.Equal(num(7)))
	assert.False(t, pos.Equal(num(8)))
	assert.False(t, pos.Equal(str("7")))
}

func TestEqualFloatCrossWidths(t *testing.T) {
	// Text carries no float width: a Float32 comes back as Float64,
	// reparsed from its 32-bit shortest spelling. The kinds compare at
	// the narrower width.
	half := Value{Kind: KindFloat32, Float: float64(float32(0.1))}
	wide := Value{Kind: KindFloat64, Float: 0.1}
	assert.True(t, half.Equal(wide))
	assert.True(t, wide.Equal(half))

	assert.False(t, half.Equal(Value{Kind: KindFloat64, Float: 0.2}))

	// Same-width comparisons stay exact.
	assert.False(t, wide.Equal(Value{Kind: KindFloat64, Float: float64(float32(0.1))}))
}

func TestEqualStructural(t *testing.T) {
	a := obj(
		Member{Key: "xs", Value: arr(num(1), num(2))},
		Member{Key: "s", Value: str("hi")},
		Member{Key: "b", Value: Value{Kind: KindBytes, Bytes: []byte{1, 2}, Align: 8}},
	)
	b := obj(
		Member{Key: "xs", Value: arr(num(1), num(2))},
		Member{Key: "s", Value: str("hi")},
		Member{Key: "b", Value: Value{Kind: KindBytes, Bytes: []byte{1, 2}, Align: 8}},
	)
	require.True(t, a.Equal(b))

	// key order matters
	c := obj(b.Object[1], b.Object[0], b.Object[2])
	require.False(t, a.Equal(c))

	// alignment is part of a payload's identity
	d := obj(
		Member{Key: "xs", Value: arr(num(1), num(2))},
		Member{Key: "s", Value: str("hi")},
		Member{Key: "b", Value: Value{Kind: KindBytes, Bytes: []byte{1, 2}, Align: 16}},
	)
	require.False(t, a.Equal(d))
}

func TestEqualDeep(t *testing.T) {
	build := func() Value {
		v := Value{Kind: KindNull}
		for i := 0; i < 100000; i++ {
			v = arr(v)
		}
		return v
	}
	require.True(t, build().Equal(build()))
}

func sample() Value {
	return obj(
		Member{Key: "id", Value: num(42)},
		Member{Key: "name", Value: str("mesh")},
		Member{Key: "neg", Value: Value{Kind: KindInt, Int: -9}},
		Member{Key: "ratio", Value: Value{Kind: KindFloat64, Float: 0.25}},
		Member{Key: "half", Value: Value{Kind: KindFloat32, Float: float64(float32(0.1))}},
		Member{Key: "on", Value: Value{Kind: KindBool, Bool: true}},
		Member{Key: "none", Value: Value{Kind: KindNull}},
		Member{Key: "verts", Value: Value{Kind: KindBytes, Bytes: []byte{1, 0, 0, 0, 2, 0, 0, 0}, Align: 4}},
		Member{Key: "tags", Value: arr(str("a"), str("b"))},
	)
}

func TestValueRoundtripJSON(t *testing.T) {
	data := jsontext.Marshal(sample(), nil)

	var got Value
	var set bool
	require.NoError(t, jsontext.Unmarshal(data, ValueVisitor(&got, &set), nil))
	require.True(t, set)
	require.True(t, sample().Equal(got), "decoded: %#v", got)
}

func TestValueRoundtripBindoc(t *testing.T) {
	data := bindoc.Marshal(sample(), nil)

	var got Value
	var set bool
	require.NoError(t, bindoc.Unmarshal(data, ValueVisitor(&got, &set), nil))
	require.True(t, set)
	require.True(t, sample().Equal(got), "decoded: %#v", got)
}

func TestValueConvertBetweenFormats(t *testing.T) {
	bin := bindoc.Marshal(sample(), nil)

	var mid Value
	require.NoError(t, bindoc.Unmarshal(bin, ValueVisitor(&mid, nil), nil))
	text := jsontext.Marshal(mid, nil)

	var back Value
	require.NoError(t, jsontext.Unmarshal(text, ValueVisitor(&back, nil), nil))
	require.True(t, sample().Equal(back))
}

func TestBytesRoundtrip(t *testing.T) {
	in := Bytes{Data: []byte{5, 6, 7, 8}, Align: 4}
	data := jsontext.Marshal(in, nil)

	var out Bytes
	var set bool
	require.NoError(t, jsontext.Unmarshal(data, BytesVisitor(&out, &set), nil))
	require.True(t, set)
	require.Equal(t, in, out)
}

func TestValueVisitorCopiesPayloads(t *testing.T) {
	data := jsontext.Marshal(Bytes{Data: []byte{9, 9}, Align: 1}, nil)

	var got Value
	require.NoError(t, jsontext.Unmarshal(data, ValueVisitor(&got, nil), nil))
	require.Equal(t, KindBytes, got.Kind)
	before := append([]byte(nil), got.Bytes...)
	for i := range data {
		data[i] = 0
	}
	require.Equal(t, before, got.Bytes) // owned, not borrowed
}
