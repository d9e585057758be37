package reflectgen

import (
	"testing"
	"testing/quick"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tokdoc "github.com/rawbytedev/tokdoc"
	"github.com/rawbytedev/tokdoc/de"
	"github.com/rawbytedev/tokdoc/pkg/bindoc"
	"github.com/rawbytedev/tokdoc/pkg/jsontext"
)

type MixedStruct struct {
	Val      string
	Mod      int8
	Data     string
	Integers int16
	Float3   float32
	Float6   float64
}

func encodeBin(t *testing.T, v any, opt Options) []byte {
	t.Helper()
	p, err := ProducerOptions(v, opt)
	require.NoError(t, err)
	return bindoc.Marshal(p, nil)
}

func decodeBin(t *testing.T, data []byte, out any, opt Options) {
	t.Helper()
	c, err := ConsumerOptions(out, opt)
	require.NoError(t, err)
	require.NoError(t, bindoc.Unmarshal(data, c, nil))
}

func encodeJSON(t *testing.T, v any) []byte {
	t.Helper()
	p, err := Producer(v)
	require.NoError(t, err)
	return jsontext.Marshal(p, nil)
}

func decodeJSON(t *testing.T, data []byte, out any) error {
	t.Helper()
	c, err := Consumer(out)
	require.NoError(t, err)
	return jsontext.Unmarshal(data, c, nil)
}

func TestStructRoundtripBindoc(t *testing.T) {
	val := MixedStruct{Val: "azerty", Mod: -17, Data: "testing",
		Integers: -12, Float3: 12.3, Float6: 1236.2}
	res := &MixedStruct{}
	decodeBin(t, encodeBin(t, val, Options{}), res, Options{})
	require.EqualExportedValues(t, val, *res)
}

func TestStructRoundtripJSON(t *testing.T) {
	val := MixedStruct{Val: "azerty", Mod: 17, Integers: 300, Float3: 0.5, Float6: -2.25}
	res := &MixedStruct{}
	require.NoError(t, decodeJSON(t, encodeJSON(t, val), res))
	require.EqualExportedValues(t, val, *res)
}

func FuzzRoundtrip(f *testing.F) {
	f.Fuzz(func(t *testing.T, Val string, Mod int8, Data string, Integers int16) {
		val := MixedStruct{Val: Val, Mod: Mod, Data: Data, Integers: Integers}
		res := &MixedStruct{}
		decodeBin(t, encodeBin(t, val, Options{}), res, Options{})
		require.EqualExportedValues(t, val, *res)
	})
}

func TestQuickRoundtrip(t *testing.T) {
	type payload struct {
		Name string
		N    int64
		U    uint32
		Ok   bool
	}
	condition := func(p payload) bool {
		out := &payload{}
		enc, err := ProducerOptions(p, Options{})
		if err != nil {
			return false
		}
		c, err := Consumer(out)
		if err != nil {
			return false
		}
		if err := bindoc.Unmarshal(bindoc.Marshal(enc, nil), c, nil); err != nil {
			return false
		}
		return assert.ObjectsAreEqual(p, *out)
	}
	require.NoError(t, quick.Check(condition, &quick.Config{}))
}

func TestTags(t *testing.T) {
	type tagged struct {
		A      int32  `tokdoc:"renamed"`
		Hidden string `tokdoc:"-"`
		folded int32 // unexported fields stay out of the wire shape
	}
	data := encodeJSON(t, tagged{A: 5, Hidden: "secret"})
	require.Equal(t, `{"renamed":5}`, string(data))

	out := &tagged{}
	require.NoError(t, decodeJSON(t, []byte(`{"renamed":9}`), out))
	require.Equal(t, int32(9), out.A)
	require.Empty(t, out.Hidden)
}

func TestPointerFieldsOptional(t *testing.T) {
	type rec struct {
		Name string
		Note *string
	}
	out := &rec{}
	require.NoError(t, decodeJSON(t, []byte(`{"Name":"a"}`), out))
	require.Equal(t, "a", out.Name)
	require.Nil(t, out.Note)

	require.NoError(t, decodeJSON(t, []byte(`{"Name":"a","Note":null}`), out))
	require.Nil(t, out.Note)

	require.NoError(t, decodeJSON(t, []byte(`{"Name":"a","Note":"n"}`), out))
	require.NotNil(t, out.Note)
	require.Equal(t, "n", *out.Note)

	// non-pointer fields stay required
	err := decodeJSON(t, []byte(`{"Note":"n"}`), &rec{})
	require.ErrorIs(t, err, de.ErrFailed)
}

func TestMissingFieldLeavesOutputUntouched(t *testing.T) {
	type rec struct{ A, B int32 }
	out := &rec{A: 77, B: 88}
	err := decodeJSON(t, []byte(`{"A":1}`), out)
	require.ErrorIs(t, err, de.ErrFailed)
	require.Equal(t, rec{A: 77, B: 88}, *out)
}

func TestUnknownFieldsSkipped(t *testing.T) {
	type rec struct {
		X int32 `tokdoc:"x"`
	}
	out := &rec{}
	require.NoError(t, decodeJSON(t, []byte(`{"junk":{"deep":[1,2]},"x":4}`), out))
	require.Equal(t, int32(4), out.X)
}

func TestExactFitNarrowing(t *testing.T) {
	var u8 uint8
	require.NoError(t, decodeJSON(t, []byte(`200`), &u8))
	require.Equal(t, uint8(200), u8)
	require.ErrorIs(t, decodeJSON(t, []byte(`300`), &u8), de.ErrFailed)

	var n int
	require.ErrorIs(t, decodeJSON(t, []byte(`3.5`), &n), de.ErrFailed)

	var f float64
	require.NoError(t, decodeJSON(t, []byte(`7`), &f))
	require.Equal(t, 7.0, f)
}

func TestContainers(t *testing.T) {
	type rec struct {
		Tags  []string
		Table map[string][]int32
		Grid  [2]uint8
	}
	val := rec{
		Tags:  []string{"a", "b"},
		Table: map[string][]int32{"x": {1, -2}, "y": {}},
		Grid:  [2]uint8{3, 4},
	}
	out := &rec{}
	decodeBin(t, encodeBin(t, val, Options{}), out, Options{})
	require.Equal(t, val.Tags, out.Tags)
	require.Equal(t, val.Grid, out.Grid)
	require.Len(t, out.Table, 2)
	require.Equal(t, []int32{1, -2}, out.Table["x"])
	require.Empty(t, out.Table["y"])
}

func TestMapKeysEncodeSorted(t *testing.T) {
	data := encodeJSON(t, map[string]uint8{"b": 2, "a": 1, "c": 3})
	require.Equal(t, `{"a":1,"b":2,"c":3}`, string(data))
}

func TestDocumentValueField(t *testing.T) {
	type rec struct {
		Meta tokdoc.Value
		Blob tokdoc.Bytes
	}
	val := rec{
		Meta: tokdoc.Value{Kind: tokdoc.KindString, Str: "anything"},
		Blob: tokdoc.Bytes{Data: []byte{1, 2, 3, 4}, Align: 4},
	}
	out := &rec{}
	decodeBin(t, encodeBin(t, val, Options{}), out, Options{})
	require.True(t, val.Meta.Equal(out.Meta))
	require.Equal(t, val.Blob, out.Blob)
}

func TestPackedPrimitives(t *testing.T) {
	val := []int32{1, -2, 3, -4}

	// packed: one aligned payload instead of a sequence
	data := encodeBin(t, val, Options{PackPrimitives: true})
	var out []int32
	decodeBin(t, data, &out, Options{})
	require.Equal(t, val, out)

	// unsafe decode aliases the document buffer
	var aliased []int32
	decodeBin(t, data, &aliased, Options{UnsafePrimitives: true})
	require.Equal(t, val, aliased)
	lo := uintptr(unsafe.Pointer(unsafe.SliceData(data)))
	p := uintptr(unsafe.Pointer(unsafe.SliceData(aliased)))
	assert.GreaterOrEqual(t, p, lo)
	assert.Less(t, p, lo+uintptr(len(data)))

	// packed data still decodes element-wise and vice versa
	plain := encodeBin(t, val, Options{})
	var crossed []int32
	decodeBin(t, plain, &crossed, Options{})
	require.Equal(t, val, crossed)
}

func TestUnsupportedTypes(t *testing.T) {
	_, err := Producer(map[int]string{})
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = Consumer(&struct{ C chan int }{})
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = Consumer(nil)
	require.Error(t, err)

	var notPtr int
	_, err = Consumer(notPtr)
	require.Error(t, err)
}

func TestRecursiveType(t *testing.T) {
	type node struct {
		Label string
		Next  *node
	}
	val := node{Label: "a", Next: &node{Label: "b"}}
	out := &node{}
	decodeBin(t, encodeBin(t, val, Options{}), out, Options{})
	require.Equal(t, "a", out.Label)
	require.NotNil(t, out.Next)
	require.Equal(t, "b", out.Next.Label)
	require.Nil(t, out.Next.Next)
}
