package ser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recWriter records engine events as readable strings.
type recWriter struct {
	events []string
}

func (w *recWriter) rec(s string)          { w.events = append(w.events, s) }
func (w *recWriter) Null()                 { w.rec("null") }
func (w *recWriter) Bool(b bool)           { w.rec(fmt.Sprintf("bool:%v", b)) }
func (w *recWriter) Int(n int64)           { w.rec(fmt.Sprintf("int:%d", n)) }
func (w *recWriter) Uint(n uint64)         { w.rec(fmt.Sprintf("uint:%d", n)) }
func (w *recWriter) Float32(f float32)     { w.rec(fmt.Sprintf("f32:%v", f)) }
func (w *recWriter) Float64(f float64)     { w.rec(fmt.Sprintf("f64:%v", f)) }
func (w *recWriter) String(s string)       { w.rec("str:" + s) }
func (w *recWriter) Bytes(b []byte, a int) { w.rec(fmt.Sprintf("bytes:%x/%d", b, a)) }
func (w *recWriter) BeginSeq()             { w.rec("[") }
func (w *recWriter) BeginMap()             { w.rec("{") }
func (w *recWriter) Key(k string)          { w.rec("key:" + k) }
func (w *recWriter) End()                  { w.rec("end") }

func record(v Serialize) []string {
	w := &recWriter{}
	Write(w, v, nil)
	return w.events
}

func TestWriteScalars(t *testing.T) {
	require.Equal(t, []string{"null"}, record(Null()))
	require.Equal(t, []string{"bool:true"}, record(Bool(true)))
	require.Equal(t, []string{"str:hi"}, record(String("hi")))
	require.Equal(t, []string{"f32:1.5"}, record(Float32(1.5)))
	require.Equal(t, []string{"f64:2.5"}, record(Float64(2.5)))
	require.Equal(t, []string{"bytes:0102/4"}, record(Bytes([]byte{1, 2}, 4)))
}

func TestNonnegativeIntsRideUnsignedChannel(t *testing.T) {
	require.Equal(t, []string{"uint:5"}, record(Int64(5)))
	require.Equal(t, []string{"uint:0"}, record(Int8(0)))
	require.Equal(t, []string{"int:-5"}, record(Int32(-5)))
	require.Equal(t, []string{"uint:300"}, record(Uint32(300)))
}

func TestFieldsDeclaredOrder(t *testing.T) {
	v := Fields(
		Field{Name: "b", Value: Uint8(2)},
		Field{Name: "a", Value: Uint8(1)},
		Field{Name: "c", Value: String("x")},
	)
	require.Equal(t, []string{
		"{", "key:b", "uint:2", "key:a", "uint:1", "key:c", "str:x", "end",
	}, record(v))
}

func TestSliceOf(t *testing.T) {
	v := SliceOf([]int32{3, -1, 2}, func(n int32) Serialize { return Int32(n) })
	require.Equal(t, []string{"[", "uint:3", "int:-1", "uint:2", "end"}, record(v))
}

func TestVariants(t *testing.T) {
	require.Equal(t, []string{"str:Quit"}, record(UnitVariant("Quit")))

	v := Variant("Move", Fields(
		Field{Name: "x", Value: Int32(-3)},
		Field{Name: "y", Value: Int32(4)},
	))
	require.Equal(t, []string{
		"{", "key:Move", "{", "key:x", "int:-3", "key:y", "uint:4", "end", "end",
	}, record(v))
}

// ctxSer proves the context reaches producers untouched at any depth.
type ctxSer struct{}

func (ctxSer) Begin(ctx any) Fragment {
	return Fragment{Kind: KindString, Str: ctx.(string)}
}

func TestContextThreading(t *testing.T) {
	w := &recWriter{}
	v := Fields(Field{Name: "deep", Value: SliceOf([]int{0}, func(int) Serialize { return ctxSer{} })})
	Write(w, v, "handle")
	require.Equal(t, []string{"{", "key:deep", "[", "str:handle", "end", "end"}, w.events)
}

// nest serializes a sequence holding one nest of depth-1; depth 0 is
// null.
type nest int

func (n nest) Begin(any) Fragment {
	if n == 0 {
		return Fragment{Kind: KindNull}
	}
	return Fragment{Kind: KindSeq, Seq: &nestIter{next: n - 1}}
}

type nestIter struct {
	next nest
	done bool
}

func (it *nestIter) Next() (Serialize, bool) {
	if it.done {
		return nil, false
	}
	it.done = true
	return it.next, true
}

func TestDeepNesting(t *testing.T) {
	const depth = 100000
	ev := record(nest(depth))
	assert.Len(t, ev, 2*depth+1)
	assert.Equal(t, "[", ev[0])
	assert.Equal(t, "null", ev[depth])
	assert.Equal(t, "end", ev[len(ev)-1])
}

func TestEmptyContainers(t *testing.T) {
	require.Equal(t, []string{"[", "end"}, record(SliceOf(nil, func(n int) Serialize { return Int32(int32(n)) })))
	require.Equal(t, []string{"{", "end"}, record(Fields()))
}
