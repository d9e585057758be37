// Package ser implements the serialize side of the traversal engine.
//
// A value is serialized by walking a tree of Serialize trait objects.
// Each object reports a single Fragment: either a scalar or an iterator
// over the children of a sequence or map. The Write loop flattens the
// walk onto an explicit heap-backed stack so documents of any depth
// serialize with constant native stack usage.
//
// An opaque context value travels unchanged through every frame of one
// Write call. The engine never inspects it; producers use it to resolve
// whatever external state they need (asset handles, entity tables, ...).
package ser

// Kind tags the payload carried by a Fragment.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindSeq
	KindMap
)

// Fragment is the unit the engine asks a producer for. It is produced
// on demand, consumed immediately by the active writer and never
// retained.
type Fragment struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Uint  uint64
	Float float64 // KindFloat32 values are stored widened
	Str   string
	Bytes []byte
	Align int // required alignment for KindBytes, power of two
	Seq   Seq
	Map   Map
}

// Serialize is the producer contract. Begin reports the fragment for
// the value; for containers the fragment holds an iterator that yields
// child producers one at a time.
//
// Serialization never fails: no type reachable through this contract
// can refuse to serialize.
type Serialize interface {
	Begin(ctx any) Fragment
}

// Seq yields the element producers of a sequence in order.
type Seq interface {
	Next() (Serialize, bool)
}

// Map yields key/producer pairs in the order they should be emitted.
// Producers are responsible for determinism (declared field order for
// record types).
type Map interface {
	Next() (string, Serialize, bool)
}

// Writer is the push sink a format backend exposes to the engine. The
// event set mirrors the fragment set; writers operate over in-memory
// buffers and never fail.
type Writer interface {
	Null()
	Bool(b bool)
	Int(n int64)
	Uint(n uint64)
	Float32(f float32)
	Float64(f float64)
	String(s string)
	Bytes(b []byte, align int)
	BeginSeq()
	BeginMap()
	Key(k string)
	End()
}

// Write drives value through w. Containers are entered by pushing their
// iterator onto an explicit stack and popped when the iterator runs
// out; the loop itself never recurses, so native stack usage stays
// constant no matter how deep the value nests.
func Write(w Writer, value Serialize, ctx any) {
	type frame struct {
		seq Seq
		m   Map
	}
	var stack []frame

	emit := func(f Fragment) {
		switch f.Kind {
		case KindNull:
			w.Null()
		case KindBool:
			w.Bool(f.Bool)
		case KindInt:
			w.Int(f.Int)
		case KindUint:
			w.Uint(f.Uint)
		case KindFloat32:
			w.Float32(float32(f.Float))
		case KindFloat64:
			w.Float64(f.Float)
		case KindString:
			w.String(f.Str)
		case KindBytes:
			w.Bytes(f.Bytes, f.Align)
		case KindSeq:
			w.BeginSeq()
			stack = append(stack, frame{seq: f.Seq})
		case KindMap:
			w.BeginMap()
			stack = append(stack, frame{m: f.Map})
		}
	}

	emit(value.Begin(ctx))
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.seq != nil {
			if e, ok := top.seq.Next(); ok {
				emit(e.Begin(ctx))
				continue
			}
		} else {
			if k, v, ok := top.m.Next(); ok {
				w.Key(k)
				emit(v.Begin(ctx))
				continue
			}
		}
		w.End()
		stack = stack[:len(stack)-1]
	}
}
