// Package tokdoc holds the untyped document model shared by the
// traversal engines and the format backends: Value is the universal
// intermediate representation used to embed schema-less data and to
// convert between formats.
package tokdoc

import (
	"bytes"

	"github.com/rawbytedev/tokdoc/de"
	"github.com/rawbytedev/tokdoc/ser"
)

// Kind tags the variant a Value holds.
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
	KindArray
	KindObject
)

// Value is any document value. Only the fields of the active Kind are
// meaningful. Nesting depth is bounded by memory alone: every traversal
// over a Value in this module (equality, serialization, decoding) is
// iterative, and reclamation is the garbage collector's, so a value a
// million arrays deep is safe to build, compare and drop.
type Value struct {
	Kind   Kind
	Bool   bool
	Int    int64
	Uint   uint64
	Float  float64
	Str    string
	Bytes  []byte
	Align  int
	Array  []Value
	Object Object
}

// Member is one Object entry.
type Member struct {
	Key   string
	Value Value
}

// Object is an ordered key/value mapping. Insertion order is
// preserved; duplicate keys are last-wins (Set replaces the existing
// member in place, keeping its position).
type Object []Member

func (o Object) Get(k string) (Value, bool) {
	for i := range o {
		if o[i].Key == k {
			return o[i].Value, true
		}
	}
	return Value{}, false
}

func (o *Object) Set(k string, v Value) {
	for i := range *o {
		if (*o)[i].Key == k {
			(*o)[i].Value = v
			return
		}
	}
	*o = append(*o, Member{Key: k, Value: v})
}

// Equal compares two values structurally, walking both trees with an
// explicit stack. Numeric kinds the text backend cannot keep apart
// compare by value: Int against Uint, and Float32 against Float64.
// Bytes compare by content and alignment; borrowing never affects
// equality.
func (v Value) Equal(w Value) bool {
	type pair struct{ a, b *Value }
	stack := []pair{{&v, &w}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		a, b := p.a, p.b

		if a.Kind != b.Kind {
			if !sameNumber(a, b) {
				return false
			}
			continue
		}
		switch a.Kind {
		case KindNull:
		case KindBool:
			if a.Bool != b.Bool {
				return false
			}
		case KindInt:
			if a.Int != b.Int {
				return false
			}
		case KindUint:
			if a.Uint != b.Uint {
				return false
			}
		case KindFloat32, KindFloat64:
			if a.Float != b.Float {
				return false
			}
		case KindString:
			if a.Str != b.Str {
				return false
			}
		case KindBytes:
			if a.Align != b.Align || !bytes.Equal(a.Bytes, b.Bytes) {
				return false
			}
		case KindArray:
			if len(a.Array) != len(b.Array) {
				return false
			}
			for i := range a.Array {
				stack = append(stack, pair{&a.Array[i], &b.Array[i]})
			}
		case KindObject:
			if len(a.Object) != len(b.Object) {
				return false
			}
			for i := range a.Object {
				if a.Object[i].Key != b.Object[i].Key {
					return false
				}
				stack = append(stack, pair{&a.Object[i].Value, &b.Object[i].Value})
			}
		}
	}
	return true
}

// sameNumber unifies the numeric kinds the text backend cannot keep
// apart: it reports every nonnegative integer on the unsigned channel
// and every float at full width, so Int/Uint and Float32/Float64 pairs
// compare by numeric value.
func sameNumber(a, b *Value) bool {
	if a.Kind == KindInt && b.Kind == KindUint {
		return a.Int >= 0 && uint64(a.Int) == b.Uint
	}
	if a.Kind == KindUint && b.Kind == KindInt {
		return sameNumber(b, a)
	}
	if a.Kind == KindFloat32 && b.Kind == KindFloat64 ||
		a.Kind == KindFloat64 && b.Kind == KindFloat32 {
		// Text prints a float32 at 32-bit shortest and reparses it as
		// float64, so the widths only agree after narrowing back.
		return float32(a.Float) == float32(b.Float)
	}
	return false
}

// Begin implements ser.Serialize: a Value is its own producer.
func (v Value) Begin(_ any) ser.Fragment {
	switch v.Kind {
	case KindBool:
		return ser.Fragment{Kind: ser.KindBool, Bool: v.Bool}
	case KindInt:
		return ser.Fragment{Kind: ser.KindInt, Int: v.Int}
	case KindUint:
		return ser.Fragment{Kind: ser.KindUint, Uint: v.Uint}
	case KindFloat32:
		return ser.Fragment{Kind: ser.KindFloat32, Float: v.Float}
	case KindFloat64:
		return ser.Fragment{Kind: ser.KindFloat64, Float: v.Float}
	case KindString:
		return ser.Fragment{Kind: ser.KindString, Str: v.Str}
	case KindBytes:
		align := v.Align
		if align == 0 {
			align = 1
		}
		return ser.Fragment{Kind: ser.KindBytes, Bytes: v.Bytes, Align: align}
	case KindArray:
		return ser.Fragment{Kind: ser.KindSeq, Seq: &valueSeq{s: v.Array}}
	case KindObject:
		return ser.Fragment{Kind: ser.KindMap, Map: &valueMap{o: v.Object}}
	default:
		return ser.Fragment{Kind: ser.KindNull}
	}
}

type valueSeq struct {
	s []Value
	i int
}

func (it *valueSeq) Next() (ser.Serialize, bool) {
	if it.i >= len(it.s) {
		return nil, false
	}
	e := it.s[it.i]
	it.i++
	return e, true
}

type valueMap struct {
	o Object
	i int
}

func (it *valueMap) Next() (string, ser.Serialize, bool) {
	if it.i >= len(it.o) {
		return "", nil, false
	}
	m := it.o[it.i]
	it.i++
	return m.Key, m.Value, true
}

// ValueVisitor returns the consumer filling out with whatever shape
// the token source yields.
func ValueVisitor(out *Value, set *bool) de.Visitor {
	return valueVisitor{out: out, set: set}
}

type valueVisitor struct {
	out *Value
	set *bool
}

func (v valueVisitor) done(val Value) error {
	*v.out = val
	if v.set != nil {
		*v.set = true
	}
	return nil
}

func (v valueVisitor) Null(_ any) error    { return v.done(Value{Kind: KindNull}) }
func (v valueVisitor) Bool(b bool, _ any) error {
	return v.done(Value{Kind: KindBool, Bool: b})
}
func (v valueVisitor) Int(n int64, _ any) error {
	return v.done(Value{Kind: KindInt, Int: n})
}
func (v valueVisitor) Uint(n uint64, _ any) error {
	return v.done(Value{Kind: KindUint, Uint: n})
}
func (v valueVisitor) Float32(f float32, _ any) error {
	return v.done(Value{Kind: KindFloat32, Float: float64(f)})
}
func (v valueVisitor) Float64(f float64, _ any) error {
	return v.done(Value{Kind: KindFloat64, Float: f})
}
func (v valueVisitor) String(s string, _ any) error {
	return v.done(Value{Kind: KindString, Str: s})
}

func (v valueVisitor) Bytes(b []byte, align int, _ any) error {
	// Copy: a Value owns its data, the token slice may borrow the
	// decoder's input buffer.
	c := make([]byte, len(b))
	copy(c, b)
	return v.done(Value{Kind: KindBytes, Bytes: c, Align: align})
}

func (v valueVisitor) Seq(_ any) (de.SeqBuilder, error) {
	return &valueArrayBuilder{out: v}, nil
}

func (v valueVisitor) Map(_ any) (de.MapBuilder, error) {
	return &valueObjectBuilder{out: v}, nil
}

type valueArrayBuilder struct {
	out     valueVisitor
	arr     []Value
	next    Value
	nextSet bool
}

func (b *valueArrayBuilder) flush() {
	if b.nextSet {
		b.arr = append(b.arr, b.next)
		b.next = Value{}
		b.nextSet = false
	}
}

func (b *valueArrayBuilder) Element() (de.Visitor, error) {
	b.flush()
	return valueVisitor{out: &b.next, set: &b.nextSet}, nil
}

func (b *valueArrayBuilder) Finish(_ any) error {
	b.flush()
	return b.out.done(Value{Kind: KindArray, Array: b.arr})
}

type valueObjectBuilder struct {
	out     valueVisitor
	obj     Object
	key     string
	next    Value
	nextSet bool
}

func (b *valueObjectBuilder) flush() {
	if b.nextSet {
		b.obj.Set(b.key, b.next)
		b.next = Value{}
		b.nextSet = false
	}
}

func (b *valueObjectBuilder) Key(k string) (de.Visitor, error) {
	b.flush()
	b.key = k
	return valueVisitor{out: &b.next, set: &b.nextSet}, nil
}

func (b *valueObjectBuilder) Finish(_ any) error {
	b.flush()
	return b.out.done(Value{Kind: KindObject, Object: b.obj})
}
