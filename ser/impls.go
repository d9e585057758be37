package ser

// Producers for the builtin support set. Hand-written record producers
// and generated code compose these the same way.

type nullSer struct{}

func (nullSer) Begin(any) Fragment { return Fragment{Kind: KindNull} }

// Null reports a null value.
func Null() Serialize { return nullSer{} }

type boolSer bool

func (b boolSer) Begin(any) Fragment { return Fragment{Kind: KindBool, Bool: bool(b)} }

func Bool(b bool) Serialize { return boolSer(b) }

type intSer int64

func (n intSer) Begin(any) Fragment {
	if n >= 0 {
		// Nonnegative values always travel on the unsigned channel so
		// both engines agree on a single representation.
		return Fragment{Kind: KindUint, Uint: uint64(n)}
	}
	return Fragment{Kind: KindInt, Int: int64(n)}
}

func Int8(n int8) Serialize   { return intSer(n) }
func Int32(n int32) Serialize { return intSer(n) }
func Int64(n int64) Serialize { return intSer(n) }

type uintSer uint64

func (n uintSer) Begin(any) Fragment { return Fragment{Kind: KindUint, Uint: uint64(n)} }

func Uint8(n uint8) Serialize   { return uintSer(n) }
func Uint32(n uint32) Serialize { return uintSer(n) }
func Uint64(n uint64) Serialize { return uintSer(n) }

type float32Ser float32

func (f float32Ser) Begin(any) Fragment {
	return Fragment{Kind: KindFloat32, Float: float64(float32(f))}
}

func Float32(f float32) Serialize { return float32Ser(f) }

type float64Ser float64

func (f float64Ser) Begin(any) Fragment { return Fragment{Kind: KindFloat64, Float: float64(f)} }

func Float64(f float64) Serialize { return float64Ser(f) }

type stringSer string

func (s stringSer) Begin(any) Fragment { return Fragment{Kind: KindString, Str: string(s)} }

func String(s string) Serialize { return stringSer(s) }

type bytesSer struct {
	b     []byte
	align int
}

func (b bytesSer) Begin(any) Fragment {
	return Fragment{Kind: KindBytes, Bytes: b.b, Align: b.align}
}

// Bytes reports a binary blob with its required alignment. align must
// be a power of two; 1 means no requirement.
func Bytes(b []byte, align int) Serialize { return bytesSer{b: b, align: align} }

// SliceOf adapts a Go slice to a sequence producer. elem converts one
// element into its producer.
func SliceOf[T any](s []T, elem func(T) Serialize) Serialize {
	return sliceSer[T]{s: s, elem: elem}
}

type sliceSer[T any] struct {
	s    []T
	elem func(T) Serialize
}

func (s sliceSer[T]) Begin(any) Fragment {
	return Fragment{Kind: KindSeq, Seq: &sliceIter[T]{s: s.s, elem: s.elem}}
}

type sliceIter[T any] struct {
	s    []T
	elem func(T) Serialize
	i    int
}

func (it *sliceIter[T]) Next() (Serialize, bool) {
	if it.i >= len(it.s) {
		return nil, false
	}
	e := it.elem(it.s[it.i])
	it.i++
	return e, true
}

// Field is one key/value pair of a record producer. The Name is the
// wire name: a rename table is applied by whoever builds the field
// list.
type Field struct {
	Name  string
	Value Serialize
}

// Fields serializes a record as a map, emitting fields in declared
// order. This is the shape generated record producers take.
func Fields(fields ...Field) Serialize { return fieldsSer(fields) }

type fieldsSer []Field

func (f fieldsSer) Begin(any) Fragment {
	return Fragment{Kind: KindMap, Map: &fieldsIter{fields: f}}
}

type fieldsIter struct {
	fields []Field
	i      int
}

func (it *fieldsIter) Next() (string, Serialize, bool) {
	if it.i >= len(it.fields) {
		return "", nil, false
	}
	f := it.fields[it.i]
	it.i++
	return f.Name, f.Value, true
}

// UnitVariant encodes an enum unit variant as its bare name.
func UnitVariant(name string) Serialize { return stringSer(name) }

// Variant encodes an enum payload variant as the single-key map
// {name: payload} (externally tagged representation).
func Variant(name string, payload Serialize) Serialize {
	return Fields(Field{Name: name, Value: payload})
}
