package reflectgen

import (
	"math"
	"reflect"

	tokdoc "github.com/rawbytedev/tokdoc"
	"github.com/rawbytedev/tokdoc/blob"
	"github.com/rawbytedev/tokdoc/de"
	"github.com/rawbytedev/tokdoc/internal/common"
)

// newVisitor builds the visitor for one addressable place. The
// document types keep their own consumers.
func newVisitor(place reflect.Value, set *bool, opt Options) de.Visitor {
	switch place.Type() {
	case valueType:
		return tokdoc.ValueVisitor(place.Addr().Interface().(*tokdoc.Value), set)
	case bytesType:
		return tokdoc.BytesVisitor(place.Addr().Interface().(*tokdoc.Bytes), set)
	}
	return reflectVis{out: place, set: set, opt: opt}
}

type reflectVis struct {
	out reflect.Value
	set *bool
	opt Options
}

func (v reflectVis) done() {
	if v.set != nil {
		*v.set = true
	}
}

// alloc handles pointer places: the pointee is decoded into fresh
// storage and the pointer is written only by fin, on success, so a
// failing decode leaves the place untouched.
func (v reflectVis) alloc() (inner de.Visitor, fin func() error, ok bool) {
	if v.out.Kind() != reflect.Pointer {
		return nil, nil, false
	}
	p := reflect.New(v.out.Type().Elem())
	inner = newVisitor(p.Elem(), nil, v.opt)
	fin = func() error {
		v.out.Set(p)
		v.done()
		return nil
	}
	return inner, fin, true
}

func (v reflectVis) Null(_ any) error {
	if v.out.Kind() != reflect.Pointer {
		return de.ErrFailed
	}
	v.out.Set(reflect.Zero(v.out.Type()))
	v.done()
	return nil
}

func (v reflectVis) Bool(b bool, ctx any) error {
	if inner, fin, ok := v.alloc(); ok {
		if err := inner.Bool(b, ctx); err != nil {
			return err
		}
		return fin()
	}
	if v.out.Kind() != reflect.Bool {
		return de.ErrFailed
	}
	v.out.SetBool(b)
	v.done()
	return nil
}

func (v reflectVis) Int(n int64, ctx any) error {
	if inner, fin, ok := v.alloc(); ok {
		if err := inner.Int(n, ctx); err != nil {
			return err
		}
		return fin()
	}
	switch v.out.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.out.OverflowInt(n) {
			return de.ErrFailed
		}
		v.out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n < 0 || v.out.OverflowUint(uint64(n)) {
			return de.ErrFailed
		}
		v.out.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		v.out.SetFloat(float64(n))
	default:
		return de.ErrFailed
	}
	v.done()
	return nil
}

func (v reflectVis) Uint(n uint64, ctx any) error {
	if inner, fin, ok := v.alloc(); ok {
		if err := inner.Uint(n, ctx); err != nil {
			return err
		}
		return fin()
	}
	switch v.out.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.out.OverflowUint(n) {
			return de.ErrFailed
		}
		v.out.SetUint(n)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n > math.MaxInt64 || v.out.OverflowInt(int64(n)) {
			return de.ErrFailed
		}
		v.out.SetInt(int64(n))
	case reflect.Float32, reflect.Float64:
		v.out.SetFloat(float64(n))
	default:
		return de.ErrFailed
	}
	v.done()
	return nil
}

func (v reflectVis) Float32(f float32, ctx any) error {
	return v.Float64(float64(f), ctx)
}

func (v reflectVis) Float64(f float64, ctx any) error {
	if inner, fin, ok := v.alloc(); ok {
		if err := inner.Float64(f, ctx); err != nil {
			return err
		}
		return fin()
	}
	switch v.out.Kind() {
	case reflect.Float32, reflect.Float64:
		v.out.SetFloat(f)
	default:
		// fractional data never narrows into an integer place
		return de.ErrFailed
	}
	v.done()
	return nil
}

func (v reflectVis) String(s string, ctx any) error {
	if inner, fin, ok := v.alloc(); ok {
		if err := inner.String(s, ctx); err != nil {
			return err
		}
		return fin()
	}
	if v.out.Kind() != reflect.String {
		return de.ErrFailed
	}
	v.out.SetString(s)
	v.done()
	return nil
}

func (v reflectVis) Bytes(b []byte, align int, ctx any) error {
	if inner, fin, ok := v.alloc(); ok {
		if err := inner.Bytes(b, align, ctx); err != nil {
			return err
		}
		return fin()
	}
	t := v.out.Type()
	if t == byteSliceType || (t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8) {
		c := make([]byte, len(b))
		copy(c, b)
		v.out.SetBytes(c)
		v.done()
		return nil
	}
	if !packable(t) {
		return de.ErrFailed
	}
	k := t.Elem().Kind()
	size := common.FixedSize(k)
	if len(b)%size != 0 {
		return de.ErrFailed
	}
	n := len(b) / size
	if v.opt.UnsafePrimitives && blob.Aligned(b, size) {
		common.SetUnsafeFixed(v.out, b, n)
	} else {
		tmp := reflect.MakeSlice(t, n, n)
		for i := 0; i < n; i++ {
			common.SetFixed(tmp.Index(i), b[i*size:], k)
		}
		v.out.Set(tmp)
	}
	v.done()
	return nil
}

func (v reflectVis) Seq(ctx any) (de.SeqBuilder, error) {
	if inner, fin, ok := v.alloc(); ok {
		sb, err := inner.Seq(ctx)
		if err != nil {
			return nil, err
		}
		return finishSeq{sb: sb, fin: fin}, nil
	}
	switch v.out.Kind() {
	case reflect.Slice:
		return &sliceFill{vis: v}, nil
	case reflect.Array:
		return &arrayFill{vis: v, tmp: reflect.New(v.out.Type()).Elem()}, nil
	}
	return nil, de.ErrFailed
}

func (v reflectVis) Map(ctx any) (de.MapBuilder, error) {
	if inner, fin, ok := v.alloc(); ok {
		mb, err := inner.Map(ctx)
		if err != nil {
			return nil, err
		}
		return finishMap{mb: mb, fin: fin}, nil
	}
	switch v.out.Kind() {
	case reflect.Map:
		return &mapFill{vis: v}, nil
	case reflect.Struct:
		t := v.out.Type()
		return &structFill{
			vis:  v,
			plan: planFor(t),
			tmp:  reflect.New(t).Elem(),
			seen: make([]bool, len(planFor(t).fields)),
		}, nil
	}
	return nil, de.ErrFailed
}

// finishSeq and finishMap chain a pointer store after the pointee's
// own Finish.
type finishSeq struct {
	sb  de.SeqBuilder
	fin func() error
}

func (f finishSeq) Element() (de.Visitor, error) { return f.sb.Element() }
func (f finishSeq) Finish(ctx any) error {
	if err := f.sb.Finish(ctx); err != nil {
		return err
	}
	return f.fin()
}

type finishMap struct {
	mb  de.MapBuilder
	fin func() error
}

func (f finishMap) Key(k string) (de.Visitor, error) { return f.mb.Key(k) }
func (f finishMap) Finish(ctx any) error {
	if err := f.mb.Finish(ctx); err != nil {
		return err
	}
	return f.fin()
}

type sliceFill struct {
	vis     reflectVis
	tmp     reflect.Value
	next    reflect.Value
	nextSet bool
}

func (b *sliceFill) flush() {
	if b.nextSet {
		b.tmp = reflect.Append(b.tmp, b.next)
		b.nextSet = false
	}
}

func (b *sliceFill) Element() (de.Visitor, error) {
	b.flush()
	if !b.tmp.IsValid() {
		b.tmp = reflect.MakeSlice(b.vis.out.Type(), 0, 0)
	}
	b.next = reflect.New(b.vis.out.Type().Elem()).Elem()
	return newVisitor(b.next, &b.nextSet, b.vis.opt), nil
}

func (b *sliceFill) Finish(_ any) error {
	b.flush()
	if !b.tmp.IsValid() {
		b.tmp = reflect.MakeSlice(b.vis.out.Type(), 0, 0)
	}
	b.vis.out.Set(b.tmp)
	b.vis.done()
	return nil
}

// arrayFill accepts exactly the array's length.
type arrayFill struct {
	vis     reflectVis
	tmp     reflect.Value
	i       int
	lastSet bool
}

func (b *arrayFill) Element() (de.Visitor, error) {
	if !b.lastSet && b.i > 0 {
		return nil, de.ErrFailed
	}
	if b.i >= b.tmp.Len() {
		return nil, de.ErrFailed
	}
	b.lastSet = false
	vis := newVisitor(b.tmp.Index(b.i), &b.lastSet, b.vis.opt)
	b.i++
	return vis, nil
}

func (b *arrayFill) Finish(_ any) error {
	if b.i != b.tmp.Len() || (b.i > 0 && !b.lastSet) {
		return de.ErrFailed
	}
	b.vis.out.Set(b.tmp)
	b.vis.done()
	return nil
}

type mapFill struct {
	vis     reflectVis
	tmp     reflect.Value
	key     string
	next    reflect.Value
	nextSet bool
}

func (b *mapFill) flush() {
	if b.nextSet {
		b.tmp.SetMapIndex(reflect.ValueOf(b.key).Convert(b.vis.out.Type().Key()), b.next)
		b.nextSet = false
	}
}

func (b *mapFill) Key(k string) (de.Visitor, error) {
	if !b.tmp.IsValid() {
		b.tmp = reflect.MakeMap(b.vis.out.Type())
	}
	b.flush()
	b.key = k
	b.next = reflect.New(b.vis.out.Type().Elem()).Elem()
	return newVisitor(b.next, &b.nextSet, b.vis.opt), nil
}

func (b *mapFill) Finish(_ any) error {
	if !b.tmp.IsValid() {
		b.tmp = reflect.MakeMap(b.vis.out.Type())
	}
	b.flush()
	b.vis.out.Set(b.tmp)
	b.vis.done()
	return nil
}

// structFill decodes into fresh storage and copies out only after
// every required field arrived. Pointer fields are optional; unknown
// keys are skipped.
type structFill struct {
	vis  reflectVis
	plan *structPlan
	tmp  reflect.Value
	seen []bool
}

func (b *structFill) Key(k string) (de.Visitor, error) {
	for i, f := range b.plan.fields {
		if f.name == k {
			return newVisitor(b.tmp.Field(f.index), &b.seen[i], b.vis.opt), nil
		}
	}
	return de.Ignore(), nil
}

func (b *structFill) Finish(_ any) error {
	for i, f := range b.plan.fields {
		if b.seen[i] {
			continue
		}
		if b.tmp.Field(f.index).Kind() != reflect.Pointer {
			return de.ErrFailed
		}
	}
	b.vis.out.Set(b.tmp)
	b.vis.done()
	return nil
}
