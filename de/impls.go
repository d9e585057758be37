package de

import "math"

// Visitors for the builtin support set. Each fills a caller-owned
// place and marks an optional presence flag; on failure the place is
// left untouched.
//
// Numeric narrowing is exact-fit: a source number that does not fit
// the destination width fails instead of truncating, and a fractional
// number never fills an integer place (integer visitors simply have no
// float methods). Floats narrow by rounding, as every text format
// parses them at full width first.

type boolVisitor struct {
	Unimplemented
	out *bool
	set *bool
}

func (v boolVisitor) Bool(b bool, _ any) error {
	*v.out = b
	mark(v.set)
	return nil
}

func Bool(out *bool, set *bool) Visitor { return boolVisitor{out: out, set: set} }

type intVisitor[T int8 | int32 | int64] struct {
	Unimplemented
	out *T
	set *bool
}

func (v intVisitor[T]) Int(n int64, _ any) error {
	t := T(n)
	if int64(t) != n {
		return ErrFailed
	}
	*v.out = t
	mark(v.set)
	return nil
}

func (v intVisitor[T]) Uint(n uint64, _ any) error {
	if n > math.MaxInt64 {
		return ErrFailed
	}
	return v.Int(int64(n), nil)
}

func Int8(out *int8, set *bool) Visitor   { return intVisitor[int8]{out: out, set: set} }
func Int32(out *int32, set *bool) Visitor { return intVisitor[int32]{out: out, set: set} }
func Int64(out *int64, set *bool) Visitor { return intVisitor[int64]{out: out, set: set} }

type uintVisitor[T uint8 | uint32 | uint64] struct {
	Unimplemented
	out *T
	set *bool
}

func (v uintVisitor[T]) Uint(n uint64, _ any) error {
	t := T(n)
	if uint64(t) != n {
		return ErrFailed
	}
	*v.out = t
	mark(v.set)
	return nil
}

func (v uintVisitor[T]) Int(n int64, _ any) error {
	if n < 0 {
		return ErrFailed
	}
	return v.Uint(uint64(n), nil)
}

func Uint8(out *uint8, set *bool) Visitor   { return uintVisitor[uint8]{out: out, set: set} }
func Uint32(out *uint32, set *bool) Visitor { return uintVisitor[uint32]{out: out, set: set} }
func Uint64(out *uint64, set *bool) Visitor { return uintVisitor[uint64]{out: out, set: set} }

type float32Visitor struct {
	Unimplemented
	out *float32
	set *bool
}

func (v float32Visitor) Float32(f float32, _ any) error {
	*v.out = f
	mark(v.set)
	return nil
}

func (v float32Visitor) Float64(f float64, _ any) error {
	return v.Float32(float32(f), nil)
}

func (v float32Visitor) Int(n int64, _ any) error { return v.Float64(float64(n), nil) }

func (v float32Visitor) Uint(n uint64, _ any) error { return v.Float64(float64(n), nil) }

func Float32(out *float32, set *bool) Visitor { return float32Visitor{out: out, set: set} }

type float64Visitor struct {
	Unimplemented
	out *float64
	set *bool
}

func (v float64Visitor) Float64(f float64, _ any) error {
	*v.out = f
	mark(v.set)
	return nil
}

func (v float64Visitor) Float32(f float32, _ any) error { return v.Float64(float64(f), nil) }

func (v float64Visitor) Int(n int64, _ any) error { return v.Float64(float64(n), nil) }

func (v float64Visitor) Uint(n uint64, _ any) error { return v.Float64(float64(n), nil) }

func Float64(out *float64, set *bool) Visitor { return float64Visitor{out: out, set: set} }

type stringVisitor struct {
	Unimplemented
	out *string
	set *bool
}

func (v stringVisitor) String(s string, _ any) error {
	*v.out = s
	mark(v.set)
	return nil
}

func String(out *string, set *bool) Visitor { return stringVisitor{out: out, set: set} }

type bytesVisitor struct {
	Unimplemented
	out   *[]byte
	align *int
	set   *bool
}

func (v bytesVisitor) Bytes(b []byte, align int, _ any) error {
	*v.out = b
	if v.align != nil {
		*v.align = align
	}
	mark(v.set)
	return nil
}

// Bytes fills a blob place. The slice may borrow the backend's input
// buffer (zero-copy); align receives the decoded alignment when non
// nil.
func Bytes(out *[]byte, align *int, set *bool) Visitor {
	return bytesVisitor{out: out, align: align, set: set}
}

// Ptr fills either nil (from null) or a freshly allocated value whose
// place visitor comes from elem. The idiomatic optional field.
func Ptr[T any](out **T, elem func(out *T, set *bool) Visitor, set *bool) Visitor {
	return ptrVisitor[T]{out: out, elem: elem, set: set}
}

type ptrVisitor[T any] struct {
	out  **T
	elem func(*T, *bool) Visitor
	set  *bool
}

func (v ptrVisitor[T]) fill(visit func(Visitor) error) error {
	tmp := new(T)
	var ok bool
	if err := visit(v.elem(tmp, &ok)); err != nil {
		return err
	}
	*v.out = tmp
	mark(v.set)
	return nil
}

func (v ptrVisitor[T]) Null(_ any) error {
	*v.out = nil
	mark(v.set)
	return nil
}

func (v ptrVisitor[T]) Bool(b bool, ctx any) error {
	return v.fill(func(w Visitor) error { return w.Bool(b, ctx) })
}

func (v ptrVisitor[T]) Int(n int64, ctx any) error {
	return v.fill(func(w Visitor) error { return w.Int(n, ctx) })
}

func (v ptrVisitor[T]) Uint(n uint64, ctx any) error {
	return v.fill(func(w Visitor) error { return w.Uint(n, ctx) })
}

func (v ptrVisitor[T]) Float32(f float32, ctx any) error {
	return v.fill(func(w Visitor) error { return w.Float32(f, ctx) })
}

func (v ptrVisitor[T]) Float64(f float64, ctx any) error {
	return v.fill(func(w Visitor) error { return w.Float64(f, ctx) })
}

func (v ptrVisitor[T]) String(s string, ctx any) error {
	return v.fill(func(w Visitor) error { return w.String(s, ctx) })
}

func (v ptrVisitor[T]) Bytes(b []byte, align int, ctx any) error {
	return v.fill(func(w Visitor) error { return w.Bytes(b, align, ctx) })
}

func (v ptrVisitor[T]) Seq(ctx any) (SeqBuilder, error) {
	tmp := new(T)
	var ok bool
	b, err := v.elem(tmp, &ok).Seq(ctx)
	if err != nil {
		return nil, err
	}
	return ptrBuilder[T]{v: v, tmp: tmp, seq: b}, nil
}

func (v ptrVisitor[T]) Map(ctx any) (MapBuilder, error) {
	tmp := new(T)
	var ok bool
	b, err := v.elem(tmp, &ok).Map(ctx)
	if err != nil {
		return nil, err
	}
	return ptrBuilder[T]{v: v, tmp: tmp, m: b}, nil
}

type ptrBuilder[T any] struct {
	v   ptrVisitor[T]
	tmp *T
	seq SeqBuilder
	m   MapBuilder
}

func (b ptrBuilder[T]) Element() (Visitor, error) { return b.seq.Element() }

func (b ptrBuilder[T]) Key(k string) (Visitor, error) { return b.m.Key(k) }

func (b ptrBuilder[T]) Finish(ctx any) error {
	var err error
	if b.seq != nil {
		err = b.seq.Finish(ctx)
	} else {
		err = b.m.Finish(ctx)
	}
	if err != nil {
		return err
	}
	*b.v.out = b.tmp
	mark(b.v.set)
	return nil
}

// Slice accumulates sequence elements into out. elem builds the place
// visitor for one element.
func Slice[T any](out *[]T, elem func(out *T, set *bool) Visitor, set *bool) Visitor {
	return sliceVisitor[T]{out: out, elem: elem, set: set}
}

type sliceVisitor[T any] struct {
	Unimplemented
	out  *[]T
	elem func(*T, *bool) Visitor
	set  *bool
}

func (v sliceVisitor[T]) Seq(_ any) (SeqBuilder, error) {
	return &sliceBuilder[T]{v: v}, nil
}

type sliceBuilder[T any] struct {
	v       sliceVisitor[T]
	buf     []T
	next    T
	nextSet bool
}

func (b *sliceBuilder[T]) flush() {
	if b.nextSet {
		b.buf = append(b.buf, b.next)
		var zero T
		b.next = zero
		b.nextSet = false
	}
}

func (b *sliceBuilder[T]) Element() (Visitor, error) {
	b.flush()
	return b.v.elem(&b.next, &b.nextSet), nil
}

func (b *sliceBuilder[T]) Finish(_ any) error {
	b.flush()
	*b.v.out = b.buf
	mark(b.v.set)
	return nil
}

// MapOf accumulates string-keyed map entries into out. Later
// duplicates of a key overwrite earlier ones.
func MapOf[T any](out *map[string]T, elem func(out *T, set *bool) Visitor, set *bool) Visitor {
	return mapVisitor[T]{out: out, elem: elem, set: set}
}

type mapVisitor[T any] struct {
	Unimplemented
	out  *map[string]T
	elem func(*T, *bool) Visitor
	set  *bool
}

func (v mapVisitor[T]) Map(_ any) (MapBuilder, error) {
	return &mapBuilder[T]{v: v, m: make(map[string]T)}, nil
}

type mapBuilder[T any] struct {
	v       mapVisitor[T]
	m       map[string]T
	key     string
	next    T
	nextSet bool
}

func (b *mapBuilder[T]) flush() {
	if b.nextSet {
		b.m[b.key] = b.next
		var zero T
		b.next = zero
		b.nextSet = false
	}
}

func (b *mapBuilder[T]) Key(k string) (Visitor, error) {
	b.flush()
	b.key = k
	return b.v.elem(&b.next, &b.nextSet), nil
}

func (b *mapBuilder[T]) Finish(_ any) error {
	b.flush()
	*b.v.out = b.m
	mark(b.v.set)
	return nil
}
