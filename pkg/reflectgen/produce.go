package reflectgen

import (
	"reflect"
	"sort"

	"github.com/rawbytedev/tokdoc/internal/common"
	"github.com/rawbytedev/tokdoc/ser"
)

// valueSer produces fragments for one reflected value. Types
// implementing ser.Serialize themselves keep their own encoding.
type valueSer struct {
	v   reflect.Value
	opt Options
}

func (s valueSer) Begin(ctx any) ser.Fragment {
	v := s.v
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ser.Fragment{Kind: ser.KindNull}
		}
		v = v.Elem()
	}
	if v.Type().Implements(serializeType) && v.CanInterface() {
		return v.Interface().(ser.Serialize).Begin(ctx)
	}

	switch v.Kind() {
	case reflect.Bool:
		return ser.Fragment{Kind: ser.KindBool, Bool: v.Bool()}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := v.Int()
		if n < 0 {
			return ser.Fragment{Kind: ser.KindInt, Int: n}
		}
		return ser.Fragment{Kind: ser.KindUint, Uint: uint64(n)}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ser.Fragment{Kind: ser.KindUint, Uint: v.Uint()}
	case reflect.Float32:
		return ser.Fragment{Kind: ser.KindFloat32, Float: v.Float()}
	case reflect.Float64:
		return ser.Fragment{Kind: ser.KindFloat64, Float: v.Float()}
	case reflect.String:
		return ser.Fragment{Kind: ser.KindString, Str: v.String()}
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return ser.Fragment{Kind: ser.KindBytes, Bytes: v.Bytes(), Align: 1}
		}
		if s.opt.PackPrimitives && packable(v.Type()) {
			return ser.Fragment{
				Kind:  ser.KindBytes,
				Bytes: common.PrimBytes(v),
				Align: common.FixedSize(v.Type().Elem().Kind()),
			}
		}
		return ser.Fragment{Kind: ser.KindSeq, Seq: &elemIter{v: v, opt: s.opt}}
	case reflect.Array:
		return ser.Fragment{Kind: ser.KindSeq, Seq: &elemIter{v: v, opt: s.opt}}
	case reflect.Map:
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		return ser.Fragment{Kind: ser.KindMap, Map: &mapIter{v: v, keys: keys, opt: s.opt}}
	case reflect.Struct:
		return ser.Fragment{Kind: ser.KindMap, Map: &fieldIter{
			v:    v,
			plan: planFor(v.Type()),
			opt:  s.opt,
		}}
	}
	// check rejected everything else up front
	return ser.Fragment{Kind: ser.KindNull}
}

type elemIter struct {
	v   reflect.Value
	i   int
	opt Options
}

func (it *elemIter) Next() (ser.Serialize, bool) {
	if it.i >= it.v.Len() {
		return nil, false
	}
	e := it.v.Index(it.i)
	it.i++
	return valueSer{v: e, opt: it.opt}, true
}

// mapIter yields map entries in sorted key order so the same map
// always encodes to the same bytes.
type mapIter struct {
	v    reflect.Value
	keys []reflect.Value
	i    int
	opt  Options
}

func (it *mapIter) Next() (string, ser.Serialize, bool) {
	if it.i >= len(it.keys) {
		return "", nil, false
	}
	k := it.keys[it.i]
	it.i++
	return k.String(), valueSer{v: it.v.MapIndex(k), opt: it.opt}, true
}

type fieldIter struct {
	v    reflect.Value
	plan *structPlan
	i    int
	opt  Options
}

func (it *fieldIter) Next() (string, ser.Serialize, bool) {
	if it.i >= len(it.plan.fields) {
		return "", nil, false
	}
	f := it.plan.fields[it.i]
	it.i++
	return f.name, valueSer{v: it.v.Field(f.index), opt: it.opt}, true
}
