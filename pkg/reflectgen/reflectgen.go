// Package reflectgen derives producers and consumers for plain Go
// types at runtime. It is the reflection stand-in for hand-written
// bindings: a struct decodes and encodes by its exported fields,
// renamed or skipped with `tokdoc` tags, with the field layout
// resolved once per type and cached.
package reflectgen

import (
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"

	tokdoc "github.com/rawbytedev/tokdoc"
	"github.com/rawbytedev/tokdoc/de"
	"github.com/rawbytedev/tokdoc/internal/common"
	"github.com/rawbytedev/tokdoc/ser"
)

// ErrUnsupported reports a Go type the reflection layer cannot map.
var ErrUnsupported = errors.New("reflectgen: unsupported type")

// Options tunes the derived bindings. The zero value is the safe
// default.
type Options struct {
	// PackPrimitives encodes slices of fixed-width primitives as a
	// single aligned binary payload instead of element by element.
	// The payload's alignment is the element width.
	PackPrimitives bool
	// UnsafePrimitives lets a decoded primitive slice alias the
	// payload bytes instead of copying them out element-wise. The
	// caller owns the lifetime problem this creates.
	UnsafePrimitives bool
}

// Producer derives a producer for v with default options.
func Producer(v any) (ser.Serialize, error) {
	return ProducerOptions(v, Options{})
}

func ProducerOptions(v any, opt Options) (ser.Serialize, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return ser.Null(), nil
	}
	if err := check(rv.Type(), nil); err != nil {
		return nil, err
	}
	return valueSer{v: rv, opt: opt}, nil
}

// Consumer derives a consumer filling *out. out must be a non-nil
// pointer.
func Consumer(out any) (de.Visitor, error) {
	return ConsumerOptions(out, Options{})
}

func ConsumerOptions(out any, opt Options) (de.Visitor, error) {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, errors.New("reflectgen: out must be a non-nil pointer")
	}
	place := rv.Elem()
	if err := check(place.Type(), nil); err != nil {
		return nil, err
	}
	return newVisitor(place, nil, opt), nil
}

var (
	serializeType = reflect.TypeOf((*ser.Serialize)(nil)).Elem()
	valueType     = reflect.TypeOf(tokdoc.Value{})
	bytesType     = reflect.TypeOf(tokdoc.Bytes{})
	byteSliceType = reflect.TypeOf([]byte(nil))
)

// check validates that t maps onto the data model, walking nested
// types once. seen guards recursive types, which are supported: the
// walk treats an in-progress type as settled.
func check(t reflect.Type, seen map[reflect.Type]bool) error {
	if t == valueType || t == bytesType || t.Implements(serializeType) {
		return nil
	}
	if seen[t] {
		return nil
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return nil
	case reflect.Pointer, reflect.Slice, reflect.Array:
		if seen == nil {
			seen = make(map[reflect.Type]bool)
		}
		seen[t] = true
		return check(t.Elem(), seen)
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return errors.Wrapf(ErrUnsupported, "map key %s", t.Key())
		}
		if seen == nil {
			seen = make(map[reflect.Type]bool)
		}
		seen[t] = true
		return check(t.Elem(), seen)
	case reflect.Struct:
		if seen == nil {
			seen = make(map[reflect.Type]bool)
		}
		seen[t] = true
		for _, f := range planFor(t).fields {
			if err := check(t.Field(f.index).Type, seen); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.Wrapf(ErrUnsupported, "%s", t)
}

type planField struct {
	name  string
	index int
}

type structPlan struct {
	fields []planField
}

var plans sync.Map // reflect.Type -> *structPlan

// planFor resolves the serialized field set of a struct type once.
// Unexported fields and fields tagged `tokdoc:"-"` are skipped; a tag
// name overrides the field name.
func planFor(t reflect.Type) *structPlan {
	if p, ok := plans.Load(t); ok {
		return p.(*structPlan)
	}
	p := &structPlan{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" && !sf.Anonymous {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("tokdoc"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		p.fields = append(p.fields, planField{name: name, index: i})
	}
	actual, _ := plans.LoadOrStore(t, p)
	return actual.(*structPlan)
}

// packable reports whether a slice type rides the packed binary path:
// fixed-width elements wider than a byte ([]byte has its own element
// already).
func packable(t reflect.Type) bool {
	if t.Kind() != reflect.Slice {
		return false
	}
	k := t.Elem().Kind()
	if k == reflect.Uint8 {
		return false
	}
	return common.IsFixedKind(k) && t.Elem() == reflect.TypeOf(zeroOf(k))
}

func zeroOf(k reflect.Kind) any {
	switch k {
	case reflect.Bool:
		return false
	case reflect.Int8:
		return int8(0)
	case reflect.Int16:
		return int16(0)
	case reflect.Int32:
		return int32(0)
	case reflect.Int64:
		return int64(0)
	case reflect.Uint8:
		return uint8(0)
	case reflect.Uint16:
		return uint16(0)
	case reflect.Uint32:
		return uint32(0)
	case reflect.Uint64:
		return uint64(0)
	case reflect.Float32:
		return float32(0)
	case reflect.Float64:
		return float64(0)
	}
	return nil
}
