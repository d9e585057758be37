package de

// Field is one declared field of a record consumer. Name is the wire
// name after any rename table. Visitor is the place visitor of the
// field's storage slot and Set its presence flag; builders use the
// flag to enforce required fields.
type Field struct {
	Name     string
	Required bool
	Set      *bool
	Visitor  Visitor
}

// Struct returns a record consumer over a declared field list. Unknown
// keys are skipped through Ignore (default non-strict mode); finish is
// called only after every required field was filled, so a failed or
// truncated record never leaks a partially assembled value.
//
// This is the shape generated record consumers take.
func Struct(finish func(ctx any) error, fields ...Field) Visitor {
	return structVisitor{fields: fields, finish: finish}
}

// StrictStruct behaves like Struct but fails on unknown keys.
func StrictStruct(finish func(ctx any) error, fields ...Field) Visitor {
	return structVisitor{fields: fields, finish: finish, strict: true}
}

type structVisitor struct {
	Unimplemented
	fields []Field
	finish func(ctx any) error
	strict bool
}

func (v structVisitor) Map(_ any) (MapBuilder, error) {
	for i := range v.fields {
		if s := v.fields[i].Set; s != nil {
			*s = false
		}
	}
	return structBuilder{v: v}, nil
}

type structBuilder struct {
	v structVisitor
}

func (b structBuilder) Key(k string) (Visitor, error) {
	// Few fields, declared order: a linear scan beats a map here.
	for i := range b.v.fields {
		if b.v.fields[i].Name == k {
			return b.v.fields[i].Visitor, nil
		}
	}
	if b.v.strict {
		return nil, ErrFailed
	}
	return Ignore(), nil
}

func (b structBuilder) Finish(ctx any) error {
	for i := range b.v.fields {
		f := &b.v.fields[i]
		if f.Required && (f.Set == nil || !*f.Set) {
			return ErrFailed
		}
	}
	return b.v.finish(ctx)
}
