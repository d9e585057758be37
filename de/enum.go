package de

// Enum is an externally tagged enum consumer: a bare string resolves a
// unit variant by name, a single-key map resolves a payload variant by
// its key. Any other token shape, an unknown name, or a second key
// fails.
type Enum struct {
	Unimplemented

	// Unit resolves a unit variant name and fills the place.
	// nil when the enum has no unit variants.
	Unit func(name string, ctx any) error

	// Payload returns the payload place visitor and a commit hook for
	// a variant name, or (nil, nil) for an unknown variant. Commit runs
	// at map end and must fail unless the payload place was filled.
	Payload func(name string) (Visitor, func(ctx any) error)
}

func (e Enum) String(s string, ctx any) error {
	if e.Unit == nil {
		return ErrFailed
	}
	return e.Unit(s, ctx)
}

func (e Enum) Map(_ any) (MapBuilder, error) {
	return &enumBuilder{e: e}, nil
}

type enumBuilder struct {
	e      Enum
	commit func(ctx any) error
	keys   int
}

func (b *enumBuilder) Key(k string) (Visitor, error) {
	b.keys++
	if b.keys > 1 || b.e.Payload == nil {
		return nil, ErrFailed
	}
	v, commit := b.e.Payload(k)
	if v == nil {
		return nil, ErrFailed
	}
	b.commit = commit
	return v, nil
}

func (b *enumBuilder) Finish(ctx any) error {
	if b.commit == nil {
		return ErrFailed
	}
	return b.commit(ctx)
}
