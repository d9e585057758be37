package de

// Ignore returns a visitor that accepts any value and discards it.
// Record builders hand it out for unknown keys; nested containers are
// skipped through ignore builders pushed on the same engine stack, so
// skipping is as depth-independent as real decoding.
func Ignore() Visitor { return ignore{} }

type ignore struct{}

func (ignore) Null(any) error               { return nil }
func (ignore) Bool(bool, any) error         { return nil }
func (ignore) Int(int64, any) error         { return nil }
func (ignore) Uint(uint64, any) error       { return nil }
func (ignore) Float32(float32, any) error   { return nil }
func (ignore) Float64(float64, any) error   { return nil }
func (ignore) String(string, any) error     { return nil }
func (ignore) Bytes([]byte, int, any) error { return nil }

func (ignore) Seq(any) (SeqBuilder, error) { return ignoreBuilder{}, nil }
func (ignore) Map(any) (MapBuilder, error) { return ignoreBuilder{}, nil }

type ignoreBuilder struct{}

func (ignoreBuilder) Element() (Visitor, error)      { return ignore{}, nil }
func (ignoreBuilder) Key(string) (Visitor, error)    { return ignore{}, nil }
func (ignoreBuilder) Finish(any) error               { return nil }
