// Package de implements the deserialize side of the traversal engine.
//
// A format backend exposes a pull-based Tokenizer; the Run loop routes
// each token to the visitor owning the current place. Container frames
// live on an explicit heap-backed stack, so documents of any depth
// decode with constant native stack usage.
//
// A place is caller-owned storage filled exactly once: visitors either
// leave it untouched (error path) or store a fully valid value before
// reporting success. Record builders enforce this by assembling their
// output only in Finish, after every required field was seen.
package de

// TokenKind tags the payload carried by a Token.
type TokenKind uint8

const (
	TokenNull TokenKind = iota
	TokenBool
	TokenInt
	TokenUint
	TokenFloat32
	TokenFloat64
	TokenString
	TokenBytes
	TokenBeginSeq
	TokenBeginMap
	TokenKey
	TokenEnd
)

// Token is one unit of decode input pulled from a format backend.
// Str doubles as the key for TokenKey. Bytes may borrow from the
// backend's input buffer; consumers that outlive the buffer must copy.
type Token struct {
	Kind  TokenKind
	Bool  bool
	Int   int64
	Uint  uint64
	Float float64 // TokenFloat32 values are stored widened
	Str   string
	Bytes []byte
	Align int
}

// Tokenizer is the pull contract every format backend implements.
// After an error the stream is dead; Run stops at the first failure
// and guarantees no further token consumption.
type Tokenizer interface {
	Next() (Token, error)
}

// Visitor writes data into an output place. Methods a type does not
// support come from the embedded Unimplemented and fail.
type Visitor interface {
	Null(ctx any) error
	Bool(b bool, ctx any) error
	Int(n int64, ctx any) error
	Uint(n uint64, ctx any) error
	Float32(f float32, ctx any) error
	Float64(f float64, ctx any) error
	String(s string, ctx any) error
	Bytes(b []byte, align int, ctx any) error
	Seq(ctx any) (SeqBuilder, error)
	Map(ctx any) (MapBuilder, error)
}

// SeqBuilder hands out places for sequence elements one at a time and
// commits the accumulated output in Finish.
type SeqBuilder interface {
	Element() (Visitor, error)
	Finish(ctx any) error
}

// MapBuilder hands out places for map values keyed by name. Finish
// must report failure when required fields are missing.
type MapBuilder interface {
	Key(k string) (Visitor, error)
	Finish(ctx any) error
}

// Unimplemented fails every visit. Embed it in a visitor and override
// the methods the target type supports.
type Unimplemented struct{}

func (Unimplemented) Null(any) error                { return ErrFailed }
func (Unimplemented) Bool(bool, any) error          { return ErrFailed }
func (Unimplemented) Int(int64, any) error          { return ErrFailed }
func (Unimplemented) Uint(uint64, any) error        { return ErrFailed }
func (Unimplemented) Float32(float32, any) error    { return ErrFailed }
func (Unimplemented) Float64(float64, any) error    { return ErrFailed }
func (Unimplemented) String(string, any) error      { return ErrFailed }
func (Unimplemented) Bytes([]byte, int, any) error  { return ErrFailed }
func (Unimplemented) Seq(any) (SeqBuilder, error)   { return nil, ErrFailed }
func (Unimplemented) Map(any) (MapBuilder, error)   { return nil, ErrFailed }

func mark(set *bool) {
	if set != nil {
		*set = true
	}
}
