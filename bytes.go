package tokdoc

import (
	"github.com/rawbytedev/tokdoc/de"
	"github.com/rawbytedev/tokdoc/ser"
)

// Bytes is a binary payload with an alignment requirement. Alignment 1
// means plain bytes; higher alignments are preserved across every
// backend so a zero-copy view of the decoded payload starts on a
// suitably aligned address.
type Bytes struct {
	Data  []byte
	Align int
}

func (b Bytes) Begin(_ any) ser.Fragment {
	align := b.Align
	if align == 0 {
		align = 1
	}
	return ser.Fragment{Kind: ser.KindBytes, Bytes: b.Data, Align: align}
}

// BytesVisitor fills out from a binary token. The payload slice is
// copied; use a raw de.Visitor when borrowing is wanted.
func BytesVisitor(out *Bytes, set *bool) de.Visitor {
	return bytesVisitor{out: out, set: set}
}

type bytesVisitor struct {
	de.Unimplemented
	out *Bytes
	set *bool
}

func (v bytesVisitor) Bytes(b []byte, align int, _ any) error {
	c := make([]byte, len(b))
	copy(c, b)
	*v.out = Bytes{Data: c, Align: align}
	if v.set != nil {
		*v.set = true
	}
	return nil
}
