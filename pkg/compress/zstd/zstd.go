// Package zstd registers the zstd codec (code 1).
package zstd

import (
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"

	"github.com/rawbytedev/tokdoc/pkg/compress"
)

const Code byte = 1

func init() {
	compress.Register(New())
}

type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New returns the zstd codec. The underlying encoder and decoder are
// stateless in EncodeAll/DecodeAll mode and safe for concurrent use.
func New() compress.Compressor {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		panic(err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		panic(err)
	}
	return &codec{enc: enc, dec: dec}
}

func (*codec) Code() byte { return Code }

func (c *codec) Compress(data []byte) ([]byte, error) {
	return c.enc.EncodeAll(data, nil), nil
}

func (c *codec) Uncompress(data []byte) ([]byte, error) {
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, "zstd: uncompress")
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}
