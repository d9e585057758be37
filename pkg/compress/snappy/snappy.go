// Package snappy registers the snappy block codec (code 3).
package snappy

import (
	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"

	"github.com/rawbytedev/tokdoc/pkg/compress"
)

const Code byte = 3

func init() {
	compress.Register(codec{})
}

type codec struct{}

func New() compress.Compressor { return codec{} }

func (codec) Code() byte { return Code }

func (codec) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (codec) Uncompress(data []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, "snappy: uncompress")
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}
