// Package lz4 registers the lz4 block codec (code 2).
//
// The block format does not record the uncompressed length, so
// Compress prepends it as a varint, followed by a mode byte: 1 for a
// compressed block, 0 for a payload the compressor could not shrink,
// stored raw.
package lz4

import (
	"github.com/cockroachdb/errors"
	"github.com/pierrec/lz4/v4"

	"github.com/rawbytedev/tokdoc/internal/common"
	"github.com/rawbytedev/tokdoc/pkg/compress"
)

const Code byte = 2

func init() {
	compress.Register(codec{})
}

type codec struct{}

func New() compress.Compressor { return codec{} }

func (codec) Code() byte { return Code }

func (codec) Compress(data []byte) ([]byte, error) {
	head := common.WriteVarUint(nil, uint64(len(data)))
	dst := make([]byte, len(head)+1+lz4.CompressBlockBound(len(data)))
	copy(dst, head)
	var c lz4.Compressor
	n, err := c.CompressBlock(data, dst[len(head)+1:])
	if err != nil || n == 0 || n >= len(data) {
		// incompressible, store raw
		dst[len(head)] = 0
		dst = append(dst[:len(head)+1], data...)
		return dst, nil
	}
	dst[len(head)] = 1
	return dst[:len(head)+1+n], nil
}

func (codec) Uncompress(data []byte) ([]byte, error) {
	size, n := common.ReadVarUint(data)
	if n == 0 || len(data) < n+1 {
		return nil, errors.New("lz4: truncated block header")
	}
	mode, body := data[n], data[n+1:]
	switch mode {
	case 0:
		if uint64(len(body)) != size {
			return nil, errors.New("lz4: raw block length mismatch")
		}
		out := make([]byte, size)
		copy(out, body)
		return out, nil
	case 1:
		out := make([]byte, size)
		m, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, errors.Wrap(err, "lz4: uncompress")
		}
		if uint64(m) != size {
			return nil, errors.New("lz4: block length mismatch")
		}
		return out, nil
	}
	return nil, errors.Newf("lz4: unknown block mode %d", mode)
}
