package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4Pool pools lz4.Compressor instances; their internal hash tables
// benefit from reuse.
var lz4Pool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Codec compresses with LZ4 block compression. Fastest decompression of
// the available algorithms.
type LZ4Codec struct{}

var _ Codec = (*LZ4Codec)(nil)

// NewLZ4Codec creates an LZ4 codec.
func NewLZ4Codec() LZ4Codec {
	return LZ4Codec{}
}

// Compress compresses the input data using an LZ4 block.
func (LZ4Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4Pool.Get().(*lz4.Compressor)
	defer lz4Pool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return dst[:n], nil
}

// Decompress decompresses an LZ4 block. The decompressed size is not stored
// in the block format, so the buffer starts at 4x the compressed size and
// doubles on short-buffer errors up to a 128MB limit.
func (LZ4Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	const maxSize = 128 * 1024 * 1024
	bufSize := len(data) * 4

	for bufSize <= maxSize {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
				bufSize *= 2
				continue
			}
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return buf[:n], nil
	}

	return nil, lz4.ErrInvalidSourceShortBuffer
}
