package compress

import (
	"fmt"

	"github.com/klauspost/compress/s2"
)

// S2Codec compresses with S2, a Snappy-compatible format tuned for speed.
type S2Codec struct{}

var _ Codec = (*S2Codec)(nil)

// NewS2Codec creates an S2 codec.
func NewS2Codec() S2Codec {
	return S2Codec{}
}

// Compress compresses the input data using S2.
func (S2Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return s2.Encode(nil, data), nil
}

// Decompress decompresses S2 data.
func (S2Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	out, err := s2.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("s2 decompress: %w", err)
	}
	return out, nil
}
