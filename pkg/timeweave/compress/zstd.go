package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Shared zstd encoder/decoder. EncodeAll/DecodeAll on these are safe for
// concurrent use, so one pair serves the whole process.
var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdInitErr error
)

func zstdInit() {
	zstdOnce.Do(func() {
		zstdEncoder, zstdInitErr = zstd.NewWriter(nil)
		if zstdInitErr != nil {
			return
		}
		zstdDecoder, zstdInitErr = zstd.NewReader(nil)
	})
}

// ZstdCodec compresses with Zstandard. Best ratio of the available
// algorithms; the usual choice for cold timeline blobs.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec creates a zstd codec with default settings.
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}

// Compress compresses the input data using zstd.
func (ZstdCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	zstdInit()
	if zstdInitErr != nil {
		return nil, fmt.Errorf("zstd init: %w", zstdInitErr)
	}
	return zstdEncoder.EncodeAll(data, nil), nil
}

// Decompress decompresses zstd data.
func (ZstdCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	zstdInit()
	if zstdInitErr != nil {
		return nil, fmt.Errorf("zstd init: %w", zstdInitErr)
	}
	out, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}
