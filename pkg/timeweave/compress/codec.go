// Package compress provides the pluggable byte-level compression codecs
// used by the timeweave codec. Implementations share two conventions:
// empty input yields nil output, and returned slices are newly allocated
// and owned by the caller.
package compress

import "fmt"

// Algorithm names a compression algorithm in configuration and metadata.
type Algorithm string

const (
	None    Algorithm = "none"
	Gzip    Algorithm = "gzip"
	Deflate Algorithm = "deflate"
	Zstd    Algorithm = "zstd"
	LZ4     Algorithm = "lz4"
	S2      Algorithm = "s2"
)

// Valid reports whether the algorithm is known.
func (a Algorithm) Valid() bool {
	switch a {
	case None, Gzip, Deflate, Zstd, LZ4, S2:
		return true
	}
	return false
}

// String returns the algorithm name.
func (a Algorithm) String() string { return string(a) }

// Compressor compresses a byte payload.
type Compressor interface {
	// Compress compresses the input data and returns the compressed
	// result. The input slice is not modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor.
type Decompressor interface {
	// Decompress decompresses previously compressed data. It returns an
	// error when the data is corrupted or was produced by an
	// incompatible algorithm.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions. All codecs in this package are safe for
// concurrent use.
type Codec interface {
	Compressor
	Decompressor
}

// DefaultLevel selects each algorithm's own default compression level.
const DefaultLevel = 0

// New returns the codec for the given algorithm. Level is honored by gzip
// and deflate; other algorithms use their own defaults. An unknown
// algorithm is an error.
func New(algorithm Algorithm, level int) (Codec, error) {
	switch algorithm {
	case None:
		return NewNoOpCodec(), nil
	case Gzip:
		return NewGzipCodec(level), nil
	case Deflate:
		return NewDeflateCodec(level), nil
	case Zstd:
		return NewZstdCodec(), nil
	case LZ4:
		return NewLZ4Codec(), nil
	case S2:
		return NewS2Codec(), nil
	default:
		return nil, fmt.Errorf("unknown compression algorithm: %q", algorithm)
	}
}

// Ratio returns compressed size over original size, or 1 for empty input.
func Ratio(originalSize, compressedSize int) float64 {
	if originalSize == 0 {
		return 1
	}
	return float64(compressedSize) / float64(originalSize)
}
