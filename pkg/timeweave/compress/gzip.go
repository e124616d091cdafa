package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// GzipCodec compresses with gzip. Useful when blobs must interoperate with
// external tooling that expects the gzip container format.
type GzipCodec struct {
	level int
}

var _ Codec = (*GzipCodec)(nil)

// NewGzipCodec creates a gzip codec. A level of DefaultLevel (or any value
// outside gzip's range) selects gzip.DefaultCompression.
func NewGzipCodec(level int) GzipCodec {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression || level == 0 {
		level = gzip.DefaultCompression
	}
	return GzipCodec{level: level}
}

// Compress compresses the input data using gzip.
func (c GzipCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip flush: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress decompresses gzip data.
func (c GzipCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	return out, nil
}
