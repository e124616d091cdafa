package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// DeflateCodec compresses with raw DEFLATE (no container framing).
type DeflateCodec struct {
	level int
}

var _ Codec = (*DeflateCodec)(nil)

// NewDeflateCodec creates a deflate codec. A level of DefaultLevel (or any
// value outside flate's range) selects flate.DefaultCompression.
func NewDeflateCodec(level int) DeflateCodec {
	if level < flate.HuffmanOnly || level > flate.BestCompression || level == 0 {
		level = flate.DefaultCompression
	}
	return DeflateCodec{level: level}
}

// Compress compresses the input data using deflate.
func (c DeflateCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("deflate writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("deflate compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("deflate flush: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress decompresses deflate data.
func (c DeflateCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("deflate decompress: %w", err)
	}
	return out, nil
}
