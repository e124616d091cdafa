package compress

// NoOpCodec passes data through unchanged. It keeps the codec pipeline
// uniform when compression is disabled.
type NoOpCodec struct{}

var _ Codec = (*NoOpCodec)(nil)

// NewNoOpCodec creates a pass-through codec.
func NewNoOpCodec() NoOpCodec {
	return NoOpCodec{}
}

// Compress returns the input as-is.
func (NoOpCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Decompress returns the input as-is.
func (NoOpCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
