package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/Soynido/timeweave/pkg/timeweave/compress"
	"github.com/Soynido/timeweave/pkg/timeweave/errors"
	"github.com/Soynido/timeweave/pkg/timeweave/event"
)

// CompressTimeline serializes normalized events to one JSON line each,
// drops duplicate lines, and compresses the result. The dedup key is the
// xxhash64 of the whole line: since every line carries the event id, two
// distinct events can never collapse into one even when all other fields
// match.
//
// The returned metadata carries the event count, compression ratio and the
// SHA-256 checksum of the compressed blob; it is the only index needed to
// validate the blob before a full decompress.
func (c *Codec) CompressTimeline(events []*event.Normalized) ([]byte, *event.Metadata, error) {
	if len(events) == 0 {
		return nil, nil, errors.ErrEmptyTimeline
	}

	var buf bytes.Buffer
	seen := make(map[uint64]struct{}, len(events))
	kept := 0
	for _, ev := range events {
		line, err := json.Marshal(ev)
		if err != nil {
			return nil, nil, &errors.EncodingError{Stage: "serialize", Err: err}
		}
		h := xxhash.Sum64(line)
		if _, dup := seen[h]; dup {
			c.stats.deduplicated.Add(1)
			continue
		}
		seen[h] = struct{}{}
		if kept > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(line)
		kept++
	}

	blob, err := c.comp.Compress(buf.Bytes())
	if err != nil {
		c.stats.errors.Add(1)
		return nil, nil, &errors.EncodingError{Stage: "compress", Err: err}
	}

	meta := &event.Metadata{
		Version:          event.TimelineVersion,
		EventCount:       kept,
		Algorithm:        c.cfg.Algorithm.String(),
		CompressionRatio: compress.Ratio(buf.Len(), len(blob)),
		ChunkCount:       (kept + c.cfg.ChunkSize - 1) / c.cfg.ChunkSize,
	}
	if c.cfg.Checksum {
		meta.Checksum = checksumHex(blob)
	}

	c.stats.bytesIn.Add(int64(buf.Len()))
	c.stats.bytesOut.Add(int64(len(blob)))
	return blob, meta, nil
}

// DecompressTimeline reverses CompressTimeline. The blob checksum is
// verified against the metadata before decompression; a mismatch raises a
// CorruptionError rather than producing a wrong timeline.
func (c *Codec) DecompressTimeline(blob []byte, meta *event.Metadata) ([]*event.Normalized, error) {
	if meta == nil {
		return nil, &errors.DecodingError{Stage: "metadata", Err: fmt.Errorf("timeline metadata is nil")}
	}
	if meta.Checksum != "" {
		if actual := checksumHex(blob); actual != meta.Checksum {
			c.stats.corruptionDetected.Add(1)
			return nil, &errors.CorruptionError{
				Expected: meta.Checksum,
				Actual:   actual,
				Context:  "timeline blob",
			}
		}
	}

	decomp, err := compress.New(compress.Algorithm(meta.Algorithm), compress.DefaultLevel)
	if err != nil {
		return nil, &errors.DecodingError{Stage: "decompress", Err: err}
	}
	raw, err := decomp.Decompress(blob)
	if err != nil {
		c.stats.errors.Add(1)
		return nil, &errors.DecodingError{Stage: "decompress", Err: err}
	}

	lines := bytes.Split(raw, []byte{'\n'})
	events := make([]*event.Normalized, 0, len(lines))
	for i, line := range lines {
		if len(line) == 0 {
			continue
		}
		ev := &event.Normalized{}
		if err := json.Unmarshal(line, ev); err != nil {
			return nil, &errors.DecodingError{
				Stage: "deserialize",
				Err:   fmt.Errorf("line %d: %w", i, err),
			}
		}
		events = append(events, ev)
	}

	if len(events) == 0 {
		return nil, errors.ErrEmptyTimeline
	}
	return events, nil
}
