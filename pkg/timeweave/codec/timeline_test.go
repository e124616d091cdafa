package codec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	twerrors "github.com/Soynido/timeweave/pkg/timeweave/errors"
	"github.com/Soynido/timeweave/pkg/timeweave/event"
)

func normalizedEvents(n int) []*event.Normalized {
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	events := make([]*event.Normalized, n)
	for i := range events {
		ts := base.Add(time.Duration(i) * time.Minute)
		events[i] = &event.Normalized{
			Message: *event.New(event.TypeFileChange, event.SourceFileWatcher, map[string]any{
				"file_path": "src/api/handler.go",
			}, event.WithID(string(rune('a'+i))), event.WithTimestamp(ts)),
			NormalizedTS: ts.UnixMilli(),
			Seq:          i,
		}
	}
	return events
}

func TestCompressDecompressTimeline_RoundTrip(t *testing.T) {
	c := newCodec(t, nil)
	events := normalizedEvents(12)

	blob, meta, err := c.CompressTimeline(events)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 12, meta.EventCount)
	assert.Equal(t, "zstd", meta.Algorithm)
	assert.NotEmpty(t, meta.Checksum)
	assert.Equal(t, 1, meta.ChunkCount)
	assert.Positive(t, meta.CompressionRatio)

	restored, err := c.DecompressTimeline(blob, meta)
	require.NoError(t, err)
	require.Len(t, restored, 12)
	for i, ev := range restored {
		assert.Equal(t, events[i].ID, ev.ID)
		assert.Equal(t, events[i].Seq, ev.Seq)
		assert.Equal(t, events[i].NormalizedTS, ev.NormalizedTS)
	}
}

func TestCompressTimeline_Empty(t *testing.T) {
	c := newCodec(t, nil)
	_, _, err := c.CompressTimeline(nil)
	assert.ErrorIs(t, err, twerrors.ErrEmptyTimeline)
}

func TestCompressTimeline_DedupByFullLine(t *testing.T) {
	c := newCodec(t, nil)
	events := normalizedEvents(3)

	// The same event twice compresses to one line; a different event with
	// an identical payload survives because its id differs.
	withDup := append(events, events[1])
	blob, meta, err := c.CompressTimeline(withDup)
	require.NoError(t, err)
	assert.Equal(t, 3, meta.EventCount)
	assert.Equal(t, int64(1), c.Stats().Deduplicated)

	restored, err := c.DecompressTimeline(blob, meta)
	require.NoError(t, err)
	assert.Len(t, restored, 3)
}

func TestDecompressTimeline_ChecksumMismatch(t *testing.T) {
	c := newCodec(t, nil)
	blob, meta, err := c.CompressTimeline(normalizedEvents(5))
	require.NoError(t, err)

	blob[0] ^= 0xFF

	_, err = c.DecompressTimeline(blob, meta)
	require.Error(t, err)
	assert.True(t, twerrors.IsCorruption(err))
	assert.Equal(t, int64(1), c.Stats().CorruptionDetected)
}

func TestDecompressTimeline_NilMetadata(t *testing.T) {
	c := newCodec(t, nil)
	blob, _, err := c.CompressTimeline(normalizedEvents(2))
	require.NoError(t, err)

	_, err = c.DecompressTimeline(blob, nil)
	assert.Error(t, err)
}

func TestCompressTimeline_ChunkCount(t *testing.T) {
	c := newCodec(t, nil) // chunk size 100
	_, meta, err := c.CompressTimeline(normalizedEvents(26))
	require.NoError(t, err)
	assert.Equal(t, 1, meta.ChunkCount)

	_, meta, err = c.CompressTimeline(normalizedEvents(101))
	require.NoError(t, err)
	assert.Equal(t, 2, meta.ChunkCount)
}
