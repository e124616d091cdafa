package codec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Soynido/timeweave/pkg/timeweave/codec"
	"github.com/Soynido/timeweave/pkg/timeweave/compress"
	"github.com/Soynido/timeweave/pkg/timeweave/config"
	twerrors "github.com/Soynido/timeweave/pkg/timeweave/errors"
	"github.com/Soynido/timeweave/pkg/timeweave/event"
)

var testKey = []byte("0123456789abcdef0123456789abcdef") // 32 bytes

func newCodec(t *testing.T, mutate func(*config.Codec)) *codec.Codec {
	t.Helper()
	cfg := config.DefaultCodec()
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := codec.New(cfg)
	require.NoError(t, err)
	return c
}

func commitMsg(opts ...event.Option) *event.Message {
	return event.New(event.TypeGitCommit, event.SourceGitListener, map[string]any{
		"commit_hash": "abc1234",
		"branch":      "main",
		"message":     "refactor handler wiring",
	}, opts...)
}

func TestEncodeDecodeMessage_RoundTrip(t *testing.T) {
	c := newCodec(t, nil)
	msg := commitMsg()

	env, err := c.EncodeMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, compress.Zstd, env.Algorithm)
	assert.False(t, env.Encrypted)
	assert.NotEmpty(t, env.Checksum)

	decoded, err := c.DecodeMessage(env)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, decoded.ID)
	assert.Equal(t, msg.Type, decoded.Type)
	assert.Equal(t, msg.CorrelationID, decoded.CorrelationID)
	assert.Equal(t, "abc1234", decoded.Payload["commit_hash"])
	assert.True(t, msg.Timestamp.Equal(decoded.Timestamp))
}

func TestEncodeDecodeMessage_Encrypted(t *testing.T) {
	c := newCodec(t, func(cfg *config.Codec) {
		cfg.EncryptionKey = testKey
	})
	msg := commitMsg()

	env, err := c.EncodeMessage(msg)
	require.NoError(t, err)
	assert.True(t, env.Encrypted)

	decoded, err := c.DecodeMessage(env)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, decoded.ID)

	// Two encryptions of the same message differ: the nonce is random.
	env2, err := c.EncodeMessage(msg)
	require.NoError(t, err)
	assert.NotEqual(t, env.Payload, env2.Payload)
}

func TestNew_BadKeyLength(t *testing.T) {
	cfg := config.DefaultCodec()
	cfg.EncryptionKey = []byte("short")
	_, err := codec.New(cfg)
	assert.Error(t, err)
}

func TestDecodeMessage_Corruption(t *testing.T) {
	c := newCodec(t, nil)
	env, err := c.EncodeMessage(commitMsg())
	require.NoError(t, err)

	env.Payload[0] ^= 0xFF

	_, err = c.DecodeMessage(env)
	require.Error(t, err)
	assert.True(t, twerrors.IsCorruption(err))

	var ce *twerrors.CorruptionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, env.Checksum, ce.Expected)
	assert.NotEqual(t, ce.Expected, ce.Actual)

	assert.Equal(t, int64(1), c.Stats().CorruptionDetected)
}

func TestDecodeMessage_EncryptedWithoutKey(t *testing.T) {
	enc := newCodec(t, func(cfg *config.Codec) { cfg.EncryptionKey = testKey })
	env, err := enc.EncodeMessage(commitMsg())
	require.NoError(t, err)

	plain := newCodec(t, nil)
	_, err = plain.DecodeMessage(env)
	assert.Error(t, err)
}

func TestEncodeMessage_InvalidInput(t *testing.T) {
	c := newCodec(t, nil)

	msg := commitMsg()
	msg.Timestamp = time.Time{}

	_, err := c.EncodeMessage(msg)
	require.Error(t, err)
	assert.True(t, twerrors.IsInvalidInput(err))
	assert.Equal(t, int64(1), c.Stats().Errors)
}

func TestDecodeMessage_NilEnvelope(t *testing.T) {
	c := newCodec(t, nil)
	_, err := c.DecodeMessage(nil)
	assert.Error(t, err)
}

func TestDecodeMessage_VersionHandling(t *testing.T) {
	c := newCodec(t, nil)

	// Minor/patch drift is accepted without migration.
	minor, err := c.EncodeMessage(commitMsg(event.WithVersion("1.4.2")))
	require.NoError(t, err)
	decoded, err := c.DecodeMessage(minor)
	require.NoError(t, err)
	assert.Equal(t, "1.4.2", decoded.Version)

	// Unparsable version is rejected outright.
	bad, err := c.EncodeMessage(commitMsg(event.WithVersion("2")))
	require.NoError(t, err)
	bad.Version = "latest"
	_, err = c.DecodeMessage(bad)
	require.Error(t, err)
	var uv *twerrors.UnsupportedVersionError
	assert.ErrorAs(t, err, &uv)
}

func TestDecodeMessage_Migration(t *testing.T) {
	cfg := config.DefaultCodec()
	c, err := codec.New(cfg, codec.WithMigration(func(msg *event.Message, from string) (*event.Message, error) {
		msg.Metadata = map[string]string{"migrated_from": from}
		return msg, nil
	}))
	require.NoError(t, err)

	env, err := c.EncodeMessage(commitMsg(event.WithVersion("0.9.0")))
	require.NoError(t, err)

	decoded, err := c.DecodeMessage(env)
	require.NoError(t, err)
	assert.Equal(t, "0.9.0", decoded.Metadata["migrated_from"])
}

func TestBatch_PartialFailure(t *testing.T) {
	c := newCodec(t, nil)

	good1 := commitMsg(event.WithID("g-1"))
	bad := commitMsg(event.WithID("b-1"))
	bad.Timestamp = time.Time{}
	good2 := commitMsg(event.WithID("g-2"))

	result := c.EncodeBatch([]*event.Message{good1, bad, good2})

	require.Len(t, result.Items, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.True(t, twerrors.IsInvalidInput(result.Failed[0].Err))

	// Order of survivors matches input order.
	first, err := c.DecodeMessage(result.Items[0])
	require.NoError(t, err)
	second, err := c.DecodeMessage(result.Items[1])
	require.NoError(t, err)
	assert.Equal(t, "g-1", first.ID)
	assert.Equal(t, "g-2", second.ID)
}

func TestBatch_ChunkingPreservesOrder(t *testing.T) {
	c := newCodec(t, func(cfg *config.Codec) { cfg.ChunkSize = 3 })

	msgs := make([]*event.Message, 10)
	for i := range msgs {
		msgs[i] = commitMsg(event.WithID(string(rune('a' + i))))
	}

	encoded := c.EncodeBatch(msgs)
	require.Len(t, encoded.Items, 10)
	require.Empty(t, encoded.Failed)

	decoded := c.DecodeBatch(encoded.Items)
	require.Len(t, decoded.Items, 10)
	for i, msg := range decoded.Items {
		assert.Equal(t, string(rune('a'+i)), msg.ID)
	}
}

func TestDecodeBatch_PartialFailure(t *testing.T) {
	c := newCodec(t, nil)

	encoded := c.EncodeBatch([]*event.Message{
		commitMsg(event.WithID("a")),
		commitMsg(event.WithID("b")),
	})
	require.Len(t, encoded.Items, 2)

	encoded.Items[0].Payload[0] ^= 0xFF

	decoded := c.DecodeBatch(encoded.Items)
	require.Len(t, decoded.Items, 1)
	require.Len(t, decoded.Failed, 1)
	assert.Equal(t, 0, decoded.Failed[0].Index)
	assert.True(t, twerrors.IsCorruption(decoded.Failed[0].Err))
	assert.Equal(t, "b", decoded.Items[0].ID)
}

func TestStats(t *testing.T) {
	c := newCodec(t, nil)

	env, err := c.EncodeMessage(commitMsg())
	require.NoError(t, err)
	_, err = c.DecodeMessage(env)
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.MessagesEncoded)
	assert.Equal(t, int64(1), stats.MessagesDecoded)
	assert.Positive(t, stats.BytesIn)
	assert.Positive(t, stats.BytesOut)

	c.ResetStats()
	assert.Equal(t, codec.Stats{}, c.Stats())
}
