// Package codec implements the byte-level serialization contract for
// timeweave messages and timeline blobs.
//
// Encoding always runs the same chain: JSON serialize (ISO-8601
// timestamps) -> compress -> optionally encrypt (AES-GCM, nonce prepended)
// -> SHA-256 checksum over the final bytes. Decoding reverses the chain and
// verifies the checksum before anything else; a mismatch is corruption and
// is never silently repaired.
//
// The codec is schema-agnostic: field-level validation belongs to the spec
// package, cognitive semantics to the encoder package.
package codec

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Soynido/timeweave/pkg/timeweave/compress"
	"github.com/Soynido/timeweave/pkg/timeweave/config"
	"github.com/Soynido/timeweave/pkg/timeweave/errors"
	"github.com/Soynido/timeweave/pkg/timeweave/event"
)

// Envelope is the encoded form of a single message.
type Envelope struct {
	Payload   []byte             `json:"payload"`
	Algorithm compress.Algorithm `json:"algorithm"`
	Encrypted bool               `json:"encrypted"`
	Checksum  string             `json:"checksum,omitempty"`
	Version   string             `json:"version"`
	EncodedAt time.Time          `json:"encoded_at"`
}

// MigrateFunc adapts a message decoded from an older schema version to the
// current one. It receives the decoded message and the version it was
// encoded under.
type MigrateFunc func(msg *event.Message, fromVersion string) (*event.Message, error)

// Codec encodes and decodes messages and timeline blobs. A Codec is safe
// for concurrent use; its only mutable state is the atomic stats counters.
type Codec struct {
	cfg     config.Codec
	comp    compress.Codec
	logger  *slog.Logger
	migrate MigrateFunc
	stats   counters
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger attaches a structured logger for dropped-item reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) {
		c.logger = logger
	}
}

// WithMigration overrides the best-effort migration applied on a major
// version mismatch. The default migration is the identity.
func WithMigration(fn MigrateFunc) Option {
	return func(c *Codec) {
		c.migrate = fn
	}
}

// New creates a Codec from the given configuration.
func New(cfg config.Codec, opts ...Option) (*Codec, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = config.DefaultCodec().ChunkSize
	}
	comp, err := compress.New(cfg.Algorithm, cfg.Level)
	if err != nil {
		return nil, err
	}
	if len(cfg.EncryptionKey) > 0 {
		if err := validateKey(cfg.EncryptionKey); err != nil {
			return nil, err
		}
	}

	c := &Codec{
		cfg:     cfg,
		comp:    comp,
		migrate: identityMigration,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func identityMigration(msg *event.Message, _ string) (*event.Message, error) {
	return msg, nil
}

// EncodeMessage encodes a single message. The message must pass the event
// model's structural validity check; encoding an invalid message fails with
// an InvalidInputError.
func (c *Codec) EncodeMessage(msg *event.Message) (*Envelope, error) {
	if err := msg.Validate(); err != nil {
		c.stats.errors.Add(1)
		id := ""
		if msg != nil {
			id = msg.ID
		}
		return nil, &errors.InvalidInputError{EventID: id, Reason: err.Error()}
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		c.stats.errors.Add(1)
		return nil, &errors.EncodingError{Stage: "serialize", Err: err}
	}

	data, err := c.comp.Compress(raw)
	if err != nil {
		c.stats.errors.Add(1)
		return nil, &errors.EncodingError{Stage: "compress", Err: err}
	}

	encrypted := false
	if len(c.cfg.EncryptionKey) > 0 {
		data, err = encrypt(data, c.cfg.EncryptionKey)
		if err != nil {
			c.stats.errors.Add(1)
			return nil, &errors.EncodingError{Stage: "encrypt", Err: err}
		}
		encrypted = true
	}

	env := &Envelope{
		Payload:   data,
		Algorithm: c.cfg.Algorithm,
		Encrypted: encrypted,
		Version:   msg.Version,
		EncodedAt: time.Now().UTC(),
	}
	if c.cfg.Checksum {
		env.Checksum = checksumHex(data)
	}

	c.stats.messagesEncoded.Add(1)
	c.stats.bytesIn.Add(int64(len(raw)))
	c.stats.bytesOut.Add(int64(len(data)))
	return env, nil
}

// DecodeMessage reverses EncodeMessage. The checksum is verified before
// decryption and decompression; a mismatch raises a CorruptionError and
// increments the corruption counter.
func (c *Codec) DecodeMessage(env *Envelope) (*event.Message, error) {
	if env == nil {
		return nil, &errors.DecodingError{Stage: "envelope", Err: fmt.Errorf("envelope is nil")}
	}

	if c.cfg.Checksum && env.Checksum != "" {
		if actual := checksumHex(env.Payload); actual != env.Checksum {
			c.stats.corruptionDetected.Add(1)
			return nil, &errors.CorruptionError{
				Expected: env.Checksum,
				Actual:   actual,
				Context:  "message envelope",
			}
		}
	}

	if c.cfg.Versioning {
		if err := c.checkVersion(env.Version); err != nil {
			return nil, err
		}
	}

	data := env.Payload
	var err error
	if env.Encrypted {
		if len(c.cfg.EncryptionKey) == 0 {
			return nil, &errors.DecodingError{Stage: "decrypt", Err: fmt.Errorf("envelope is encrypted but no key is configured")}
		}
		data, err = decrypt(data, c.cfg.EncryptionKey)
		if err != nil {
			c.stats.errors.Add(1)
			return nil, &errors.DecodingError{Stage: "decrypt", Err: err}
		}
	}

	decomp, err := compress.New(env.Algorithm, compress.DefaultLevel)
	if err != nil {
		c.stats.errors.Add(1)
		return nil, &errors.DecodingError{Stage: "decompress", Err: err}
	}
	raw, err := decomp.Decompress(data)
	if err != nil {
		c.stats.errors.Add(1)
		return nil, &errors.DecodingError{Stage: "decompress", Err: err}
	}

	var msg event.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.stats.errors.Add(1)
		return nil, &errors.DecodingError{Stage: "deserialize", Err: err}
	}

	if c.cfg.Versioning && majorVersion(msg.Version) != majorVersion(event.SchemaVersion) {
		migrated, err := c.migrate(&msg, msg.Version)
		if err != nil {
			return nil, &errors.DecodingError{Stage: "migrate", Err: err}
		}
		c.stats.messagesDecoded.Add(1)
		return migrated, nil
	}

	c.stats.messagesDecoded.Add(1)
	return &msg, nil
}

// checkVersion compares only the major version component. An older or newer
// minor/patch is accepted outright; a differing major is tolerated because
// decode runs the migration hook, but an unparsable version is not.
func (c *Codec) checkVersion(version string) error {
	if version == "" {
		return nil
	}
	found := majorVersion(version)
	if found < 0 {
		return &errors.UnsupportedVersionError{Found: version, Current: event.SchemaVersion}
	}
	if found != majorVersion(event.SchemaVersion) {
		c.stats.versionMismatches.Add(1)
	}
	return nil
}

// majorVersion parses the leading component of a semver-ish string.
// Returns -1 when it cannot be parsed.
func majorVersion(version string) int {
	if version == "" {
		return -1
	}
	head, _, _ := strings.Cut(version, ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		return -1
	}
	return n
}

func checksumHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
