package config

import (
	"time"

	"github.com/Soynido/timeweave/pkg/timeweave/compress"
)

// Codec configures the byte-level codec.
type Codec struct {
	// Algorithm selects the compression codec. Default: zstd.
	Algorithm compress.Algorithm

	// Level is the compression level, honored by gzip and deflate.
	Level int

	// EncryptionKey enables AES-GCM encryption when non-empty. The key
	// must be 16, 24 or 32 bytes.
	EncryptionKey []byte

	// Checksum enables SHA-256 checksums over the final byte sequence.
	Checksum bool

	// Versioning enables major-version compatibility checks on decode.
	Versioning bool

	// ChunkSize bounds batch processing. Default: 100.
	ChunkSize int
}

// DefaultCodec returns the codec defaults.
func DefaultCodec() Codec {
	return Codec{
		Algorithm:  compress.Zstd,
		Level:      compress.DefaultLevel,
		Checksum:   true,
		Versioning: true,
		ChunkSize:  100,
	}
}

// Anomaly holds the thresholds driving anomaly detection.
type Anomaly struct {
	// MaxGapDuration is the consecutive-event delta above which a
	// temporal gap anomaly is raised. Default: 4h.
	MaxGapDuration time.Duration

	// MaxContextSwitches is the distinct-directory count tolerated in a
	// 10-event sliding window. Default: 10.
	MaxContextSwitches int

	// MaxDeletions is the deleted-line count tolerated in a 10-event
	// sliding window. Default: 500.
	MaxDeletions int

	// NightStartHour/NightEndHour bound the unusual-hours band (start
	// inclusive, wrapping midnight, end exclusive). Default: 22 to 6.
	NightStartHour int
	NightEndHour   int

	// MaxCircularDepth bounds the parent-chain walk used for cycle
	// detection. Default: 10.
	MaxCircularDepth int
}

// DefaultAnomaly returns the anomaly-detection defaults.
func DefaultAnomaly() Anomaly {
	return Anomaly{
		MaxGapDuration:     4 * time.Hour,
		MaxContextSwitches: 10,
		MaxDeletions:       500,
		NightStartHour:     22,
		NightEndHour:       6,
		MaxCircularDepth:   10,
	}
}

// Encoder configures the timeline encoder pipeline.
type Encoder struct {
	// MaxEventGap bounds implicit parent linkage and session extension.
	// Default: 30m.
	MaxEventGap time.Duration

	// MinSessionDuration is the minimum committed session span. Default: 5m.
	MinSessionDuration time.Duration

	// MinBurstEvents is the minimum window size for a burst. Default: 5.
	MinBurstEvents int

	// WorkingSetMin is the minimum directory group size. Default: 3.
	WorkingSetMin int

	// RefactorStreakMin is the minimum consecutive refactoring run. Default: 3.
	RefactorStreakMin int

	// HotspotMin is the minimum per-file group size. Default: 5.
	HotspotMin int

	Anomaly Anomaly
}

// DefaultEncoder returns the encoder defaults.
func DefaultEncoder() Encoder {
	return Encoder{
		MaxEventGap:        30 * time.Minute,
		MinSessionDuration: 5 * time.Minute,
		MinBurstEvents:     5,
		WorkingSetMin:      3,
		RefactorStreakMin:  3,
		HotspotMin:         5,
		Anomaly:            DefaultAnomaly(),
	}
}

// EncoderFromConfig overlays file-loaded values onto the encoder defaults.
func EncoderFromConfig(c Config) Encoder {
	def := DefaultEncoder()
	return Encoder{
		MaxEventGap:        c.Duration("max_event_gap", def.MaxEventGap),
		MinSessionDuration: c.Duration("min_session_duration", def.MinSessionDuration),
		MinBurstEvents:     c.Int("min_burst_events", def.MinBurstEvents),
		WorkingSetMin:      c.Int("working_set_min", def.WorkingSetMin),
		RefactorStreakMin:  c.Int("refactor_streak_min", def.RefactorStreakMin),
		HotspotMin:         c.Int("hotspot_min", def.HotspotMin),
		Anomaly: Anomaly{
			MaxGapDuration:     c.Duration("max_gap_duration", def.Anomaly.MaxGapDuration),
			MaxContextSwitches: c.Int("max_context_switches", def.Anomaly.MaxContextSwitches),
			MaxDeletions:       c.Int("max_deletions", def.Anomaly.MaxDeletions),
			NightStartHour:     c.Int("night_start_hour", def.Anomaly.NightStartHour),
			NightEndHour:       c.Int("night_end_hour", def.Anomaly.NightEndHour),
			MaxCircularDepth:   c.Int("max_circular_depth", def.Anomaly.MaxCircularDepth),
		},
	}
}

// CodecFromConfig overlays file-loaded values onto the codec defaults.
func CodecFromConfig(c Config) Codec {
	def := DefaultCodec()
	cfg := Codec{
		Algorithm:  compress.Algorithm(c.String("algorithm", string(def.Algorithm))),
		Level:      c.Int("level", def.Level),
		Checksum:   c.Bool("checksum", def.Checksum),
		Versioning: c.Bool("versioning", def.Versioning),
		ChunkSize:  c.Int("chunk_size", def.ChunkSize),
	}
	if key := c.String("encryption_key", ""); key != "" {
		cfg.EncryptionKey = []byte(key)
	}
	return cfg
}
