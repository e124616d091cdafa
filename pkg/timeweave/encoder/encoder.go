// Package encoder implements the timeline pipeline: normalize -> sequence
// -> detect anomalies -> group cognitive units -> assemble. One Encode call
// owns its working buffers end to end; the stages never run out of order
// and never suspend - only the codec boundary touches bytes.
package encoder

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Soynido/timeweave/pkg/timeweave/codec"
	"github.com/Soynido/timeweave/pkg/timeweave/config"
	"github.com/Soynido/timeweave/pkg/timeweave/errors"
	"github.com/Soynido/timeweave/pkg/timeweave/event"
	"github.com/Soynido/timeweave/pkg/timeweave/observability"
	"github.com/Soynido/timeweave/pkg/timeweave/spec"
)

// Encoder turns raw message batches into timelines. An Encoder is safe for
// concurrent use: every Encode call builds a fresh pipeline context instead
// of resetting shared state.
type Encoder struct {
	cfg      config.Encoder
	rules    config.RuleSet
	codec    *codec.Codec
	spec     *spec.Spec
	patterns map[string][]string
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithRules replaces the generic grouping rule set.
func WithRules(rules config.RuleSet) Option {
	return func(e *Encoder) {
		e.rules = rules
	}
}

// WithCodec sets the codec used by Compress/Decompress.
func WithCodec(c *codec.Codec) Option {
	return func(e *Encoder) {
		e.codec = c
	}
}

// WithSpec installs a validation gate: messages whose validation fails at
// error severity or above are dropped before normalization.
func WithSpec(s *spec.Spec) Option {
	return func(e *Encoder) {
		e.spec = s
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Encoder) {
		e.logger = logger
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Encoder) {
		e.metrics = m
	}
}

// WithSpanManager attaches a tracing span manager.
func WithSpanManager(sm observability.SpanManager) Option {
	return func(e *Encoder) {
		e.spans = sm
	}
}

// WithPatternDictionary replaces the tag classification dictionary. Keys
// are tags; values are substrings matched against the event's file path and
// commit message.
func WithPatternDictionary(patterns map[string][]string) Option {
	return func(e *Encoder) {
		e.patterns = patterns
	}
}

// New creates an Encoder with the given pipeline configuration.
func New(cfg config.Encoder, opts ...Option) (*Encoder, error) {
	e := &Encoder{
		cfg:      cfg,
		rules:    config.DefaultRuleSet(),
		patterns: defaultPatterns(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.rules.Validate(); err != nil {
		return nil, err
	}
	if e.codec == nil {
		c, err := codec.New(config.DefaultCodec())
		if err != nil {
			return nil, err
		}
		e.codec = c
	}
	return e, nil
}

// Encode runs the full pipeline over one batch. Individually bad messages
// are dropped and logged; an empty batch, or a batch with no survivors, is
// a whole-call error.
func (e *Encoder) Encode(ctx context.Context, msgs []*event.Message) (*event.Timeline, error) {
	if len(msgs) == 0 {
		return nil, errors.ErrEmptyTimeline
	}

	start := time.Now()
	ctx, span := e.spans.StartEncodeSpan(ctx, len(msgs))
	observability.LogEncodeStart(e.logger, len(msgs))

	p := newPipeline(len(msgs))

	stage := func(name string, fn func(context.Context)) {
		sctx, s := e.spans.StartStageSpan(ctx, name)
		fn(sctx)
		e.spans.EndSpanWithError(s, nil)
	}

	stage("normalize", func(sctx context.Context) { e.normalize(sctx, p, msgs) })
	if len(p.events) == 0 {
		err := errors.ErrEmptyTimeline
		e.spans.EndSpanWithError(span, err)
		e.metrics.RecordEncode(ctx, false, time.Since(start), len(msgs))
		return nil, err
	}
	stage("sequence", func(context.Context) { e.sequence(p) })
	stage("anomalies", func(sctx context.Context) { e.detectAnomalies(sctx, p) })
	stage("group", func(sctx context.Context) { e.group(sctx, p) })
	var timeline *event.Timeline
	stage("assemble", func(context.Context) { timeline = e.assemble(p) })

	e.spans.AddSpanEvent(ctx, "pipeline.complete",
		attribute.Int("units", len(timeline.CognitiveUnits)),
		attribute.Int("anomalies", len(timeline.Anomalies)))
	e.spans.EndSpanWithError(span, nil)
	e.metrics.RecordEncode(ctx, true, time.Since(start), len(msgs))
	observability.LogEncodeComplete(e.logger, timeline.ID,
		len(timeline.Events), len(timeline.CognitiveUnits), len(timeline.Anomalies),
		float64(time.Since(start).Milliseconds()))
	return timeline, nil
}

// Decode is the strict inverse of assembly for events only: it reproduces
// the original message array in arrival order using the sequence numbers.
// Units and anomalies are derived annotations and are not reconstructed.
func (e *Encoder) Decode(t *event.Timeline) ([]*event.Message, error) {
	if t == nil || len(t.Events) == 0 {
		return nil, errors.ErrEmptyTimeline
	}
	if t.Start.IsZero() || t.End.IsZero() {
		return nil, errors.ErrMissingBounds
	}
	if t.End.Before(t.Start) {
		return nil, errors.ErrInvertedBounds
	}

	ordered := make([]*event.Normalized, len(t.Events))
	copy(ordered, t.Events)
	sortBySeq(ordered)

	msgs := make([]*event.Message, len(ordered))
	for i, ev := range ordered {
		msg := ev.Message
		msgs[i] = &msg
	}
	return msgs, nil
}

// Compress serializes the timeline's events into the persisted blob form,
// delegating byte-level work to the codec. The returned metadata inherits
// the timeline's identity and bounds on top of the codec's blob fields.
func (e *Encoder) Compress(ctx context.Context, t *event.Timeline) ([]byte, *event.Metadata, error) {
	if t == nil || len(t.Events) == 0 {
		return nil, nil, errors.ErrEmptyTimeline
	}
	if _, _, err := t.Bounds(); err != nil {
		if t.Start.IsZero() || t.End.IsZero() {
			return nil, nil, errors.ErrMissingBounds
		}
		return nil, nil, errors.ErrInvertedBounds
	}

	blob, meta, err := e.codec.CompressTimeline(t.Events)
	if err != nil {
		return nil, nil, err
	}
	meta.ID = t.ID
	meta.Version = t.Version
	meta.Start = t.Start
	meta.End = t.End
	meta.SourceSystems = t.Metadata.SourceSystems
	meta.CorruptedCount = t.Metadata.CorruptedCount

	e.metrics.RecordBlob(ctx, int64(len(blob)), meta.CompressionRatio)
	logger := observability.EnrichLogger(e.logger, t.ID, "compress")
	observability.LogBlobSaved(logger, t.ID, len(blob), meta.CompressionRatio)
	return blob, meta, nil
}

// Decompress reverses Compress. A checksum mismatch surfaces as a
// CorruptionError before any bytes are interpreted; corrupted blobs never
// produce a wrong timeline. The result carries the persisted events and
// recomputed statistics; units and anomalies are not part of the blob.
func (e *Encoder) Decompress(ctx context.Context, blob []byte, meta *event.Metadata) (*event.Timeline, error) {
	events, err := e.codec.DecompressTimeline(blob, meta)
	if err != nil {
		if errors.IsCorruption(err) {
			e.metrics.RecordCorruption(ctx)
			logger := observability.EnrichLogger(e.logger, meta.ID, "decompress")
			observability.LogCorruption(logger, "timeline blob "+meta.ID)
		}
		return nil, err
	}

	p := newPipeline(len(events))
	p.events = events
	for _, ev := range events {
		p.byID[ev.ID] = ev
	}
	t := e.assemble(p)
	t.ID = meta.ID
	t.Version = meta.Version
	t.Metadata.Algorithm = meta.Algorithm
	t.Metadata.CompressionRatio = meta.CompressionRatio
	t.Metadata.Checksum = meta.Checksum
	t.Metadata.ChunkCount = meta.ChunkCount
	return t, nil
}

// Codec exposes the encoder's codec, mainly for stats inspection.
func (e *Encoder) Codec() *codec.Codec {
	return e.codec
}
