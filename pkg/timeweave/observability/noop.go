package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordEncode does nothing.
func (NoopMetrics) RecordEncode(_ context.Context, _ bool, _ time.Duration, _ int) {}

// RecordEventDropped does nothing.
func (NoopMetrics) RecordEventDropped(_ context.Context, _ string) {}

// RecordAnomaly does nothing.
func (NoopMetrics) RecordAnomaly(_ context.Context, _ string) {}

// RecordUnit does nothing.
func (NoopMetrics) RecordUnit(_ context.Context, _ string) {}

// RecordBlob does nothing.
func (NoopMetrics) RecordBlob(_ context.Context, _ int64, _ float64) {}

// RecordCorruption does nothing.
func (NoopMetrics) RecordCorruption(_ context.Context) {}

// NoopSpanManager is a SpanManager that does nothing.
// Use when tracing is disabled to avoid overhead.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

// noopSpan is a span that does nothing.
// We use the OTel noop package for a proper no-op span implementation.
var noopSpan = noop.Span{}

// StartEncodeSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartEncodeSpan(ctx context.Context, _ int) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartStageSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartStageSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
