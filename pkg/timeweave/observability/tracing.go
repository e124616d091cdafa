package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the timeweave tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("timeweave")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartEncodeSpan starts a span for a full pipeline encode.
	StartEncodeSpan(ctx context.Context, eventCount int) (context.Context, trace.Span)

	// StartStageSpan starts a span for one pipeline stage, child of the
	// encode span.
	StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartEncodeSpan starts a span for a full pipeline encode.
func (m *otelSpanManager) StartEncodeSpan(ctx context.Context, eventCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "timeweave.encode",
		trace.WithAttributes(
			attribute.Int("event.count", eventCount),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartStageSpan starts a span for one pipeline stage.
func (m *otelSpanManager) StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "timeweave.stage."+stage,
		trace.WithAttributes(
			attribute.String("stage", stage),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
