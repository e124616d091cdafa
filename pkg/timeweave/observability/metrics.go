package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records pipeline and codec metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEncode records one pipeline run with its outcome.
	RecordEncode(ctx context.Context, success bool, duration time.Duration, events int)

	// RecordEventDropped counts an event dropped at the given stage.
	RecordEventDropped(ctx context.Context, stage string)

	// RecordAnomaly counts a detected anomaly by type.
	RecordAnomaly(ctx context.Context, anomalyType string)

	// RecordUnit counts a committed cognitive unit by type.
	RecordUnit(ctx context.Context, unitType string)

	// RecordBlob records compressed blob size and ratio.
	RecordBlob(ctx context.Context, sizeBytes int64, ratio float64)

	// RecordCorruption counts a checksum mismatch.
	RecordCorruption(ctx context.Context)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	encodes       metric.Int64Counter
	encodeLatency metric.Float64Histogram
	eventsIn      metric.Int64Counter
	dropped       metric.Int64Counter
	anomalies     metric.Int64Counter
	units         metric.Int64Counter
	blobSize      metric.Int64Histogram
	blobRatio     metric.Float64Histogram
	corruption    metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("timeweave")

	encodes, err := meter.Int64Counter("timeweave.encode.runs",
		metric.WithDescription("Number of pipeline encode runs"),
	)
	if err != nil {
		return nil, err
	}

	encodeLatency, err := meter.Float64Histogram("timeweave.encode.latency_ms",
		metric.WithDescription("Pipeline encode latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	eventsIn, err := meter.Int64Counter("timeweave.encode.events",
		metric.WithDescription("Number of events entering the pipeline"),
	)
	if err != nil {
		return nil, err
	}

	dropped, err := meter.Int64Counter("timeweave.events.dropped",
		metric.WithDescription("Number of events dropped by stage"),
	)
	if err != nil {
		return nil, err
	}

	anomalies, err := meter.Int64Counter("timeweave.anomalies.detected",
		metric.WithDescription("Number of anomalies detected by type"),
	)
	if err != nil {
		return nil, err
	}

	units, err := meter.Int64Counter("timeweave.units.created",
		metric.WithDescription("Number of cognitive units created by type"),
	)
	if err != nil {
		return nil, err
	}

	blobSize, err := meter.Int64Histogram("timeweave.blob.size_bytes",
		metric.WithDescription("Compressed timeline blob size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	blobRatio, err := meter.Float64Histogram("timeweave.blob.compression_ratio",
		metric.WithDescription("Compressed over original blob size"),
	)
	if err != nil {
		return nil, err
	}

	corruption, err := meter.Int64Counter("timeweave.corruption.detected",
		metric.WithDescription("Number of checksum mismatches"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		encodes:       encodes,
		encodeLatency: encodeLatency,
		eventsIn:      eventsIn,
		dropped:       dropped,
		anomalies:     anomalies,
		units:         units,
		blobSize:      blobSize,
		blobRatio:     blobRatio,
		corruption:    corruption,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEncode records one pipeline run.
func (m *otelMetrics) RecordEncode(ctx context.Context, success bool, duration time.Duration, events int) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.encodes.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.encodeLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	m.eventsIn.Add(ctx, int64(events))
}

// RecordEventDropped counts a dropped event.
func (m *otelMetrics) RecordEventDropped(ctx context.Context, stage string) {
	m.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordAnomaly counts a detected anomaly.
func (m *otelMetrics) RecordAnomaly(ctx context.Context, anomalyType string) {
	m.anomalies.Add(ctx, 1, metric.WithAttributes(attribute.String("type", anomalyType)))
}

// RecordUnit counts a committed cognitive unit.
func (m *otelMetrics) RecordUnit(ctx context.Context, unitType string) {
	m.units.Add(ctx, 1, metric.WithAttributes(attribute.String("type", unitType)))
}

// RecordBlob records compressed blob size and ratio.
func (m *otelMetrics) RecordBlob(ctx context.Context, sizeBytes int64, ratio float64) {
	m.blobSize.Record(ctx, sizeBytes)
	m.blobRatio.Record(ctx, ratio)
}

// RecordCorruption counts a checksum mismatch.
func (m *otelMetrics) RecordCorruption(ctx context.Context) {
	m.corruption.Add(ctx, 1)
}
