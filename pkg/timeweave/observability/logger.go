// Package observability provides structured logging, metrics, and tracing
// for the timeweave pipeline.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
)

// EnrichLogger adds pipeline context to a logger.
// Returns a new logger with timeline_id and stage fields.
func EnrichLogger(logger *slog.Logger, timelineID, stage string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("timeline_id", timelineID),
		slog.String("stage", stage),
	)
}

// LogEncodeStart logs the start of a pipeline encode.
func LogEncodeStart(logger *slog.Logger, eventCount int) {
	if logger == nil {
		return
	}
	logger.Info("timeline encode starting",
		slog.Int("event_count", eventCount),
	)
}

// LogEncodeComplete logs successful timeline assembly.
func LogEncodeComplete(logger *slog.Logger, timelineID string, events, units, anomalies int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("timeline encode completed",
		slog.String("timeline_id", timelineID),
		slog.Int("events", events),
		slog.Int("units", units),
		slog.Int("anomalies", anomalies),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogEventDropped logs an event dropped during normalization or batching.
func LogEventDropped(logger *slog.Logger, eventID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("event dropped",
		slog.String("event_id", eventID),
		slog.String("error", err.Error()),
	)
}

// LogAnomaly logs a detected anomaly.
func LogAnomaly(logger *slog.Logger, anomalyType, severity string, affected int) {
	if logger == nil {
		return
	}
	logger.Debug("anomaly detected",
		slog.String("type", anomalyType),
		slog.String("severity", severity),
		slog.Int("affected_events", affected),
	)
}

// LogUnitCreated logs a committed cognitive unit.
func LogUnitCreated(logger *slog.Logger, unitType string, events int, confidence float64) {
	if logger == nil {
		return
	}
	logger.Debug("cognitive unit created",
		slog.String("type", unitType),
		slog.Int("events", events),
		slog.Float64("confidence", confidence),
	)
}

// LogCorruption logs a checksum mismatch. Always at error level: corrupted
// blobs are never silently repaired.
func LogCorruption(logger *slog.Logger, context string) {
	if logger == nil {
		return
	}
	logger.Error("corruption detected",
		slog.String("context", context),
	)
}

// LogBlobSaved logs a persisted timeline blob.
func LogBlobSaved(logger *slog.Logger, timelineID string, sizeBytes int, ratio float64) {
	if logger == nil {
		return
	}
	logger.Debug("timeline blob saved",
		slog.String("timeline_id", timelineID),
		slog.Int("size_bytes", sizeBytes),
		slog.Float64("compression_ratio", ratio),
	)
}
