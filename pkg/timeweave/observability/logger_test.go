package observability_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Soynido/timeweave/pkg/timeweave/observability"
)

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, &buf
}

func TestEnrichLogger(t *testing.T) {
	logger, buf := captureLogger()

	enriched := observability.EnrichLogger(logger, "tl-1", "normalize")
	enriched.Info("working")

	out := buf.String()
	assert.Contains(t, out, `"timeline_id":"tl-1"`)
	assert.Contains(t, out, `"stage":"normalize"`)

	assert.Nil(t, observability.EnrichLogger(nil, "tl-1", "normalize"))
}

func TestLogHelpers(t *testing.T) {
	logger, buf := captureLogger()

	observability.LogEncodeStart(logger, 42)
	observability.LogEncodeComplete(logger, "tl-1", 42, 3, 1, 12.5)
	observability.LogEventDropped(logger, "ev-9", errors.New("missing timestamp"))
	observability.LogAnomaly(logger, "temporal_gap", "medium", 2)
	observability.LogUnitCreated(logger, "session", 11, 0.9)
	observability.LogCorruption(logger, "timeline blob tl-1")
	observability.LogBlobSaved(logger, "tl-1", 2048, 0.3)

	out := buf.String()
	assert.Contains(t, out, "timeline encode starting")
	assert.Contains(t, out, "timeline encode completed")
	assert.Contains(t, out, "event dropped")
	assert.Contains(t, out, `"event_id":"ev-9"`)
	assert.Contains(t, out, "anomaly detected")
	assert.Contains(t, out, "cognitive unit created")
	assert.Contains(t, out, "corruption detected")
	assert.Contains(t, out, "timeline blob saved")
}

func TestLogHelpers_NilLoggerIsSafe(t *testing.T) {
	// None of these may panic on a nil logger.
	observability.LogEncodeStart(nil, 1)
	observability.LogEncodeComplete(nil, "tl", 1, 0, 0, 0)
	observability.LogEventDropped(nil, "ev", errors.New("x"))
	observability.LogAnomaly(nil, "t", "low", 0)
	observability.LogUnitCreated(nil, "t", 0, 0)
	observability.LogCorruption(nil, "ctx")
	observability.LogBlobSaved(nil, "tl", 0, 0)
}
