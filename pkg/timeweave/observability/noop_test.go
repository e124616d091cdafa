package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Soynido/timeweave/pkg/timeweave/observability"
)

func TestNoopMetrics(t *testing.T) {
	ctx := context.Background()
	var m observability.MetricsRecorder = observability.NoopMetrics{}

	// All calls are safe no-ops.
	m.RecordEncode(ctx, true, time.Second, 10)
	m.RecordEventDropped(ctx, "normalize")
	m.RecordAnomaly(ctx, "temporal_gap")
	m.RecordUnit(ctx, "session")
	m.RecordBlob(ctx, 1024, 0.5)
	m.RecordCorruption(ctx)
}

func TestNoopSpanManager(t *testing.T) {
	ctx := context.Background()
	var sm observability.SpanManager = observability.NoopSpanManager{}

	spanCtx, span := sm.StartEncodeSpan(ctx, 5)
	assert.Equal(t, ctx, spanCtx, "context passes through unchanged")

	stageCtx, _ := sm.StartStageSpan(ctx, "normalize")
	assert.Equal(t, ctx, stageCtx)

	sm.EndSpanWithError(span, errors.New("boom"))
	sm.AddSpanEvent(ctx, "checkpoint")
}

func TestNewMetricsRecorder(t *testing.T) {
	// Without a configured provider the recorder still works (global
	// no-op meter) or degrades to NoopMetrics on error.
	m := observability.NewMetricsRecorder()
	assert.NotNil(t, m)
	m.RecordEncode(context.Background(), true, time.Millisecond, 1)
}

func TestNewSpanManager(t *testing.T) {
	sm := observability.NewSpanManager()
	assert.NotNil(t, sm)

	ctx, span := sm.StartEncodeSpan(context.Background(), 3)
	assert.NotNil(t, ctx)
	sm.EndSpanWithError(span, nil)
}
