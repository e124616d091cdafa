package encoder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Soynido/timeweave/pkg/timeweave/event"
	"github.com/Soynido/timeweave/pkg/timeweave/observability"
)

// contextWindow is the sliding window size for the context-switch and
// deletion detectors.
const contextWindow = 10

// detectAnomalies runs the independent detectors over the sequenced array.
// Detections are not mutually exclusive: one event may be flagged by any
// number of anomalies.
func (e *Encoder) detectAnomalies(ctx context.Context, p *pipeline) {
	e.detectTemporalGaps(p)
	e.detectContextSwitches(p)
	e.detectUnusualHours(p)
	e.detectExcessiveDeletions(p)
	e.detectCorruptedData(p)

	for _, a := range p.anomalies {
		e.metrics.RecordAnomaly(ctx, a.Type.String())
		observability.LogAnomaly(e.logger, a.Type.String(), a.Severity.String(), len(a.AffectedEvents))
	}
}

// detectTemporalGaps flags consecutive-event deltas above MaxGapDuration.
// Severity scales with magnitude: past twice the threshold the gap is high,
// otherwise medium.
func (e *Encoder) detectTemporalGaps(p *pipeline) {
	maxGap := e.cfg.Anomaly.MaxGapDuration
	for i := 1; i < len(p.events); i++ {
		prev, cur := p.events[i-1], p.events[i]
		gap := time.Duration(cur.NormalizedTS-prev.NormalizedTS) * time.Millisecond
		if gap <= maxGap {
			continue
		}
		severity := event.SeverityMedium
		if gap > 2*maxGap {
			severity = event.SeverityHigh
		}
		p.anomalies = append(p.anomalies, &event.Anomaly{
			ID:             uuid.New().String(),
			Type:           event.AnomalyTemporalGap,
			Severity:       severity,
			Start:          prev.Timestamp,
			End:            cur.Timestamp,
			AffectedEvents: []string{prev.ID, cur.ID},
			Description:    fmt.Sprintf("gap of %s between consecutive events exceeds %s", gap, maxGap),
			Confidence:     1,
			SuggestedActions: []string{
				"check whether the collector was offline during the gap",
			},
		})
	}
}

// detectContextSwitches slides a fixed window over the events and flags
// windows whose distinct-directory count exceeds the threshold. After a
// flag the window jumps past its end so overlapping windows do not flood
// the report.
func (e *Encoder) detectContextSwitches(p *pipeline) {
	limit := e.cfg.Anomaly.MaxContextSwitches
	for i := 0; i+contextWindow <= len(p.events); i++ {
		window := p.events[i : i+contextWindow]
		dirs := make(map[string]struct{})
		for _, ev := range window {
			if d := ev.Directory(); d != "" {
				dirs[d] = struct{}{}
			}
		}
		if len(dirs) <= limit {
			continue
		}
		ids := make([]string, len(window))
		for j, ev := range window {
			ids[j] = ev.ID
		}
		p.anomalies = append(p.anomalies, &event.Anomaly{
			ID:             uuid.New().String(),
			Type:           event.AnomalyRapidContextSwitch,
			Severity:       event.SeverityMedium,
			Start:          window[0].Timestamp,
			End:            window[len(window)-1].Timestamp,
			AffectedEvents: ids,
			Description:    fmt.Sprintf("%d distinct directories touched within %d events", len(dirs), contextWindow),
			Confidence:     0.8,
			SuggestedActions: []string{
				"consider whether parallel workstreams should be separate sessions",
			},
		})
		i += contextWindow - 1
	}
}

// detectUnusualHours groups contiguous runs of events falling inside the
// configured night band into one anomaly per run.
func (e *Encoder) detectUnusualHours(p *pipeline) {
	var run []*event.Normalized
	flush := func() {
		if len(run) == 0 {
			return
		}
		ids := make([]string, len(run))
		for i, ev := range run {
			ids[i] = ev.ID
		}
		p.anomalies = append(p.anomalies, &event.Anomaly{
			ID:             uuid.New().String(),
			Type:           event.AnomalyUnusualHours,
			Severity:       event.SeverityLow,
			Start:          run[0].Timestamp,
			End:            run[len(run)-1].Timestamp,
			AffectedEvents: ids,
			Description:    fmt.Sprintf("%d events during night hours (%02d:00-%02d:00)", len(run), e.cfg.Anomaly.NightStartHour, e.cfg.Anomaly.NightEndHour),
			Confidence:     0.6,
		})
		run = nil
	}

	for _, ev := range p.events {
		if e.isNightHour(ev.Timestamp.Hour()) {
			run = append(run, ev)
			continue
		}
		flush()
	}
	flush()
}

// isNightHour reports whether hour falls in the configured band; the band
// wraps midnight when start > end.
func (e *Encoder) isNightHour(hour int) bool {
	start, end := e.cfg.Anomaly.NightStartHour, e.cfg.Anomaly.NightEndHour
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// detectExcessiveDeletions flags windows whose summed deleted-line count
// exceeds the threshold.
func (e *Encoder) detectExcessiveDeletions(p *pipeline) {
	limit := e.cfg.Anomaly.MaxDeletions
	if limit <= 0 {
		return
	}
	for i := 0; i < len(p.events); {
		end := min(i+contextWindow, len(p.events))
		window := p.events[i:end]
		total := 0
		for _, ev := range window {
			total += ev.LinesDeleted()
		}
		if total <= limit {
			i++
			continue
		}
		ids := make([]string, len(window))
		for j, ev := range window {
			ids[j] = ev.ID
		}
		p.anomalies = append(p.anomalies, &event.Anomaly{
			ID:             uuid.New().String(),
			Type:           event.AnomalyExcessiveDeletion,
			Severity:       event.SeverityHigh,
			Start:          window[0].Timestamp,
			End:            window[len(window)-1].Timestamp,
			AffectedEvents: ids,
			Description:    fmt.Sprintf("%d lines deleted within %d events", total, len(window)),
			Confidence:     0.9,
			SuggestedActions: []string{
				"verify the deletions were intentional before the next commit",
			},
		})
		i = end
	}
}

// detectCorruptedData flags events failing the structural validity check
// even after normalization.
func (e *Encoder) detectCorruptedData(p *pipeline) {
	for _, ev := range p.events {
		if err := ev.Message.Validate(); err == nil {
			continue
		}
		p.anomalies = append(p.anomalies, &event.Anomaly{
			ID:             uuid.New().String(),
			Type:           event.AnomalyCorruptedData,
			Severity:       event.SeverityCritical,
			Start:          ev.Timestamp,
			End:            ev.Timestamp,
			AffectedEvents: []string{ev.ID},
			Description:    "event no longer passes structural validation",
			Confidence:     1,
		})
	}
}
