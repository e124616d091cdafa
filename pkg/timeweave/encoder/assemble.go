package encoder

import (
	"sort"

	"github.com/google/uuid"

	"github.com/Soynido/timeweave/pkg/timeweave/event"
)

// assemble freezes the pipeline state into an immutable timeline: bounds
// from the normalized timestamps, derived statistics, and metadata carrying
// the drop count and distinct source systems.
func (e *Encoder) assemble(p *pipeline) *event.Timeline {
	relateUnits(p.units)

	t := &event.Timeline{
		ID:             uuid.New().String(),
		Version:        event.TimelineVersion,
		Events:         p.events,
		CognitiveUnits: p.units,
		Anomalies:      p.anomalies,
	}

	sources := make(map[string]struct{})
	for _, ev := range p.events {
		if t.Start.IsZero() || ev.Timestamp.Before(t.Start) {
			t.Start = ev.Timestamp
		}
		if ev.Timestamp.After(t.End) {
			t.End = ev.Timestamp
		}
		sources[ev.Source.String()] = struct{}{}
	}

	t.Metadata = event.Metadata{
		ID:             t.ID,
		Version:        t.Version,
		Start:          t.Start,
		End:            t.End,
		EventCount:     len(p.events),
		CorruptedCount: p.dropped,
		SourceSystems:  sortedKeys(sources),
	}
	t.Statistics = e.statistics(p)
	return t
}

// relateUnits cross-links the committed units by their time spans: a unit
// "contains" units falling fully inside its span (the inner unit records
// "within"), and "follows" names the nearest unit that ended at or before
// its start. Links are span-based only; event ownership stays exclusive.
func relateUnits(units []*event.CognitiveUnit) {
	ordered := make([]*event.CognitiveUnit, len(units))
	copy(ordered, units)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Start.Equal(ordered[j].Start) {
			return ordered[i].Start.Before(ordered[j].Start)
		}
		return ordered[i].End.After(ordered[j].End)
	})

	link := func(u *event.CognitiveUnit, relation, id string) {
		if u.Relationships == nil {
			u.Relationships = make(map[string][]string)
		}
		u.Relationships[relation] = append(u.Relationships[relation], id)
	}

	for i, u := range ordered {
		for _, v := range ordered[i+1:] {
			if v.Start.After(u.End) {
				break
			}
			if !v.End.After(u.End) {
				link(u, "contains", v.ID)
				link(v, "within", u.ID)
			}
		}

		var prev *event.CognitiveUnit
		for _, v := range ordered[:i] {
			if v.End.After(u.Start) {
				continue
			}
			if prev == nil || v.End.After(prev.End) {
				prev = v
			}
		}
		if prev != nil {
			link(u, "follows", prev.ID)
		}
	}
}

func (e *Encoder) statistics(p *pipeline) event.Statistics {
	stats := event.Statistics{
		TotalEvents:     len(p.events),
		EventsByType:    make(map[string]int),
		EventsBySource:  make(map[string]int),
		UnitsByType:     make(map[string]int),
		AnomaliesByType: make(map[string]int),
	}

	working := 0
	for _, ev := range p.events {
		stats.EventsByType[ev.Type.String()]++
		stats.EventsBySource[ev.Source.String()]++

		hour := ev.Timestamp.Hour()
		stats.HourlyHistogram[hour]++
		stats.DailyHistogram[int(ev.Timestamp.Weekday())]++
		if hour >= 8 && hour < 18 {
			working++
		}
	}
	if len(p.events) > 0 {
		stats.WorkingHoursPct = float64(working) / float64(len(p.events)) * 100
	}

	for _, u := range p.units {
		stats.UnitsByType[u.Type.String()]++
	}
	for _, a := range p.anomalies {
		stats.AnomaliesByType[a.Type.String()]++
	}

	stats.Gaps = gapStats(p.events)
	return stats
}

// gapStats summarizes consecutive inter-event deltas in milliseconds.
// Events are expected in normalized time order.
func gapStats(events []*event.Normalized) event.GapStats {
	if len(events) < 2 {
		return event.GapStats{}
	}
	var min, max, sum int64
	min = -1
	for i := 1; i < len(events); i++ {
		gap := events[i].NormalizedTS - events[i-1].NormalizedTS
		if min < 0 || gap < min {
			min = gap
		}
		if gap > max {
			max = gap
		}
		sum += gap
	}
	return event.GapStats{
		Min: min,
		Avg: sum / int64(len(events)-1),
		Max: max,
	}
}
