package event

import (
	"fmt"
	"time"
)

// TimelineVersion is the timeline envelope version stamped on assembly.
const TimelineVersion = "1.0.0"

// Metadata describes a timeline (or its persisted blob) without requiring a
// full decode. It is the only index needed to validate a blob up front.
type Metadata struct {
	ID               string    `json:"id"`
	Version          string    `json:"version"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	EventCount       int       `json:"event_count"`
	CorruptedCount   int       `json:"corrupted_count"`
	SourceSystems    []string  `json:"source_systems,omitempty"`
	Algorithm        string    `json:"algorithm,omitempty"`
	CompressionRatio float64   `json:"compression_ratio,omitempty"`
	Checksum         string    `json:"checksum,omitempty"`
	ChunkCount       int       `json:"chunk_count,omitempty"`
}

// GapStats summarizes inter-event gaps in milliseconds.
type GapStats struct {
	Min int64 `json:"min"`
	Avg int64 `json:"avg"`
	Max int64 `json:"max"`
}

// Statistics holds counts and distributions derived at assembly time.
type Statistics struct {
	TotalEvents     int            `json:"total_events"`
	EventsByType    map[string]int `json:"events_by_type"`
	EventsBySource  map[string]int `json:"events_by_source"`
	UnitsByType     map[string]int `json:"units_by_type"`
	AnomaliesByType map[string]int `json:"anomalies_by_type"`
	Gaps            GapStats       `json:"gaps"`
	HourlyHistogram [24]int        `json:"hourly_histogram"`
	DailyHistogram  [7]int         `json:"daily_histogram"`

	// WorkingHoursPct is the share of events falling between 08:00 and
	// 18:00 local time, in percent.
	WorkingHoursPct float64 `json:"working_hours_pct"`
}

// Timeline is the aggregate root produced by one pipeline run: the
// normalized events in sequence order plus the units and anomalies derived
// from them. A timeline is immutable once assembled.
type Timeline struct {
	ID             string           `json:"id"`
	Version        string           `json:"version"`
	Start          time.Time        `json:"start"`
	End            time.Time        `json:"end"`
	Events         []*Normalized    `json:"events"`
	CognitiveUnits []*CognitiveUnit `json:"cognitive_units"`
	Anomalies      []*Anomaly       `json:"anomalies"`
	Metadata       Metadata         `json:"metadata"`
	Statistics     Statistics       `json:"statistics"`
}

// Bounds returns the timeline's start and end, validating their shape.
func (t *Timeline) Bounds() (time.Time, time.Time, error) {
	if t.Start.IsZero() || t.End.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("timeline %s: missing time bounds", t.ID)
	}
	if t.End.Before(t.Start) {
		return time.Time{}, time.Time{}, fmt.Errorf("timeline %s: inverted time bounds", t.ID)
	}
	return t.Start, t.End, nil
}

// Unit returns the cognitive unit with the given id, if any.
func (t *Timeline) Unit(id string) (*CognitiveUnit, bool) {
	for _, u := range t.CognitiveUnits {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}
