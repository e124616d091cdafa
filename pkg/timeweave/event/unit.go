package event

import "time"

// UnitContext is a snapshot of the working context derived from a unit's
// event payloads at creation time.
type UnitContext struct {
	ActiveFiles    []string `json:"active_files,omitempty"`
	ActiveBranches []string `json:"active_branches,omitempty"`
	Goal           string   `json:"goal,omitempty"`
}

// CognitiveUnit is a cluster of events sharing one coherence reason.
// Units are created by exactly one grouping rule, cross-linked by span
// during timeline assembly, and immutable afterwards. A unit owns no
// events: events reference the unit by id, which keeps the aggregate free
// of ownership cycles.
type CognitiveUnit struct {
	ID              string      `json:"id"`
	Type            UnitType    `json:"type"`
	Start           time.Time   `json:"start"`
	End             time.Time   `json:"end"`
	EventIDs        []string    `json:"event_ids"`
	DominantPattern string      `json:"dominant_pattern,omitempty"`
	Confidence      float64     `json:"confidence"`
	Context         UnitContext `json:"context"`

	// Relationships maps a relation name ("follows", "contains", ...) to
	// the ids of related units.
	Relationships map[string][]string `json:"relationships,omitempty"`
}

// Duration returns the span covered by the unit's events.
func (u *CognitiveUnit) Duration() time.Duration {
	return u.End.Sub(u.Start)
}

// Contains reports whether the unit claimed the given event id.
func (u *CognitiveUnit) Contains(eventID string) bool {
	for _, id := range u.EventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}
