package event

import "time"

// Anomaly is an out-of-band observation over one or more events. Anomalies
// are independent of cognitive units: an event may belong to one unit and be
// flagged by any number of anomalies at the same time.
type Anomaly struct {
	ID               string      `json:"id"`
	Type             AnomalyType `json:"type"`
	Severity         Severity    `json:"severity"`
	Start            time.Time   `json:"start"`
	End              time.Time   `json:"end"`
	AffectedEvents   []string    `json:"affected_events"`
	Description      string      `json:"description"`
	Confidence       float64     `json:"confidence"`
	SuggestedActions []string    `json:"suggested_actions,omitempty"`
}
