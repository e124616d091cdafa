package encoder

import (
	"sort"

	"github.com/Soynido/timeweave/pkg/timeweave/event"
)

// pipeline is the working state of one Encode call. It is created fresh per
// call and discarded after assembly, which keeps Encode re-entrant.
type pipeline struct {
	events    []*event.Normalized
	byID      map[string]*event.Normalized
	units     []*event.CognitiveUnit
	anomalies []*event.Anomaly

	// dropped counts structurally invalid or rejected input messages.
	dropped int
}

func newPipeline(capacity int) *pipeline {
	return &pipeline{
		events: make([]*event.Normalized, 0, capacity),
		byID:   make(map[string]*event.Normalized, capacity),
	}
}

// sortByTime stable-sorts events by normalized timestamp; ties preserve
// the existing order.
func sortByTime(events []*event.Normalized) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].NormalizedTS < events[j].NormalizedTS
	})
}

// sortBySeq stable-sorts events by their arrival sequence number.
func sortBySeq(events []*event.Normalized) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Seq < events[j].Seq
	})
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
