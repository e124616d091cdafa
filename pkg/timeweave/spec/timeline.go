package spec

import (
	"fmt"

	twerrors "github.com/Soynido/timeweave/pkg/timeweave/errors"
	"github.com/Soynido/timeweave/pkg/timeweave/event"
)

// ValidateTimeline validates a whole timeline: its structural shape, every
// event in positional context, the start<end invariant, id uniqueness
// across the full array, and chronological ordering (a warning - events may
// legitimately arrive out of order).
func (s *Spec) ValidateTimeline(t *event.Timeline) *Result {
	result := newResult()

	if t == nil {
		result.add(Finding{Code: "MALFORMED", Message: "timeline is nil", Severity: twerrors.SeverityCritical})
		return result
	}
	if len(t.Events) == 0 {
		result.add(Finding{
			Code:     "EMPTY_TIMELINE",
			Field:    "events",
			Message:  "timeline has no events",
			Severity: twerrors.SeverityCritical,
		})
		return result
	}
	if t.Start.IsZero() || t.End.IsZero() {
		result.add(Finding{
			Code:     "MISSING_BOUNDS",
			Message:  "timeline start/end timestamps are required",
			Severity: twerrors.SeverityError,
		})
	} else if !t.Start.Before(t.End) && !t.Start.Equal(t.End) {
		result.add(Finding{
			Code:     "INVERTED_BOUNDS",
			Message:  fmt.Sprintf("start %s is after end %s", t.Start, t.End),
			Severity: twerrors.SeverityError,
		})
	}

	bctx := NewBatchContext()
	var lastTS int64
	for i, ev := range t.Events {
		prefix := fmt.Sprintf("events[%d]", i)

		evResult := s.ValidateMessage(&ev.Message, nil)
		result.merge(evResult, prefix)

		if bctx.seen(ev.ID) {
			result.add(Finding{
				Code:     "DUPLICATE_ID",
				Field:    prefix + ".id",
				Message:  fmt.Sprintf("id %s appears more than once", ev.ID),
				Severity: twerrors.SeverityError,
			})
		}
		bctx.observe(&ev.Message)

		if i > 0 && ev.NormalizedTS < lastTS {
			result.add(Finding{
				Code:     "OUT_OF_ORDER",
				Field:    prefix + ".timestamp",
				Message:  "event precedes its predecessor in the array",
				Severity: twerrors.SeverityWarning,
			})
		}
		lastTS = ev.NormalizedTS
	}

	return result
}
