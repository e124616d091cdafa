package encoder

import (
	"time"

	"github.com/google/uuid"

	"github.com/Soynido/timeweave/pkg/timeweave/event"
)

// sequence establishes parent/child linkage over the time-sorted events.
// Explicit links (causation or correlation id resolving to another event in
// the batch) take precedence; an implicit link to the previous event in
// time order applies only when no explicit parent exists, the gap stays
// under MaxEventGap, and the two events are related. An event receives at
// most one parent, and a link that would close a cycle is simply not
// created.
func (e *Encoder) sequence(p *pipeline) {
	for i, ev := range p.events {
		if parent := e.explicitParent(p, ev); parent != nil {
			link(parent, ev)
			continue
		}
		if i == 0 {
			continue
		}
		prev := p.events[i-1]
		gap := time.Duration(ev.NormalizedTS-prev.NormalizedTS) * time.Millisecond
		if gap <= e.cfg.MaxEventGap && related(prev, ev) && !e.wouldCycle(p, prev, ev) {
			link(prev, ev)
		}
	}
}

// explicitParent resolves causation first, then correlation, refusing
// self-links and links that would create a cycle.
func (e *Encoder) explicitParent(p *pipeline, ev *event.Normalized) *event.Normalized {
	for _, ref := range []string{ev.CausationID, ev.CorrelationID} {
		if ref == "" || ref == ev.ID {
			continue
		}
		parent, ok := p.byID[ref]
		if !ok {
			continue
		}
		if e.wouldCycle(p, parent, ev) {
			p.anomalies = append(p.anomalies, &event.Anomaly{
				ID:             uuid.New().String(),
				Type:           event.AnomalyCircularDependency,
				Severity:       event.SeverityMedium,
				Start:          parent.Timestamp,
				End:            ev.Timestamp,
				AffectedEvents: []string{parent.ID, ev.ID},
				Description:    "causal link refused: would close a dependency cycle",
				Confidence:     1,
			})
			continue
		}
		return parent
	}
	return nil
}

// wouldCycle walks up candidate's parent chain looking for ev, bounded by
// MaxCircularDepth.
func (e *Encoder) wouldCycle(p *pipeline, candidate, ev *event.Normalized) bool {
	depth := e.cfg.Anomaly.MaxCircularDepth
	if depth <= 0 {
		depth = 10
	}
	cur := candidate
	for i := 0; i < depth && cur != nil; i++ {
		if cur.ID == ev.ID {
			return true
		}
		if cur.ParentID == "" {
			return false
		}
		cur = p.byID[cur.ParentID]
	}
	// Chain deeper than the bound: refuse the link rather than risk it.
	return cur != nil
}

// related reports whether two adjacent events plausibly belong to the same
// causal thread: shared correlation, or overlapping directories.
func related(a, b *event.Normalized) bool {
	if a.CorrelationID != "" && a.CorrelationID == b.CorrelationID {
		return true
	}
	return event.RelatedDirs(a.Directory(), b.Directory())
}

func link(parent, child *event.Normalized) {
	child.ParentID = parent.ID
	parent.Children = append(parent.Children, child.ID)
}
