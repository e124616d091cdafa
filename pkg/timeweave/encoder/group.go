package encoder

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Soynido/timeweave/pkg/timeweave/config"
	"github.com/Soynido/timeweave/pkg/timeweave/event"
	"github.com/Soynido/timeweave/pkg/timeweave/observability"
)

// burstWindow is the sliding window the burst detector commits over.
const burstWindow = 5 * time.Minute

// group runs the cognitive-unit passes. The coarse generic rule pass runs
// first by descending priority, then the five specialized detectors run in
// a fixed sequence, each skipping events already claimed. Assignment is
// exclusive: once an event is processed it never joins another unit.
func (e *Encoder) group(ctx context.Context, p *pipeline) {
	e.groupByRules(p)
	e.groupSessions(p)
	e.groupBursts(p)
	e.groupWorkingSets(p)
	e.groupRefactorStreaks(p)
	e.groupHotspots(p)

	for _, u := range p.units {
		e.metrics.RecordUnit(ctx, u.Type.String())
		observability.LogUnitCreated(e.logger, u.Type.String(), len(u.EventIDs), u.Confidence)
	}
}

// groupByRules evaluates the configured grouping rules against every
// unprocessed event, building greedy runs. An event joins the current run
// when the weighted sum of its matching conditions meets the rule's
// confidence threshold; a failing event closes the run.
func (e *Encoder) groupByRules(p *pipeline) {
	for _, rule := range e.rules.Sorted() {
		var run []*event.Normalized
		flush := func() {
			if len(run) >= 2 {
				e.commit(p, rule.Unit, run, rule.Confidence)
			}
			run = nil
		}

		for _, ev := range p.events {
			if ev.Processed {
				flush()
				continue
			}
			score := e.scoreRule(p, rule, ev, run)
			if score >= rule.Confidence {
				run = append(run, ev)
				continue
			}
			flush()
		}
		flush()
	}
}

// scoreRule computes the weighted share of matching conditions in [0,1].
func (e *Encoder) scoreRule(p *pipeline, rule config.GroupingRule, ev *event.Normalized, run []*event.Normalized) float64 {
	var total, matched float64
	for _, cond := range rule.Conditions {
		total += cond.Weight
		if e.matchCondition(p, cond, ev, run) {
			matched += cond.Weight
		}
	}
	if total == 0 {
		return 0
	}
	return matched / total
}

func (e *Encoder) matchCondition(p *pipeline, cond config.Condition, ev *event.Normalized, run []*event.Normalized) bool {
	switch cond.Kind {
	case config.ConditionTemporal:
		if len(run) == 0 {
			return true
		}
		last := run[len(run)-1]
		gap := time.Duration(ev.NormalizedTS-last.NormalizedTS) * time.Millisecond
		maxGap := cond.MaxGap
		if maxGap <= 0 {
			maxGap = e.cfg.MaxEventGap
		}
		return gap <= maxGap

	case config.ConditionSemantic:
		return ev.HasTag(cond.Tag)

	case config.ConditionStructural:
		dir := ev.Directory()
		if cond.PathPrefix == "" {
			return dir != ""
		}
		return event.RelatedDirs(dir, cond.PathPrefix)

	case config.ConditionFrequency:
		return e.frequencyMatch(p, cond, ev)
	}
	return false
}

// frequencyMatch counts events of the same type inside the window ending at
// ev. This condition kind had no working implementation upstream of the
// rule data; it counts for real here.
func (e *Encoder) frequencyMatch(p *pipeline, cond config.Condition, ev *event.Normalized) bool {
	window := cond.Window
	if window <= 0 {
		window = e.cfg.MaxEventGap
	}
	minCount := cond.MinCount
	if minCount <= 0 {
		minCount = 2
	}
	floor := ev.NormalizedTS - window.Milliseconds()
	count := 0
	for _, other := range p.events {
		if other.Type != ev.Type {
			continue
		}
		if other.NormalizedTS >= floor && other.NormalizedTS <= ev.NormalizedTS {
			count++
			if count >= minCount {
				return true
			}
		}
	}
	return false
}

// groupSessions greedily extends a run while the gap to the session's
// anchor event stays under MaxEventGap, committing only runs spanning at
// least MinSessionDuration. Shorter runs are discarded silently and their
// events stay claimable.
func (e *Encoder) groupSessions(p *pipeline) {
	i := 0
	for i < len(p.events) {
		if p.events[i].Processed {
			i++
			continue
		}
		anchor := p.events[i]
		run := []*event.Normalized{anchor}
		j := i + 1
		for ; j < len(p.events); j++ {
			ev := p.events[j]
			if ev.Processed {
				continue
			}
			gap := time.Duration(ev.NormalizedTS-anchor.NormalizedTS) * time.Millisecond
			if gap > e.cfg.MaxEventGap {
				break
			}
			run = append(run, ev)
		}

		duration := time.Duration(run[len(run)-1].NormalizedTS-anchor.NormalizedTS) * time.Millisecond
		if duration >= e.cfg.MinSessionDuration {
			e.commit(p, event.UnitSession, run, 0.9)
		}
		i = j
	}
}

// groupBursts commits sliding 5-minute windows holding at least
// MinBurstEvents unprocessed events.
func (e *Encoder) groupBursts(p *pipeline) {
	i := 0
	for i < len(p.events) {
		if p.events[i].Processed {
			i++
			continue
		}
		start := p.events[i]
		run := []*event.Normalized{start}
		j := i + 1
		for ; j < len(p.events); j++ {
			ev := p.events[j]
			if ev.Processed {
				continue
			}
			if time.Duration(ev.NormalizedTS-start.NormalizedTS)*time.Millisecond > burstWindow {
				break
			}
			run = append(run, ev)
		}

		if len(run) >= e.cfg.MinBurstEvents {
			e.commit(p, event.UnitBurst, run, 0.85)
			i = j
			continue
		}
		i++
	}
}

// groupWorkingSets groups the remaining events by containing directory.
func (e *Encoder) groupWorkingSets(p *pipeline) {
	e.groupByKey(p, event.UnitWorkingSet, e.cfg.WorkingSetMin, 0.7, func(ev *event.Normalized) string {
		return ev.Directory()
	})
}

// groupRefactorStreaks commits consecutive refactoring-tagged runs with
// gaps under MaxEventGap.
func (e *Encoder) groupRefactorStreaks(p *pipeline) {
	var run []*event.Normalized
	flush := func() {
		if len(run) >= e.cfg.RefactorStreakMin {
			e.commit(p, event.UnitRefactorStreak, run, 0.8)
		}
		run = nil
	}

	for _, ev := range p.events {
		if ev.Processed || !ev.HasTag("refactoring") {
			flush()
			continue
		}
		if len(run) > 0 {
			last := run[len(run)-1]
			if time.Duration(ev.NormalizedTS-last.NormalizedTS)*time.Millisecond > e.cfg.MaxEventGap {
				flush()
			}
		}
		run = append(run, ev)
	}
	flush()
}

// groupHotspots groups the remaining events by exact file path.
func (e *Encoder) groupHotspots(p *pipeline) {
	e.groupByKey(p, event.UnitHotspot, e.cfg.HotspotMin, 0.75, func(ev *event.Normalized) string {
		return ev.FilePath()
	})
}

// groupByKey buckets unprocessed events by a derived key and commits every
// bucket reaching minSize. Bucket order follows first appearance so runs
// stay deterministic.
func (e *Encoder) groupByKey(p *pipeline, unitType event.UnitType, minSize int, confidence float64, key func(*event.Normalized) string) {
	buckets := make(map[string][]*event.Normalized)
	var order []string
	for _, ev := range p.events {
		if ev.Processed {
			continue
		}
		k := key(ev)
		if k == "" {
			continue
		}
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], ev)
	}

	for _, k := range order {
		if group := buckets[k]; len(group) >= minSize {
			e.commit(p, unitType, group, confidence)
		}
	}
}

// commit creates one cognitive unit over the run and marks every member
// processed. Time bounds come from the members' normalized timestamps; the
// dominant pattern is the most frequent tag.
func (e *Encoder) commit(p *pipeline, unitType event.UnitType, run []*event.Normalized, confidence float64) {
	unit := &event.CognitiveUnit{
		ID:         uuid.New().String(),
		Type:       unitType,
		Start:      run[0].Timestamp,
		End:        run[len(run)-1].Timestamp,
		EventIDs:   make([]string, len(run)),
		Confidence: confidence,
	}

	tagCounts := make(map[string]int)
	fileSet := make(map[string]struct{})
	branchSet := make(map[string]struct{})
	for i, ev := range run {
		unit.EventIDs[i] = ev.ID
		if ev.Timestamp.Before(unit.Start) {
			unit.Start = ev.Timestamp
		}
		if ev.Timestamp.After(unit.End) {
			unit.End = ev.Timestamp
		}
		for _, tag := range ev.Tags {
			tagCounts[tag]++
		}
		if fp := ev.FilePath(); fp != "" {
			fileSet[fp] = struct{}{}
		}
		if br := ev.Branch(); br != "" {
			branchSet[br] = struct{}{}
		}

		ev.Processed = true
		ev.UnitID = unit.ID
	}

	best, bestCount := "", 0
	for tag, count := range tagCounts {
		if count > bestCount || (count == bestCount && tag < best) {
			best, bestCount = tag, count
		}
	}
	unit.DominantPattern = best
	unit.Context = event.UnitContext{
		ActiveFiles:    sortedKeys(fileSet),
		ActiveBranches: sortedKeys(branchSet),
	}

	// The most recent stated intent inside the run, usually a commit
	// message, stands in as the unit's goal.
	for i := len(run) - 1; i >= 0; i-- {
		if msg := payloadMessage(run[i]); msg != "" {
			unit.Context.Goal = msg
			break
		}
	}

	p.units = append(p.units, unit)
}
