package encoder

import (
	"context"
	"sort"
	"strings"

	twerrors "github.com/Soynido/timeweave/pkg/timeweave/errors"
	"github.com/Soynido/timeweave/pkg/timeweave/event"
	"github.com/Soynido/timeweave/pkg/timeweave/observability"
)

// defaultPatterns is the built-in tag classification dictionary. Substrings
// are matched case-insensitively against the file path and commit message.
func defaultPatterns() map[string][]string {
	return map[string][]string{
		"refactoring": {"refactor", "cleanup", "rename", "extract"},
		"testing":     {"_test", "/test", "spec."},
		"docs":        {"readme", ".md", "/docs/"},
		"config":      {".yaml", ".yml", ".json", ".toml", ".env"},
		"fix":         {"fix", "bug", "hotfix", "patch"},
		"feature":     {"feat", "add ", "implement"},
	}
}

// normalize drops structurally invalid messages, computes the normalized
// timestamp, records the arrival sequence number, classifies tags via the
// pattern dictionary, and sorts the survivors by timestamp. Dropping is
// logged and counted, never fatal.
func (e *Encoder) normalize(ctx context.Context, p *pipeline, msgs []*event.Message) {
	var gate *specGate
	if e.spec != nil {
		gate = newSpecGate(e.spec)
	}

	seq := 0
	for _, msg := range msgs {
		if err := msg.Validate(); err != nil {
			id := ""
			if msg != nil {
				id = msg.ID
			}
			observability.LogEventDropped(e.logger, id, err)
			e.metrics.RecordEventDropped(ctx, "normalize")
			p.dropped++
			continue
		}
		if _, dup := p.byID[msg.ID]; dup {
			observability.LogEventDropped(e.logger, msg.ID,
				&twerrors.InvalidInputError{EventID: msg.ID, Reason: "duplicate id in batch"})
			e.metrics.RecordEventDropped(ctx, "normalize")
			p.dropped++
			continue
		}
		if gate != nil {
			if err := gate.check(msg); err != nil {
				observability.LogEventDropped(e.logger, msg.ID, err)
				e.metrics.RecordEventDropped(ctx, "validate")
				p.dropped++
				continue
			}
		}

		ev := &event.Normalized{
			Message:      *msg,
			NormalizedTS: msg.Timestamp.UnixMilli(),
			Seq:          seq,
		}
		ev.Tags = e.classify(ev)
		seq++

		p.events = append(p.events, ev)
		p.byID[ev.ID] = ev
	}

	sortByTime(p.events)
}

// classify derives tags from the pattern dictionary plus the event type.
func (e *Encoder) classify(ev *event.Normalized) []string {
	haystack := strings.ToLower(ev.FilePath())
	if msg := payloadMessage(ev); msg != "" {
		haystack += "\n" + strings.ToLower(msg)
	}

	// Dictionary order must not leak map iteration order: identical input
	// has to produce identical tag slices, and with them identical
	// serialized timelines.
	names := make([]string, 0, len(e.patterns))
	for tag := range e.patterns {
		names = append(names, tag)
	}
	sort.Strings(names)

	var tags []string
	for _, tag := range names {
		for _, needle := range e.patterns[tag] {
			if needle != "" && strings.Contains(haystack, needle) {
				tags = append(tags, tag)
				break
			}
		}
	}

	switch ev.Type {
	case event.TypeGitCommit:
		tags = append(tags, "commit")
	case event.TypeCognitiveSignal:
		tags = append(tags, "cognitive")
	}
	return tags
}

func payloadMessage(ev *event.Normalized) string {
	if ev.Payload == nil {
		return ""
	}
	if s, ok := ev.Payload["message"].(string); ok {
		return s
	}
	return ""
}
