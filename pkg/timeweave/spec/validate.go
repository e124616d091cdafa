package spec

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	twerrors "github.com/Soynido/timeweave/pkg/timeweave/errors"
	"github.com/Soynido/timeweave/pkg/timeweave/event"
)

// BatchContext carries the cross-cutting state accumulated while validating
// a batch: seen ids for uniqueness, the latest timestamp for chronology.
// One context is scoped to one batch; it is not safe for concurrent use.
type BatchContext struct {
	seenIDs map[string]struct{}
	lastTS  time.Time
}

// NewBatchContext creates an empty batch context.
func NewBatchContext() *BatchContext {
	return &BatchContext{seenIDs: make(map[string]struct{})}
}

func (b *BatchContext) seen(id string) bool {
	_, ok := b.seenIDs[id]
	return ok
}

func (b *BatchContext) observe(msg *event.Message) {
	b.seenIDs[msg.ID] = struct{}{}
	if msg.Timestamp.After(b.lastTS) {
		b.lastTS = msg.Timestamp
	}
}

// ValidateMessage validates one message against its type specification.
// bctx may be nil for single-message validation; pass the same context for
// every message of a batch to enable the cross-cutting checks.
//
// Phases, in order: structural shape, type lookup, field rules (defaults
// recorded as transformations), cross-cutting invariants, declarative
// rules. A structural failure or unknown type short-circuits with a single
// critical finding.
func (s *Spec) ValidateMessage(msg *event.Message, bctx *BatchContext) *Result {
	result := newResult()

	// Phase 1: structural shape.
	if code, reason := structuralCheck(msg); code != "" {
		result.add(Finding{Code: code, Message: reason, Severity: twerrors.SeverityCritical})
		return result
	}

	// Phase 2: type specification lookup.
	if !msg.Type.Valid() {
		result.add(Finding{
			Code:     "UNKNOWN_TYPE",
			Field:    "type",
			Message:  fmt.Sprintf("type %q is not in the event type enumeration", msg.Type),
			Severity: twerrors.SeverityCritical,
		})
		return result
	}
	ts, ok := s.Get(msg.Type)
	if !ok {
		result.add(Finding{
			Code:     "UNKNOWN_TYPE",
			Field:    "type",
			Message:  fmt.Sprintf("no specification registered for type %q", msg.Type),
			Severity: twerrors.SeverityCritical,
		})
		return result
	}

	// Phase 3: per-field validation.
	s.validateFields(msg, ts, result)

	// Phase 4: cross-cutting invariants.
	if bctx != nil {
		if bctx.seen(msg.ID) {
			result.add(Finding{
				Code:     "DUPLICATE_ID",
				Field:    "id",
				Message:  fmt.Sprintf("id %s already seen in this batch", msg.ID),
				Severity: twerrors.SeverityError,
			})
		}
		if !bctx.lastTS.IsZero() && msg.Timestamp.Before(bctx.lastTS) {
			// Arrival out of chronological order is tolerated; the
			// pipeline re-sorts. Advisory only.
			result.add(Finding{
				Code:     "OUT_OF_ORDER",
				Field:    "timestamp",
				Message:  "timestamp precedes an earlier message in the batch",
				Severity: twerrors.SeverityWarning,
			})
		}
	}
	validateVersion(msg, result)

	// Phase 5: declarative rules.
	applyRules(s.Rules(), msg, result)

	if bctx != nil {
		bctx.observe(msg)
	}
	return result
}

// structuralCheck returns a finding code and reason when the basic shape is
// broken, or "" when the message is structurally sound.
func structuralCheck(msg *event.Message) (string, string) {
	switch {
	case msg == nil:
		return "MALFORMED", "message is nil"
	case msg.ID == "":
		return "MISSING_ID", "id is required"
	case msg.Type == "":
		return "MISSING_TYPE", "type is required"
	case msg.Source == "":
		return "MISSING_SOURCE", "source is required"
	case msg.Timestamp.IsZero():
		return "MISSING_TIMESTAMP", "timestamp is required"
	case msg.Payload == nil:
		return "MISSING_PAYLOAD", "payload is required"
	}
	return "", ""
}

func validateVersion(msg *event.Message, result *Result) {
	if msg.Version == "" {
		result.add(Finding{
			Code:     "MISSING_VERSION",
			Field:    "version",
			Message:  "schema version is empty",
			Severity: twerrors.SeverityWarning,
		})
		return
	}
	var major int
	if _, err := fmt.Sscanf(msg.Version, "%d.", &major); err != nil {
		result.add(Finding{
			Code:     "BAD_VERSION",
			Field:    "version",
			Message:  fmt.Sprintf("version %q is not parseable", msg.Version),
			Severity: twerrors.SeverityError,
		})
		return
	}
	var current int
	fmt.Sscanf(event.SchemaVersion, "%d.", &current)
	if major != current {
		result.add(Finding{
			Code:     "VERSION_MISMATCH",
			Field:    "version",
			Message:  fmt.Sprintf("major version %d differs from current %d; migration applies", major, current),
			Severity: twerrors.SeverityWarning,
		})
	}
}

func (s *Spec) validateFields(msg *event.Message, ts *TypeSpec, result *Result) {
	// Required fields.
	for _, name := range ts.Required {
		if _, ok := msg.Payload[name]; !ok {
			sev := twerrors.SeverityError
			if ts.Level == Permissive {
				sev = twerrors.SeverityWarning
			}
			result.add(Finding{
				Code:     "MISSING_FIELD",
				Field:    name,
				Message:  fmt.Sprintf("required field %s is missing", name),
				Severity: sev,
			})
		}
	}

	// Optional fields: apply defaults for absences.
	for _, name := range ts.Optional {
		fs, hasSpec := ts.Fields[name]
		if !hasSpec || fs.Default == nil {
			continue
		}
		if _, ok := msg.Payload[name]; !ok {
			msg.Payload[name] = fs.Default
			result.Transformations = append(result.Transformations, Transformation{
				Field:  name,
				Action: "default",
				Value:  fs.Default,
			})
		}
	}

	declared := make(map[string]struct{}, len(ts.Required)+len(ts.Optional))
	for _, name := range ts.Required {
		declared[name] = struct{}{}
	}
	for _, name := range ts.Optional {
		declared[name] = struct{}{}
	}

	// Present fields: type + rule checks, unknown-field warnings.
	for name, value := range msg.Payload {
		if note, dep := ts.DeprecatedFields[name]; dep {
			result.add(Finding{
				Code:     "DEPRECATED_FIELD",
				Field:    name,
				Message:  note,
				Severity: twerrors.SeverityWarning,
			})
		}
		if _, ok := declared[name]; !ok {
			// Unknown fields are never rejected: producers may add
			// fields before this spec learns about them.
			if _, dep := ts.DeprecatedFields[name]; !dep {
				result.add(Finding{
					Code:     "UNKNOWN_FIELD",
					Field:    name,
					Message:  fmt.Sprintf("field %s is not declared for type %s", name, ts.Type),
					Severity: twerrors.SeverityWarning,
				})
			}
			continue
		}
		fs, ok := ts.Fields[name]
		if !ok {
			continue
		}
		validateField(name, value, fs, ts.Level, result)
	}
}

func validateField(name string, value any, fs FieldSpec, level Level, result *Result) {
	typeSev := twerrors.SeverityError
	ruleSev := twerrors.SeverityError
	switch level {
	case Lenient:
		ruleSev = twerrors.SeverityWarning
	case Permissive:
		typeSev = twerrors.SeverityWarning
		ruleSev = twerrors.SeverityWarning
	}

	switch fs.Kind {
	case KindString:
		str, ok := value.(string)
		if !ok {
			result.add(Finding{Code: "WRONG_TYPE", Field: name,
				Message: fmt.Sprintf("expected string, got %T", value), Severity: typeSev})
			return
		}
		if fs.MinLen > 0 && len(str) < fs.MinLen {
			result.add(Finding{Code: "TOO_SHORT", Field: name,
				Message: fmt.Sprintf("length %d below minimum %d", len(str), fs.MinLen), Severity: ruleSev})
		}
		if fs.MaxLen > 0 && len(str) > fs.MaxLen {
			result.add(Finding{Code: "TOO_LONG", Field: name,
				Message: fmt.Sprintf("length %d above maximum %d", len(str), fs.MaxLen), Severity: ruleSev})
		}
		if fs.pattern != nil && !fs.pattern.MatchString(str) {
			result.add(Finding{Code: "PATTERN_MISMATCH", Field: name,
				Message: fmt.Sprintf("value does not match %s", fs.Pattern), Severity: ruleSev})
		}
		if len(fs.Enum) > 0 && !contains(fs.Enum, str) {
			result.add(Finding{Code: "NOT_IN_ENUM", Field: name,
				Message: fmt.Sprintf("value %q not in %v", str, fs.Enum), Severity: ruleSev})
		}
		validateFormat(name, str, fs.Format, ruleSev, result)

	case KindNumber:
		num, ok := toNumber(value)
		if !ok {
			result.add(Finding{Code: "WRONG_TYPE", Field: name,
				Message: fmt.Sprintf("expected number, got %T", value), Severity: typeSev})
			return
		}
		if fs.Min != nil && num < *fs.Min {
			result.add(Finding{Code: "OUT_OF_RANGE", Field: name,
				Message: fmt.Sprintf("value %v below minimum %v", num, *fs.Min), Severity: ruleSev})
		}
		if fs.Max != nil && num > *fs.Max {
			result.add(Finding{Code: "OUT_OF_RANGE", Field: name,
				Message: fmt.Sprintf("value %v above maximum %v", num, *fs.Max), Severity: ruleSev})
		}

	case KindBool:
		if _, ok := value.(bool); !ok {
			result.add(Finding{Code: "WRONG_TYPE", Field: name,
				Message: fmt.Sprintf("expected bool, got %T", value), Severity: typeSev})
		}

	case KindObject:
		if _, ok := value.(map[string]any); !ok {
			result.add(Finding{Code: "WRONG_TYPE", Field: name,
				Message: fmt.Sprintf("expected object, got %T", value), Severity: typeSev})
		}

	case KindArray:
		if _, ok := value.([]any); !ok {
			result.add(Finding{Code: "WRONG_TYPE", Field: name,
				Message: fmt.Sprintf("expected array, got %T", value), Severity: typeSev})
		}

	case KindTimestamp:
		str, ok := value.(string)
		if !ok {
			if _, isTime := value.(time.Time); isTime {
				return
			}
			result.add(Finding{Code: "WRONG_TYPE", Field: name,
				Message: fmt.Sprintf("expected timestamp string, got %T", value), Severity: typeSev})
			return
		}
		if _, err := time.Parse(time.RFC3339, str); err != nil {
			result.add(Finding{Code: "BAD_TIMESTAMP", Field: name,
				Message: fmt.Sprintf("value %q is not RFC3339", str), Severity: ruleSev})
		}
	}
}

func validateFormat(name, value string, format Format, sev twerrors.Severity, result *Result) {
	switch format {
	case FormatUUID:
		if _, err := uuid.Parse(value); err != nil {
			result.add(Finding{Code: "BAD_FORMAT", Field: name,
				Message: fmt.Sprintf("value %q is not a UUID", value), Severity: sev})
		}
	case FormatRFC3339:
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			result.add(Finding{Code: "BAD_FORMAT", Field: name,
				Message: fmt.Sprintf("value %q is not RFC3339", value), Severity: sev})
		}
	}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func contains(ss []string, s string) bool {
	for _, candidate := range ss {
		if candidate == s {
			return true
		}
	}
	return false
}
