// Package spec implements the schema-driven validator for timeweave
// messages and timelines. It is byte-format agnostic: it operates on
// decoded messages, and it reports structured findings instead of raising
// errors - only unrecoverable corruption lives in the error channel, and
// that belongs to the codec.
package spec

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/Soynido/timeweave/pkg/timeweave/event"
)

// Level selects how strictly field rules are applied.
type Level int

const (
	// Strict makes field type and rule violations errors.
	Strict Level = iota

	// Lenient keeps required-field and type violations as errors but
	// downgrades rule violations (length, range, pattern) to warnings.
	Lenient

	// Permissive downgrades everything below structural failures to
	// warnings.
	Permissive
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	case Permissive:
		return "permissive"
	default:
		return "unknown"
	}
}

// FieldKind is the expected JSON shape of a payload field.
type FieldKind string

const (
	KindString    FieldKind = "string"
	KindNumber    FieldKind = "number"
	KindBool      FieldKind = "bool"
	KindObject    FieldKind = "object"
	KindArray     FieldKind = "array"
	KindTimestamp FieldKind = "timestamp"
)

// Format names a well-known string format.
type Format string

const (
	FormatNone    Format = ""
	FormatUUID    Format = "uuid"
	FormatRFC3339 Format = "rfc3339"
)

// FieldSpec declares the type and rules for one payload field.
type FieldSpec struct {
	Kind    FieldKind
	MinLen  int
	MaxLen  int
	Pattern string
	Min     *float64
	Max     *float64
	Enum    []string
	Format  Format

	// Default is applied to missing optional fields and recorded as a
	// transformation.
	Default any

	pattern *regexp.Regexp
}

// TypeSpec maps one event type to its field schema.
type TypeSpec struct {
	Type     event.Type
	Required []string
	Optional []string
	Fields   map[string]FieldSpec
	Level    Level

	// DeprecatedFields are accepted but flagged with a warning carrying
	// the migration note.
	DeprecatedFields map[string]string
}

// Spec is the registry of type specifications plus the declarative rule
// set. Safe for concurrent use.
type Spec struct {
	mu    sync.RWMutex
	types map[event.Type]*TypeSpec
	rules []Rule
}

// New creates an empty Spec.
func New() *Spec {
	return &Spec{
		types: make(map[event.Type]*TypeSpec),
	}
}

// Register adds or replaces the specification for a type. Field patterns
// are compiled here so validation never pays the compile cost.
func (s *Spec) Register(ts *TypeSpec) error {
	if ts == nil || ts.Type == "" {
		return fmt.Errorf("type spec: type is required")
	}
	if !ts.Type.Valid() {
		return fmt.Errorf("type spec: unknown type %q", ts.Type)
	}
	for name, fs := range ts.Fields {
		if fs.Pattern != "" {
			re, err := regexp.Compile(fs.Pattern)
			if err != nil {
				return fmt.Errorf("type spec %s: field %s: bad pattern: %w", ts.Type, name, err)
			}
			fs.pattern = re
			ts.Fields[name] = fs
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[ts.Type] = ts
	return nil
}

// Get returns the specification for a type.
func (s *Spec) Get(t event.Type) (*TypeSpec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.types[t]
	return ts, ok
}

// AddRule appends a declarative rule, evaluated after field validation in
// registration order.
func (s *Spec) AddRule(r Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, r)
	return nil
}

// Rules returns a snapshot of the registered rules.
func (s *Spec) Rules() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Types returns the registered event types.
func (s *Spec) Types() []event.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]event.Type, 0, len(s.types))
	for t := range s.types {
		types = append(types, t)
	}
	return types
}
