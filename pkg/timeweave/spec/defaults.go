package spec

import (
	"github.com/Soynido/timeweave/pkg/timeweave/event"
)

func floatPtr(f float64) *float64 { return &f }

// Default returns a Spec pre-registered with schemas for every member of
// the event type enumeration, mirroring the payloads the workspace
// collaborators actually produce.
func Default() *Spec {
	s := New()

	mustRegister := func(ts *TypeSpec) {
		if err := s.Register(ts); err != nil {
			panic("spec: default registration failed: " + err.Error())
		}
	}

	mustRegister(&TypeSpec{
		Type:     event.TypeCycle,
		Required: []string{"cycle_id"},
		Optional: []string{"phase", "duration_ms"},
		Level:    Lenient,
		Fields: map[string]FieldSpec{
			"cycle_id":    {Kind: KindString, Format: FormatUUID},
			"phase":       {Kind: KindString, Enum: []string{"plan", "build", "verify", "reflect"}, Default: "build"},
			"duration_ms": {Kind: KindNumber, Min: floatPtr(0)},
		},
	})

	mustRegister(&TypeSpec{
		Type:     event.TypeFileChange,
		Required: []string{"file_path"},
		Optional: []string{"change_kind", "lines_added", "lines_deleted", "branch"},
		Level:    Strict,
		Fields: map[string]FieldSpec{
			"file_path":     {Kind: KindString, MinLen: 1, MaxLen: 4096},
			"change_kind":   {Kind: KindString, Enum: []string{"created", "modified", "deleted", "renamed"}, Default: "modified"},
			"lines_added":   {Kind: KindNumber, Min: floatPtr(0), Default: 0},
			"lines_deleted": {Kind: KindNumber, Min: floatPtr(0), Default: 0},
			"branch":        {Kind: KindString, MaxLen: 255},
		},
	})

	mustRegister(&TypeSpec{
		Type:     event.TypeGitCommit,
		Required: []string{"commit_hash"},
		Optional: []string{"branch", "message", "files_changed"},
		Level:    Strict,
		Fields: map[string]FieldSpec{
			"commit_hash":   {Kind: KindString, Pattern: `^[0-9a-f]{7,40}$`},
			"branch":        {Kind: KindString, MaxLen: 255, Default: "main"},
			"message":       {Kind: KindString, MaxLen: 8192},
			"files_changed": {Kind: KindArray},
		},
	})

	mustRegister(&TypeSpec{
		Type:     event.TypeBurst,
		Required: []string{"event_count"},
		Optional: []string{"window_ms"},
		Level:    Lenient,
		Fields: map[string]FieldSpec{
			"event_count": {Kind: KindNumber, Min: floatPtr(1)},
			"window_ms":   {Kind: KindNumber, Min: floatPtr(0), Default: 300000},
		},
	})

	mustRegister(&TypeSpec{
		Type:     event.TypePatternDetected,
		Required: []string{"pattern"},
		Optional: []string{"confidence", "file_path"},
		Level:    Lenient,
		Fields: map[string]FieldSpec{
			"pattern":    {Kind: KindString, MinLen: 1},
			"confidence": {Kind: KindNumber, Min: floatPtr(0), Max: floatPtr(1), Default: 0.5},
			"file_path":  {Kind: KindString, MaxLen: 4096},
		},
	})

	mustRegister(&TypeSpec{
		Type:     event.TypeCognitiveSignal,
		Required: []string{"signal"},
		Optional: []string{"strength"},
		Level:    Permissive,
		Fields: map[string]FieldSpec{
			"signal":   {Kind: KindString, MinLen: 1},
			"strength": {Kind: KindNumber, Min: floatPtr(0), Max: floatPtr(1), Default: 0.5},
		},
	})

	mustRegister(&TypeSpec{
		Type:     event.TypeADRCreated,
		Required: []string{"adr_id", "title"},
		Optional: []string{"status"},
		Level:    Lenient,
		Fields: map[string]FieldSpec{
			"adr_id": {Kind: KindString, MinLen: 1},
			"title":  {Kind: KindString, MinLen: 1, MaxLen: 512},
			"status": {Kind: KindString, Enum: []string{"proposed", "accepted", "superseded"}, Default: "proposed"},
		},
	})

	mustRegister(&TypeSpec{
		Type:     event.TypeForecast,
		Required: []string{"horizon_ms"},
		Optional: []string{"confidence"},
		Level:    Permissive,
		Fields: map[string]FieldSpec{
			"horizon_ms": {Kind: KindNumber, Min: floatPtr(0)},
			"confidence": {Kind: KindNumber, Min: floatPtr(0), Max: floatPtr(1), Default: 0.5},
		},
	})

	mustRegister(&TypeSpec{
		Type:     event.TypeAggregated,
		Required: []string{"count"},
		Optional: []string{"window_start", "window_end"},
		Level:    Lenient,
		Fields: map[string]FieldSpec{
			"count":        {Kind: KindNumber, Min: floatPtr(1)},
			"window_start": {Kind: KindTimestamp},
			"window_end":   {Kind: KindTimestamp},
		},
	})

	mustRegister(&TypeSpec{
		Type:     event.TypeSystem,
		Required: []string{},
		Optional: []string{"component", "detail"},
		Level:    Permissive,
		Fields: map[string]FieldSpec{
			"component": {Kind: KindString, MaxLen: 255},
			"detail":    {Kind: KindString, MaxLen: 8192},
		},
	})

	mustRegister(&TypeSpec{
		Type:     event.TypeConfigChange,
		Required: []string{"key"},
		Optional: []string{"previous", "current"},
		Level:    Lenient,
		DeprecatedFields: map[string]string{
			"old_value": "renamed to \"previous\"",
			"new_value": "renamed to \"current\"",
		},
		Fields: map[string]FieldSpec{
			"key":      {Kind: KindString, MinLen: 1},
			"previous": {Kind: KindString},
			"current":  {Kind: KindString},
		},
	})

	return s
}
