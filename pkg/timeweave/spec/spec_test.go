package spec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	twerrors "github.com/Soynido/timeweave/pkg/timeweave/errors"
	"github.com/Soynido/timeweave/pkg/timeweave/event"
	"github.com/Soynido/timeweave/pkg/timeweave/spec"
)

func fileChange(opts ...event.Option) *event.Message {
	return event.New(event.TypeFileChange, event.SourceFileWatcher, map[string]any{
		"file_path": "src/main.go",
	}, opts...)
}

func findCode(findings []spec.Finding, code string) *spec.Finding {
	for i := range findings {
		if findings[i].Code == code {
			return &findings[i]
		}
	}
	return nil
}

func TestValidateMessage_Valid(t *testing.T) {
	s := spec.Default()
	result := s.ValidateMessage(fileChange(), nil)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateMessage_StructuralFailures(t *testing.T) {
	s := spec.Default()

	tests := []struct {
		name string
		msg  *event.Message
		code string
	}{
		{"nil message", nil, "MALFORMED"},
		{"missing id", func() *event.Message { m := fileChange(); m.ID = ""; return m }(), "MISSING_ID"},
		{"missing type", func() *event.Message { m := fileChange(); m.Type = ""; return m }(), "MISSING_TYPE"},
		{"missing source", func() *event.Message { m := fileChange(); m.Source = ""; return m }(), "MISSING_SOURCE"},
		{"missing timestamp", func() *event.Message { m := fileChange(); m.Timestamp = time.Time{}; return m }(), "MISSING_TIMESTAMP"},
		{"missing payload", func() *event.Message { m := fileChange(); m.Payload = nil; return m }(), "MISSING_PAYLOAD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.ValidateMessage(tt.msg, nil)
			assert.False(t, result.Valid)
			require.Len(t, result.Errors, 1, "structural failures short-circuit")
			assert.Equal(t, tt.code, result.Errors[0].Code)
			assert.Equal(t, twerrors.SeverityCritical, result.Errors[0].Severity)
		})
	}
}

func TestValidateMessage_UnknownType(t *testing.T) {
	s := spec.Default()
	msg := fileChange()
	msg.Type = "telepathy"

	result := s.ValidateMessage(msg, nil)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "UNKNOWN_TYPE", result.Errors[0].Code)
	assert.Equal(t, twerrors.SeverityCritical, result.Errors[0].Severity)
}

func TestValidateMessage_MissingRequiredField(t *testing.T) {
	s := spec.Default()
	msg := event.New(event.TypeFileChange, event.SourceFileWatcher, map[string]any{
		"branch": "main",
	})

	result := s.ValidateMessage(msg, nil)
	assert.False(t, result.Valid)
	f := findCode(result.Errors, "MISSING_FIELD")
	require.NotNil(t, f)
	assert.Equal(t, "file_path", f.Field)
}

func TestValidateMessage_UnknownFieldIsWarningOnly(t *testing.T) {
	s := spec.Default()
	msg := event.New(event.TypeFileChange, event.SourceFileWatcher, map[string]any{
		"file_path":     "src/main.go",
		"editor_uptime": 42,
	})

	result := s.ValidateMessage(msg, nil)
	assert.True(t, result.Valid, "unknown fields never reject")
	f := findCode(result.Warnings, "UNKNOWN_FIELD")
	require.NotNil(t, f)
	assert.Equal(t, "editor_uptime", f.Field)
}

func TestValidateMessage_DefaultsRecordedAsTransformations(t *testing.T) {
	s := spec.Default()
	msg := event.New(event.TypeGitCommit, event.SourceGitListener, map[string]any{
		"commit_hash": "abc1234",
	})

	result := s.ValidateMessage(msg, nil)
	assert.True(t, result.Valid)
	assert.Equal(t, "main", msg.Payload["branch"], "default applied in place")

	var branchDefault *spec.Transformation
	for i := range result.Transformations {
		if result.Transformations[i].Field == "branch" {
			branchDefault = &result.Transformations[i]
		}
	}
	require.NotNil(t, branchDefault)
	assert.Equal(t, "default", branchDefault.Action)
	assert.Equal(t, "main", branchDefault.Value)
}

func TestValidateMessage_Idempotent(t *testing.T) {
	s := spec.Default()
	msg := event.New(event.TypeGitCommit, event.SourceGitListener, map[string]any{
		"commit_hash": "abc1234",
	})

	first := s.ValidateMessage(msg, nil)
	assert.NotEmpty(t, first.Transformations)

	// Revalidating the transformed message yields no new transformations.
	second := s.ValidateMessage(msg, nil)
	assert.True(t, second.Valid)
	assert.Empty(t, second.Transformations)
}

func TestValidateMessage_PatternAndEnum(t *testing.T) {
	s := spec.Default()

	bad := event.New(event.TypeGitCommit, event.SourceGitListener, map[string]any{
		"commit_hash": "NOT-A-HASH",
	})
	result := s.ValidateMessage(bad, nil)
	assert.False(t, result.Valid)
	assert.NotNil(t, findCode(result.Errors, "PATTERN_MISMATCH"))

	wrongEnum := event.New(event.TypeFileChange, event.SourceFileWatcher, map[string]any{
		"file_path":   "src/main.go",
		"change_kind": "teleported",
	})
	result = s.ValidateMessage(wrongEnum, nil)
	assert.False(t, result.Valid)
	assert.NotNil(t, findCode(result.Errors, "NOT_IN_ENUM"))
}

func TestValidateMessage_LenientDowngradesRules(t *testing.T) {
	s := spec.Default()

	// cycle is Lenient: a rule violation (range) is only a warning.
	msg := event.New(event.TypeCycle, event.SourceScheduler, map[string]any{
		"cycle_id":    "550e8400-e29b-41d4-a716-446655440000",
		"duration_ms": -5,
	})
	result := s.ValidateMessage(msg, nil)
	assert.True(t, result.Valid)
	assert.NotNil(t, findCode(result.Warnings, "OUT_OF_RANGE"))

	// But a wrong type stays an error under Lenient.
	msg = event.New(event.TypeCycle, event.SourceScheduler, map[string]any{
		"cycle_id":    "550e8400-e29b-41d4-a716-446655440000",
		"duration_ms": "fast",
	})
	result = s.ValidateMessage(msg, nil)
	assert.False(t, result.Valid)
	assert.NotNil(t, findCode(result.Errors, "WRONG_TYPE"))
}

func TestValidateMessage_DeprecatedField(t *testing.T) {
	s := spec.Default()
	msg := event.New(event.TypeConfigChange, event.SourceSystem, map[string]any{
		"key":       "max_event_gap",
		"old_value": "30m",
	})

	result := s.ValidateMessage(msg, nil)
	assert.True(t, result.Valid)
	f := findCode(result.Warnings, "DEPRECATED_FIELD")
	require.NotNil(t, f)
	assert.Equal(t, "old_value", f.Field)
	// Deprecated fields are not additionally flagged as unknown.
	assert.Nil(t, findCode(result.Warnings, "UNKNOWN_FIELD"))
}

func TestValidateMessage_BatchContext(t *testing.T) {
	s := spec.Default()
	bctx := spec.NewBatchContext()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	first := fileChange(event.WithID("dup-1"), event.WithTimestamp(base))
	result := s.ValidateMessage(first, bctx)
	require.True(t, result.Valid)

	// Same id again: error.
	second := fileChange(event.WithID("dup-1"), event.WithTimestamp(base.Add(time.Minute)))
	result = s.ValidateMessage(second, bctx)
	assert.False(t, result.Valid)
	assert.NotNil(t, findCode(result.Errors, "DUPLICATE_ID"))

	// Earlier timestamp: warning only.
	third := fileChange(event.WithID("ok-3"), event.WithTimestamp(base.Add(-time.Hour)))
	result = s.ValidateMessage(third, bctx)
	assert.True(t, result.Valid)
	assert.NotNil(t, findCode(result.Warnings, "OUT_OF_ORDER"))
}

func TestValidateMessage_Version(t *testing.T) {
	s := spec.Default()

	noVersion := fileChange(event.WithVersion(""))
	result := s.ValidateMessage(noVersion, nil)
	assert.True(t, result.Valid)
	assert.NotNil(t, findCode(result.Warnings, "MISSING_VERSION"))

	badVersion := fileChange(event.WithVersion("latest"))
	result = s.ValidateMessage(badVersion, nil)
	assert.False(t, result.Valid)
	assert.NotNil(t, findCode(result.Errors, "BAD_VERSION"))

	oldMajor := fileChange(event.WithVersion("0.9.0"))
	result = s.ValidateMessage(oldMajor, nil)
	assert.True(t, result.Valid)
	assert.NotNil(t, findCode(result.Warnings, "VERSION_MISMATCH"))
}

func TestDeclarativeRules(t *testing.T) {
	s := spec.Default()
	require.NoError(t, s.AddRule(spec.Rule{
		Name:   "flag-huge-deletions",
		When:   `payload.lines_deleted > 1000`,
		Action: spec.ActionWarn,
	}))
	require.NoError(t, s.AddRule(spec.Rule{
		Name:   "reject-detached",
		When:   `payload.branch == "HEAD"`,
		Action: spec.ActionReject,
	}))

	big := event.New(event.TypeFileChange, event.SourceFileWatcher, map[string]any{
		"file_path":     "src/main.go",
		"lines_deleted": 2000,
	})
	result := s.ValidateMessage(big, nil)
	assert.True(t, result.Valid)
	assert.NotNil(t, findCode(result.Warnings, "RULE_WARNING"))

	detached := event.New(event.TypeFileChange, event.SourceFileWatcher, map[string]any{
		"file_path": "src/main.go",
		"branch":    "HEAD",
	})
	result = s.ValidateMessage(detached, nil)
	assert.False(t, result.Valid)
}

func TestDeclarativeRules_TransformIdempotent(t *testing.T) {
	s := spec.Default()
	require.NoError(t, s.AddRule(spec.Rule{
		Name:   "canonicalize-branch",
		When:   `payload.branch == "master"`,
		Action: spec.ActionTransform,
		Field:  "branch",
		Value:  "main",
	}))

	msg := event.New(event.TypeFileChange, event.SourceFileWatcher, map[string]any{
		"file_path": "src/main.go",
		"branch":    "master",
	})

	first := s.ValidateMessage(msg, nil)
	assert.Equal(t, "main", msg.Payload["branch"])
	count := 0
	for _, tr := range first.Transformations {
		if tr.Field == "branch" && tr.Action == "transform" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	// Condition no longer matches; no second transformation.
	second := s.ValidateMessage(msg, nil)
	for _, tr := range second.Transformations {
		assert.NotEqual(t, "transform", tr.Action)
	}
}

func TestRule_Validate(t *testing.T) {
	assert.Error(t, spec.Rule{When: "x", Action: spec.ActionWarn}.Validate())
	assert.Error(t, spec.Rule{Name: "n", Action: spec.ActionWarn}.Validate())
	assert.Error(t, spec.Rule{Name: "n", When: "x", Action: "explode"}.Validate())
	assert.Error(t, spec.Rule{Name: "n", When: "x", Action: spec.ActionTransform}.Validate())
	assert.NoError(t, spec.Rule{Name: "n", When: "x", Action: spec.ActionTransform, Field: "f"}.Validate())
}

func TestValidateTimeline(t *testing.T) {
	s := spec.Default()

	result := s.ValidateTimeline(nil)
	assert.False(t, result.Valid)

	result = s.ValidateTimeline(&event.Timeline{ID: "t-1"})
	assert.False(t, result.Valid)
	assert.NotNil(t, findCode(result.Errors, "EMPTY_TIMELINE"))

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	mk := func(id string, ts time.Time) *event.Normalized {
		return &event.Normalized{
			Message:      *fileChange(event.WithID(id), event.WithTimestamp(ts)),
			NormalizedTS: ts.UnixMilli(),
		}
	}

	good := &event.Timeline{
		ID:    "t-2",
		Start: base,
		End:   base.Add(time.Hour),
		Events: []*event.Normalized{
			mk("a", base),
			mk("b", base.Add(time.Minute)),
		},
	}
	result = s.ValidateTimeline(good)
	assert.True(t, result.Valid)

	missingBounds := &event.Timeline{
		ID:     "t-3",
		Events: []*event.Normalized{mk("a", base)},
	}
	result = s.ValidateTimeline(missingBounds)
	assert.False(t, result.Valid)
	assert.NotNil(t, findCode(result.Errors, "MISSING_BOUNDS"))

	inverted := &event.Timeline{
		ID:     "t-4",
		Start:  base.Add(time.Hour),
		End:    base,
		Events: []*event.Normalized{mk("a", base)},
	}
	result = s.ValidateTimeline(inverted)
	assert.False(t, result.Valid)
	assert.NotNil(t, findCode(result.Errors, "INVERTED_BOUNDS"))

	dupIDs := &event.Timeline{
		ID:    "t-5",
		Start: base,
		End:   base.Add(time.Hour),
		Events: []*event.Normalized{
			mk("same", base),
			mk("same", base.Add(time.Minute)),
		},
	}
	result = s.ValidateTimeline(dupIDs)
	assert.False(t, result.Valid)

	outOfOrder := &event.Timeline{
		ID:    "t-6",
		Start: base,
		End:   base.Add(time.Hour),
		Events: []*event.Normalized{
			mk("a", base.Add(time.Minute)),
			mk("b", base),
		},
	}
	result = s.ValidateTimeline(outOfOrder)
	assert.True(t, result.Valid, "ordering violations are advisory")
	assert.NotEmpty(t, result.Warnings)
}
