package event_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Soynido/timeweave/pkg/timeweave/event"
)

func TestNew_Defaults(t *testing.T) {
	msg := event.New(event.TypeFileChange, event.SourceFileWatcher, map[string]any{
		"file_path": "src/main.go",
	})

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, event.TypeFileChange, msg.Type)
	assert.Equal(t, event.SourceFileWatcher, msg.Source)
	assert.False(t, msg.Timestamp.IsZero())
	assert.Equal(t, event.SchemaVersion, msg.Version)

	// Without an explicit correlation ID the message is its own root.
	assert.Equal(t, msg.ID, msg.CorrelationID)
	assert.Empty(t, msg.CausationID)
}

func TestNew_Options(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	msg := event.New(event.TypeGitCommit, event.SourceGitListener, map[string]any{"commit_hash": "abc1234"},
		event.WithID("msg-1"),
		event.WithCorrelationID("corr-1"),
		event.WithCausationID("cause-1"),
		event.WithTimestamp(ts),
		event.WithVersion("2.0.0"),
		event.WithMetadata(map[string]string{"host": "dev"}),
	)

	assert.Equal(t, "msg-1", msg.ID)
	assert.Equal(t, "corr-1", msg.CorrelationID)
	assert.Equal(t, "cause-1", msg.CausationID)
	assert.Equal(t, ts, msg.Timestamp)
	assert.Equal(t, "2.0.0", msg.Version)
	assert.Equal(t, "dev", msg.Metadata["host"])
}

func TestNewFromParent(t *testing.T) {
	parent := event.New(event.TypeFileChange, event.SourceFileWatcher, map[string]any{
		"file_path": "src/a.go",
	})
	child := event.NewFromParent(parent, event.TypeGitCommit, event.SourceGitListener, map[string]any{
		"commit_hash": "abc1234",
	})

	assert.Equal(t, parent.CorrelationID, child.CorrelationID)
	assert.Equal(t, parent.ID, child.CausationID)
	assert.NotEqual(t, parent.ID, child.ID)
}

func TestMessage_Validate(t *testing.T) {
	valid := event.New(event.TypeCycle, event.SourceScheduler, map[string]any{"cycle_id": "c-1"})
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*event.Message)
	}{
		{"missing id", func(m *event.Message) { m.ID = "" }},
		{"zero timestamp", func(m *event.Message) { m.Timestamp = time.Time{} }},
		{"unknown type", func(m *event.Message) { m.Type = "telepathy" }},
		{"unknown source", func(m *event.Message) { m.Source = "ouija" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := event.New(event.TypeCycle, event.SourceScheduler, map[string]any{"cycle_id": "c-1"})
			tt.mutate(msg)
			assert.Error(t, msg.Validate())
		})
	}

	var nilMsg *event.Message
	assert.Error(t, nilMsg.Validate())
}

func TestEnums(t *testing.T) {
	for _, typ := range event.Types() {
		assert.True(t, typ.Valid(), typ.String())
	}
	assert.False(t, event.Type("bogus").Valid())
	assert.False(t, event.Source("bogus").Valid())
	assert.True(t, event.SourceSystem.Valid())
}

func TestSeverity_AtLeast(t *testing.T) {
	assert.True(t, event.SeverityCritical.AtLeast(event.SeverityLow))
	assert.True(t, event.SeverityHigh.AtLeast(event.SeverityHigh))
	assert.False(t, event.SeverityLow.AtLeast(event.SeverityMedium))
}

func TestNormalized_Helpers(t *testing.T) {
	ev := &event.Normalized{
		Message: *event.New(event.TypeFileChange, event.SourceFileWatcher, map[string]any{
			"file_path":     "src/api/handler.go",
			"branch":        "main",
			"lines_deleted": 12,
		}),
		Tags: []string{"feature"},
	}

	assert.Equal(t, "src/api/handler.go", ev.FilePath())
	assert.Equal(t, "src/api", ev.Directory())
	assert.Equal(t, "main", ev.Branch())
	assert.Equal(t, 12, ev.LinesDeleted())
	assert.True(t, ev.HasTag("feature"))
	assert.False(t, ev.HasTag("fix"))
}

func TestRelatedDirs(t *testing.T) {
	assert.True(t, event.RelatedDirs("src/api", "src/api"))
	assert.True(t, event.RelatedDirs("src/api", "src/api/auth"))
	assert.True(t, event.RelatedDirs("src/api/auth", "src/api"))
	assert.False(t, event.RelatedDirs("src/api", "src/apiv2"))
	assert.False(t, event.RelatedDirs("", "src/api"))
}

func TestTimeline_Bounds(t *testing.T) {
	now := time.Now()

	tl := &event.Timeline{ID: "t-1", Start: now, End: now.Add(time.Hour)}
	start, end, err := tl.Bounds()
	require.NoError(t, err)
	assert.Equal(t, now, start)
	assert.Equal(t, now.Add(time.Hour), end)

	_, _, err = (&event.Timeline{ID: "t-2"}).Bounds()
	assert.Error(t, err)

	_, _, err = (&event.Timeline{ID: "t-3", Start: now, End: now.Add(-time.Hour)}).Bounds()
	assert.Error(t, err)
}

func TestCognitiveUnit(t *testing.T) {
	u := &event.CognitiveUnit{
		ID:       "u-1",
		Type:     event.UnitSession,
		Start:    time.Now(),
		End:      time.Now().Add(30 * time.Minute),
		EventIDs: []string{"a", "b"},
	}
	assert.True(t, u.Contains("a"))
	assert.False(t, u.Contains("c"))
	assert.Equal(t, 30*time.Minute, u.Duration().Round(time.Minute))
}
