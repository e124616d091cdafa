package event

import (
	"path"
	"strings"
)

// Normalized is a message augmented by the pipeline's normalization pass.
// ParentID and Children form a forest over one batch; UnitID is assigned at
// most once by the grouping passes.
type Normalized struct {
	Message

	// NormalizedTS is the message timestamp in epoch milliseconds,
	// monotonic-comparable within a batch.
	NormalizedTS int64 `json:"normalized_ts"`

	// Seq is the stable position of the event after the normalization sort.
	Seq int `json:"seq"`

	ParentID string   `json:"parent_id,omitempty"`
	Children []string `json:"children,omitempty"`

	// UnitID back-references the cognitive unit that claimed this event.
	UnitID string `json:"unit_id,omitempty"`

	Tags []string `json:"tags,omitempty"`

	// Processed is consumed by the grouping passes to keep unit
	// assignment exclusive across overlapping detectors.
	Processed bool `json:"processed"`
}

// HasTag reports whether the event carries the given classification tag.
func (n *Normalized) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// FilePath extracts the well-known "file_path" payload key, if present.
func (n *Normalized) FilePath() string {
	return payloadString(n.Payload, "file_path")
}

// Directory returns the containing directory of the event's file path,
// or "" when the payload carries no path.
func (n *Normalized) Directory() string {
	fp := n.FilePath()
	if fp == "" {
		return ""
	}
	return path.Dir(fp)
}

// Branch extracts the well-known "branch" payload key, if present.
func (n *Normalized) Branch() string {
	return payloadString(n.Payload, "branch")
}

// LinesDeleted extracts the well-known "lines_deleted" payload key.
func (n *Normalized) LinesDeleted() int {
	return payloadInt(n.Payload, "lines_deleted")
}

// RelatedDirs reports whether the directories of two events overlap: equal,
// or one nested under the other.
func RelatedDirs(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	return strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}

func payloadString(p map[string]any, key string) string {
	if p == nil {
		return ""
	}
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

func payloadInt(p map[string]any, key string) int {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
