package spec

import (
	"fmt"

	twerrors "github.com/Soynido/timeweave/pkg/timeweave/errors"
)

// Finding is one validation observation. Findings are collected, never
// thrown: only Error and Critical findings invalidate a message.
type Finding struct {
	Code     string            `json:"code"`
	Field    string            `json:"field,omitempty"`
	Message  string            `json:"message"`
	Severity twerrors.Severity `json:"severity"`
}

func (f Finding) String() string {
	if f.Field != "" {
		return fmt.Sprintf("[%s] %s %s: %s", f.Severity, f.Code, f.Field, f.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Code, f.Message)
}

// Transformation records a value substituted during validation, such as a
// default applied to a missing optional field. Re-validating a message
// after its transformations were applied yields no new transformations.
type Transformation struct {
	Field  string `json:"field"`
	Action string `json:"action"`
	Value  any    `json:"value"`
}

// Result is the outcome of validating one message or a whole timeline.
type Result struct {
	Valid           bool             `json:"valid"`
	Errors          []Finding        `json:"errors,omitempty"`
	Warnings        []Finding        `json:"warnings,omitempty"`
	Infos           []Finding        `json:"infos,omitempty"`
	Transformations []Transformation `json:"transformations,omitempty"`
}

func newResult() *Result {
	return &Result{Valid: true}
}

// add files a finding under the bucket matching its severity.
func (r *Result) add(f Finding) {
	switch {
	case f.Severity.Fatal():
		r.Errors = append(r.Errors, f)
		r.Valid = false
	case f.Severity == twerrors.SeverityWarning:
		r.Warnings = append(r.Warnings, f)
	default:
		r.Infos = append(r.Infos, f)
	}
}

// merge folds other into r, prefixing every finding's field with prefix.
func (r *Result) merge(other *Result, prefix string) {
	rebase := func(fs []Finding) []Finding {
		out := make([]Finding, len(fs))
		for i, f := range fs {
			f.Field = joinField(prefix, f.Field)
			out[i] = f
		}
		return out
	}
	r.Errors = append(r.Errors, rebase(other.Errors)...)
	r.Warnings = append(r.Warnings, rebase(other.Warnings)...)
	r.Infos = append(r.Infos, rebase(other.Infos)...)
	for _, tr := range other.Transformations {
		tr.Field = joinField(prefix, tr.Field)
		r.Transformations = append(r.Transformations, tr)
	}
	if !other.Valid {
		r.Valid = false
	}
}

func joinField(prefix, field string) string {
	if prefix == "" {
		return field
	}
	if field == "" {
		return prefix
	}
	return prefix + "." + field
}
