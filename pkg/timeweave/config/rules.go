package config

import (
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Soynido/timeweave/pkg/timeweave/event"
)

// ConditionKind names the dimension a grouping condition matches on.
type ConditionKind string

const (
	// ConditionTemporal matches when the gap to the candidate group's
	// last event stays under MaxGap.
	ConditionTemporal ConditionKind = "temporal"

	// ConditionSemantic matches when the event carries Tag.
	ConditionSemantic ConditionKind = "semantic"

	// ConditionStructural matches when the event's directory falls under
	// PathPrefix (any path when PathPrefix is empty).
	ConditionStructural ConditionKind = "structural"

	// ConditionFrequency matches when at least MinCount events of the
	// same type occurred within Window before the event.
	ConditionFrequency ConditionKind = "frequency"
)

// Condition is one weighted predicate inside a grouping rule.
type Condition struct {
	Kind       ConditionKind `yaml:"kind" json:"kind"`
	Weight     float64       `yaml:"weight" json:"weight"`
	MaxGap     time.Duration `yaml:"max_gap,omitempty" json:"max_gap,omitempty"`
	Tag        string        `yaml:"tag,omitempty" json:"tag,omitempty"`
	PathPrefix string        `yaml:"path_prefix,omitempty" json:"path_prefix,omitempty"`
	MinCount   int           `yaml:"min_count,omitempty" json:"min_count,omitempty"`
	Window     time.Duration `yaml:"window,omitempty" json:"window,omitempty"`
}

// UnmarshalYAML accepts duration fields in time.ParseDuration form ("10m").
func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Kind       ConditionKind `yaml:"kind"`
		Weight     float64       `yaml:"weight"`
		MaxGap     string        `yaml:"max_gap"`
		Tag        string        `yaml:"tag"`
		PathPrefix string        `yaml:"path_prefix"`
		MinCount   int           `yaml:"min_count"`
		Window     string        `yaml:"window"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	c.Kind = raw.Kind
	c.Weight = raw.Weight
	c.Tag = raw.Tag
	c.PathPrefix = raw.PathPrefix
	c.MinCount = raw.MinCount

	var err error
	if c.MaxGap, err = parseDuration(raw.MaxGap); err != nil {
		return fmt.Errorf("condition max_gap: %w", err)
	}
	if c.Window, err = parseDuration(raw.Window); err != nil {
		return fmt.Errorf("condition window: %w", err)
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// GroupingRule assigns events to a unit type when the weighted sum of its
// matching conditions reaches Confidence. Rules are data, not code: a rule
// set can be loaded from a yaml file and swapped per call.
type GroupingRule struct {
	Name       string         `yaml:"name" json:"name"`
	Unit       event.UnitType `yaml:"unit" json:"unit"`
	Priority   int            `yaml:"priority" json:"priority"`
	Confidence float64        `yaml:"confidence" json:"confidence"`
	Conditions []Condition    `yaml:"conditions" json:"conditions"`
}

// Validate checks the rule's shape.
func (r *GroupingRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("grouping rule: name is required")
	}
	if r.Unit == "" {
		return fmt.Errorf("grouping rule %s: unit is required", r.Name)
	}
	if r.Confidence <= 0 || r.Confidence > 1 {
		return fmt.Errorf("grouping rule %s: confidence must be in (0,1]", r.Name)
	}
	if len(r.Conditions) == 0 {
		return fmt.Errorf("grouping rule %s: at least one condition is required", r.Name)
	}
	for i, c := range r.Conditions {
		switch c.Kind {
		case ConditionTemporal, ConditionSemantic, ConditionStructural, ConditionFrequency:
		default:
			return fmt.Errorf("grouping rule %s: condition %d has unknown kind %q", r.Name, i, c.Kind)
		}
		if c.Weight <= 0 {
			return fmt.Errorf("grouping rule %s: condition %d needs a positive weight", r.Name, i)
		}
	}
	return nil
}

// RuleSet is an ordered collection of grouping rules.
type RuleSet []GroupingRule

// Validate checks every rule in the set.
func (rs RuleSet) Validate() error {
	for i := range rs {
		if err := rs[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Sorted returns a copy ordered by descending priority. Ties keep the
// declared order.
func (rs RuleSet) Sorted() RuleSet {
	out := make(RuleSet, len(rs))
	copy(out, rs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// DefaultRuleSet returns the built-in generic rule pass: a single
// coarse task rule that claims tightly-spaced, semantically tagged work
// before the specialized detectors run.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		{
			Name:       "focused-task",
			Unit:       event.UnitTask,
			Priority:   100,
			Confidence: 0.75,
			Conditions: []Condition{
				{Kind: ConditionTemporal, Weight: 0.4, MaxGap: 10 * time.Minute},
				{Kind: ConditionSemantic, Weight: 0.4, Tag: "feature"},
				{Kind: ConditionFrequency, Weight: 0.2, MinCount: 3, Window: 15 * time.Minute},
			},
		},
	}
}
