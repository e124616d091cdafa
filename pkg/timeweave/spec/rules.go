package spec

import (
	"fmt"
	"time"

	twerrors "github.com/Soynido/timeweave/pkg/timeweave/errors"
	"github.com/Soynido/timeweave/pkg/timeweave/event"
	"github.com/Soynido/timeweave/pkg/timeweave/expr"
)

// RuleAction is what a matching rule does to the message under validation.
type RuleAction string

const (
	// ActionReject files an error finding.
	ActionReject RuleAction = "reject"

	// ActionWarn files a warning finding.
	ActionWarn RuleAction = "warn"

	// ActionTransform overwrites Field with Value, recording a
	// transformation when the value actually changes.
	ActionTransform RuleAction = "transform"

	// ActionDefault sets Field to Value only when the field is absent.
	ActionDefault RuleAction = "default"

	// ActionEscalate files a critical finding.
	ActionEscalate RuleAction = "escalate"
)

// Rule is a declarative condition -> action pair evaluated against a
// flattened view of the message.
type Rule struct {
	Name   string
	When   string
	Action RuleAction
	Field  string
	Value  any

	// Message overrides the finding text for reject/warn/escalate.
	Message string
}

// Validate checks the rule's shape.
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule: name is required")
	}
	if r.When == "" {
		return fmt.Errorf("rule %s: condition is required", r.Name)
	}
	switch r.Action {
	case ActionReject, ActionWarn, ActionEscalate:
	case ActionTransform, ActionDefault:
		if r.Field == "" {
			return fmt.Errorf("rule %s: %s needs a target field", r.Name, r.Action)
		}
	default:
		return fmt.Errorf("rule %s: unknown action %q", r.Name, r.Action)
	}
	return nil
}

// applyRules runs the declarative rules against msg, mutating the payload
// for transform/default actions and filing findings for the rest.
func applyRules(rules []Rule, msg *event.Message, result *Result) {
	if len(rules) == 0 {
		return
	}
	vars := flatten(msg)

	for _, rule := range rules {
		matched, err := expr.Eval(rule.When, vars)
		if err != nil {
			result.add(Finding{
				Code:     "RULE_ERROR",
				Message:  fmt.Sprintf("rule %s: %v", rule.Name, err),
				Severity: twerrors.SeverityWarning,
			})
			continue
		}
		if !matched {
			continue
		}

		switch rule.Action {
		case ActionReject:
			result.add(Finding{
				Code:     "RULE_REJECTED",
				Message:  ruleMessage(rule),
				Severity: twerrors.SeverityError,
			})
		case ActionWarn:
			result.add(Finding{
				Code:     "RULE_WARNING",
				Message:  ruleMessage(rule),
				Severity: twerrors.SeverityWarning,
			})
		case ActionEscalate:
			result.add(Finding{
				Code:     "RULE_ESCALATED",
				Message:  ruleMessage(rule),
				Severity: twerrors.SeverityCritical,
			})
		case ActionTransform:
			if msg.Payload == nil {
				msg.Payload = make(map[string]any)
			}
			if cur, ok := msg.Payload[rule.Field]; !ok || fmt.Sprintf("%v", cur) != fmt.Sprintf("%v", rule.Value) {
				msg.Payload[rule.Field] = rule.Value
				result.Transformations = append(result.Transformations, Transformation{
					Field:  rule.Field,
					Action: "transform",
					Value:  rule.Value,
				})
			}
		case ActionDefault:
			if msg.Payload == nil {
				msg.Payload = make(map[string]any)
			}
			if _, ok := msg.Payload[rule.Field]; !ok {
				msg.Payload[rule.Field] = rule.Value
				result.Transformations = append(result.Transformations, Transformation{
					Field:  rule.Field,
					Action: "default",
					Value:  rule.Value,
				})
			}
		}
	}
}

func ruleMessage(r Rule) string {
	if r.Message != "" {
		return r.Message
	}
	return fmt.Sprintf("rule %s matched: %s", r.Name, r.When)
}

// flatten builds the variable view rules evaluate against.
func flatten(msg *event.Message) map[string]any {
	vars := map[string]any{
		"id":             msg.ID,
		"type":           string(msg.Type),
		"source":         string(msg.Source),
		"version":        msg.Version,
		"timestamp_ms":   msg.Timestamp.UnixMilli(),
		"hour":           msg.Timestamp.Hour(),
		"correlation_id": msg.CorrelationID,
		"causation_id":   msg.CausationID,
	}
	payload := make(map[string]any, len(msg.Payload))
	for k, v := range msg.Payload {
		if t, ok := v.(time.Time); ok {
			payload[k] = t.Format(time.RFC3339Nano)
			continue
		}
		payload[k] = v
	}
	vars["payload"] = payload
	return vars
}
