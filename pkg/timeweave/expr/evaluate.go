// Package expr provides the small boolean condition language used by the
// declarative validation rules in the spec package.
//
// Conditions compare dotted field paths of an event against literals:
//
//	type == "git_commit"
//	payload.lines_deleted > 100 and source != "system"
//	not (payload.branch contains "wip")
package expr

import (
	"strings"
)

// Evaluator evaluates boolean condition expressions against a flattened
// event view.
type Evaluator struct{}

// New creates an Evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

// Eval evaluates expr against vars using a fresh evaluator.
func Eval(expr string, vars map[string]any) (bool, error) {
	return New().Evaluate(expr, vars)
}

// Evaluate evaluates a boolean expression against the provided variables.
// Supports: ==, !=, <, >, <=, >=, contains, exists, and, or, not, !.
func (e *Evaluator) Evaluate(expr string, vars map[string]any) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return false, nil
	}

	// Parenthesized sub-expression covering the whole string.
	if strings.HasPrefix(expr, "(") && strings.HasSuffix(expr, ")") && balanced(expr[1:len(expr)-1]) {
		return e.Evaluate(expr[1:len(expr)-1], vars)
	}

	// Negation prefixes.
	if strings.HasPrefix(expr, "not ") {
		result, err := e.Evaluate(strings.TrimPrefix(expr, "not "), vars)
		return !result, err
	}
	if strings.HasPrefix(expr, "!") && !strings.HasPrefix(expr, "!=") {
		result, err := e.Evaluate(strings.TrimPrefix(expr, "!"), vars)
		return !result, err
	}

	// Conjunctions, split on the first top-level connective.
	if left, right, ok := splitConnective(expr, " and "); ok {
		l, err := e.Evaluate(left, vars)
		if err != nil {
			return false, err
		}
		r, err := e.Evaluate(right, vars)
		if err != nil {
			return false, err
		}
		return l && r, nil
	}
	if left, right, ok := splitConnective(expr, " or "); ok {
		l, err := e.Evaluate(left, vars)
		if err != nil {
			return false, err
		}
		r, err := e.Evaluate(right, vars)
		if err != nil {
			return false, err
		}
		return l || r, nil
	}

	// "exists path" predicate.
	if strings.HasPrefix(expr, "exists ") {
		_, ok := Lookup(strings.TrimSpace(strings.TrimPrefix(expr, "exists ")), vars)
		return ok, nil
	}

	// Binary operators, longest first to avoid partial matches.
	for _, op := range []string{"==", "!=", ">=", "<=", ">", "<", " contains "} {
		if parts := strings.SplitN(expr, op, 2); len(parts) == 2 {
			left := Resolve(strings.TrimSpace(parts[0]), vars)
			right := Resolve(strings.TrimSpace(parts[1]), vars)
			return Compare(left, right, strings.TrimSpace(op))
		}
	}

	// Bare value: truthiness.
	return IsTruthy(Resolve(expr, vars)), nil
}

// splitConnective splits expr on the first occurrence of sep that is not
// inside parentheses or quotes.
func splitConnective(expr, sep string) (string, string, bool) {
	depth := 0
	inQuote := byte(0)
	for i := 0; i+len(sep) <= len(expr); i++ {
		c := expr[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
		case c == '\'' || c == '"':
			inQuote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case depth == 0 && expr[i:i+len(sep)] == sep:
			return expr[:i], expr[i+len(sep):], true
		}
	}
	return "", "", false
}

// balanced reports whether parentheses are balanced in s.
func balanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
