package expr

import (
	"fmt"
	"strings"
)

// Compare compares two resolved values using the given operator.
// Equality uses string comparison; ordering uses numeric comparison.
func Compare(left, right any, op string) (bool, error) {
	switch op {
	case "==":
		return fmt.Sprintf("%v", left) == fmt.Sprintf("%v", right), nil
	case "!=":
		return fmt.Sprintf("%v", left) != fmt.Sprintf("%v", right), nil
	case "<":
		return ToFloat64(left) < ToFloat64(right), nil
	case ">":
		return ToFloat64(left) > ToFloat64(right), nil
	case "<=":
		return ToFloat64(left) <= ToFloat64(right), nil
	case ">=":
		return ToFloat64(left) >= ToFloat64(right), nil
	case "contains":
		return strings.Contains(fmt.Sprintf("%v", left), fmt.Sprintf("%v", right)), nil
	default:
		return false, fmt.Errorf("unknown operator: %s", op)
	}
}
