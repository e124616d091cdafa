package expr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Lookup resolves a dotted path ("payload.lines_deleted") through nested
// maps. The second return reports whether the full path existed.
func Lookup(path string, vars map[string]any) (any, bool) {
	if vars == nil {
		return nil, false
	}
	cur := any(vars)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Resolve resolves a token to a value: quoted strings, booleans, null,
// numbers, then dotted variable lookups, falling back to the bare string.
func Resolve(s string, vars map[string]any) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if (strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'")) ||
		(strings.HasPrefix(s, "\"") && strings.HasSuffix(s, "\"")) {
		if len(s) < 2 {
			return ""
		}
		return s[1 : len(s)-1]
	}

	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	case "null", "nil":
		return nil
	}

	// json.Number gives precise integer/float discrimination.
	var num json.Number
	if err := json.Unmarshal([]byte(s), &num); err == nil {
		if i, err := num.Int64(); err == nil {
			return i
		}
		if f, err := num.Float64(); err == nil {
			return f
		}
	}

	if val, ok := Lookup(s, vars); ok {
		return val
	}

	return s
}

// IsTruthy returns whether a value is truthy: nil is false, bools return
// their value, empty strings and zero numbers are false, everything else
// is true.
func IsTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case int32:
		return val != 0
	case float64:
		return val != 0
	case float32:
		return val != 0
	default:
		return true
	}
}

// ToFloat64 converts a value to float64 for numeric comparison.
// Returns 0 for values that cannot be converted.
func ToFloat64(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case json.Number:
		f, _ := val.Float64()
		return f
	case string:
		var f float64
		_, _ = fmt.Sscanf(val, "%f", &f)
		return f
	default:
		return 0
	}
}
