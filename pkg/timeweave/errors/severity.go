package errors

// Severity grades a validation finding.
type Severity int

const (
	// SeverityInfo is purely informational.
	SeverityInfo Severity = iota

	// SeverityWarning is advisory; the message remains valid.
	SeverityWarning

	// SeverityError makes the validated message invalid.
	SeverityError

	// SeverityCritical makes the message invalid and short-circuits
	// further validation phases.
	SeverityCritical
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Fatal reports whether a finding at this severity invalidates its message.
func (s Severity) Fatal() bool {
	return s >= SeverityError
}
