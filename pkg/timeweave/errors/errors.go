// Package errors provides the error taxonomy shared across timeweave.
//
// Two channels are kept deliberately separate:
//   - per-item findings (a single bad event in a batch) are collected into
//     reports and never abort the surrounding call
//   - whole-call failures (empty input, inverted bounds, checksum mismatch)
//     are returned as typed errors from the call itself
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for whole-call failures.
var (
	// ErrEmptyTimeline indicates an encode or decode over zero events.
	ErrEmptyTimeline = errors.New("timeline has no events")

	// ErrMissingBounds indicates a timeline without start/end timestamps.
	ErrMissingBounds = errors.New("timeline time bounds are missing")

	// ErrInvertedBounds indicates end before start.
	ErrInvertedBounds = errors.New("timeline time bounds are inverted")
)

// InvalidInputError indicates a structurally malformed event that was never
// encoded.
type InvalidInputError struct {
	EventID string
	Reason  string
}

// Error implements the error interface.
func (e *InvalidInputError) Error() string {
	if e.EventID != "" {
		return fmt.Sprintf("invalid input for event %s: %s", e.EventID, e.Reason)
	}
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// CorruptionError indicates a checksum mismatch on a persisted blob or
// envelope. It is always fatal for the affected blob and never auto-corrected.
type CorruptionError struct {
	Expected string
	Actual   string
	Context  string
}

// Error implements the error interface.
func (e *CorruptionError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("corruption detected in %s: checksum %s != %s", e.Context, e.Actual, e.Expected)
	}
	return fmt.Sprintf("corruption detected: checksum %s != %s", e.Actual, e.Expected)
}

// UnsupportedVersionError indicates a persisted version whose major
// component could not be migrated to the current schema.
type UnsupportedVersionError struct {
	Found   string
	Current string
}

// Error implements the error interface.
func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported version %s (current %s)", e.Found, e.Current)
}

// EncodingError wraps a failure in the serialize/compress/encrypt chain.
type EncodingError struct {
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding failed at %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *EncodingError) Unwrap() error { return e.Err }

// DecodingError wraps a failure in the decrypt/decompress/deserialize chain.
type DecodingError struct {
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *DecodingError) Error() string {
	return fmt.Sprintf("decoding failed at %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodingError) Unwrap() error { return e.Err }

// IsCorruption reports whether err is (or wraps) a CorruptionError.
func IsCorruption(err error) bool {
	var ce *CorruptionError
	return errors.As(err, &ce)
}

// IsInvalidInput reports whether err is (or wraps) an InvalidInputError.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}
