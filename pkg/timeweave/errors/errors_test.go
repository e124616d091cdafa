package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	twerrors "github.com/Soynido/timeweave/pkg/timeweave/errors"
)

func TestCorruptionError(t *testing.T) {
	err := &twerrors.CorruptionError{
		Expected: "aaaa",
		Actual:   "bbbb",
		Context:  "timeline blob",
	}

	assert.Contains(t, err.Error(), "timeline blob")
	assert.Contains(t, err.Error(), "aaaa")
	assert.True(t, twerrors.IsCorruption(err))
	assert.False(t, twerrors.IsInvalidInput(err))
}

func TestIsCorruption_Wrapped(t *testing.T) {
	inner := &twerrors.CorruptionError{Expected: "x", Actual: "y"}
	wrapped := fmt.Errorf("load blob: %w", inner)

	assert.True(t, twerrors.IsCorruption(wrapped))
	assert.False(t, twerrors.IsCorruption(stderrors.New("unrelated")))
}

func TestInvalidInputError(t *testing.T) {
	err := &twerrors.InvalidInputError{EventID: "ev-1", Reason: "timestamp is required"}
	assert.Contains(t, err.Error(), "ev-1")
	assert.True(t, twerrors.IsInvalidInput(err))

	anon := &twerrors.InvalidInputError{Reason: "nil message"}
	assert.Contains(t, anon.Error(), "nil message")
}

func TestEncodingError_Unwrap(t *testing.T) {
	inner := stderrors.New("disk full")
	err := &twerrors.EncodingError{Stage: "compress", Err: inner}

	assert.Contains(t, err.Error(), "compress")
	assert.ErrorIs(t, err, inner)
}

func TestDecodingError_Unwrap(t *testing.T) {
	inner := stderrors.New("bad magic")
	err := &twerrors.DecodingError{Stage: "decompress", Err: inner}

	assert.Contains(t, err.Error(), "decompress")
	assert.ErrorIs(t, err, inner)
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, "info", twerrors.SeverityInfo.String())
	assert.Equal(t, "warning", twerrors.SeverityWarning.String())
	assert.Equal(t, "error", twerrors.SeverityError.String())
	assert.Equal(t, "critical", twerrors.SeverityCritical.String())

	assert.False(t, twerrors.SeverityInfo.Fatal())
	assert.False(t, twerrors.SeverityWarning.Fatal())
	assert.True(t, twerrors.SeverityError.Fatal())
	assert.True(t, twerrors.SeverityCritical.Fatal())
}
