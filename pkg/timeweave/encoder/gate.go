package encoder

import (
	twerrors "github.com/Soynido/timeweave/pkg/timeweave/errors"
	"github.com/Soynido/timeweave/pkg/timeweave/event"
	"github.com/Soynido/timeweave/pkg/timeweave/spec"
)

// specGate wraps a Spec and a batch context into the pre-normalization
// validation gate. Findings below error severity pass through; the gate
// only turns fatal findings into drops.
type specGate struct {
	spec *spec.Spec
	bctx *spec.BatchContext
}

func newSpecGate(s *spec.Spec) *specGate {
	return &specGate{spec: s, bctx: spec.NewBatchContext()}
}

func (g *specGate) check(msg *event.Message) error {
	result := g.spec.ValidateMessage(msg, g.bctx)
	if result.Valid {
		return nil
	}
	reason := "validation failed"
	if len(result.Errors) > 0 {
		reason = result.Errors[0].String()
	}
	return &twerrors.InvalidInputError{EventID: msg.ID, Reason: reason}
}
