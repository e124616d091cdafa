package codec

import (
	"context"

	"github.com/Soynido/timeweave/pkg/timeweave/event"
	"github.com/Soynido/timeweave/pkg/timeweave/observability"
)

// BatchResult pairs the surviving items of a batch call with the per-item
// failures it swallowed. Batch calls never abort on the first error: a
// failing item is logged, counted and skipped while the rest of its chunk
// proceeds.
type BatchResult[T any] struct {
	Items  []T
	Failed []BatchFailure
}

// BatchFailure records one skipped item.
type BatchFailure struct {
	Index int
	Err   error
}

// EncodeBatch encodes messages in chunks of the configured size. Outputs
// keep the input order; failed items are reported, not returned.
func (c *Codec) EncodeBatch(msgs []*event.Message) BatchResult[*Envelope] {
	result := BatchResult[*Envelope]{Items: make([]*Envelope, 0, len(msgs))}

	for start := 0; start < len(msgs); start += c.cfg.ChunkSize {
		end := min(start+c.cfg.ChunkSize, len(msgs))
		for i, msg := range msgs[start:end] {
			env, err := c.EncodeMessage(msg)
			if err != nil {
				idx := start + i
				id := ""
				if msg != nil {
					id = msg.ID
				}
				observability.LogEventDropped(c.logger, id, err)
				result.Failed = append(result.Failed, BatchFailure{Index: idx, Err: err})
				continue
			}
			result.Items = append(result.Items, env)
		}
	}
	return result
}

// DecodeBatch decodes envelopes in chunks with the same partial-failure
// policy as EncodeBatch.
func (c *Codec) DecodeBatch(envs []*Envelope) BatchResult[*event.Message] {
	result := BatchResult[*event.Message]{Items: make([]*event.Message, 0, len(envs))}

	for start := 0; start < len(envs); start += c.cfg.ChunkSize {
		end := min(start+c.cfg.ChunkSize, len(envs))
		for i, env := range envs[start:end] {
			msg, err := c.DecodeMessage(env)
			if err != nil {
				observability.LogEventDropped(c.logger, "", err)
				result.Failed = append(result.Failed, BatchFailure{Index: start + i, Err: err})
				continue
			}
			result.Items = append(result.Items, msg)
		}
	}
	return result
}

// EncodeStream encodes messages from in until it closes or ctx is
// cancelled. Failed items are logged and skipped; the returned channel is
// closed when the input drains.
func (c *Codec) EncodeStream(ctx context.Context, in <-chan *event.Message) <-chan *Envelope {
	out := make(chan *Envelope)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				env, err := c.EncodeMessage(msg)
				if err != nil {
					id := ""
					if msg != nil {
						id = msg.ID
					}
					observability.LogEventDropped(c.logger, id, err)
					continue
				}
				select {
				case <-ctx.Done():
					return
				case out <- env:
				}
			}
		}
	}()
	return out
}

// DecodeStream decodes envelopes from in with the same contract as
// EncodeStream.
func (c *Codec) DecodeStream(ctx context.Context, in <-chan *Envelope) <-chan *event.Message {
	out := make(chan *event.Message)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case env, ok := <-in:
				if !ok {
					return
				}
				msg, err := c.DecodeMessage(env)
				if err != nil {
					observability.LogEventDropped(c.logger, "", err)
					continue
				}
				select {
				case <-ctx.Done():
					return
				case out <- msg:
				}
			}
		}
	}()
	return out
}
