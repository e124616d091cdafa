package codec

import "sync/atomic"

// counters is the codec's process-wide cumulative state. All fields are
// atomic so concurrent encode/decode calls stay consistent.
type counters struct {
	messagesEncoded    atomic.Int64
	messagesDecoded    atomic.Int64
	bytesIn            atomic.Int64
	bytesOut           atomic.Int64
	errors             atomic.Int64
	corruptionDetected atomic.Int64
	versionMismatches  atomic.Int64
	deduplicated       atomic.Int64
}

// Stats is a point-in-time snapshot of the codec counters. It gives an
// always-available postmortem signal even when per-item errors were
// swallowed by a batch call.
type Stats struct {
	MessagesEncoded    int64 `json:"messages_encoded"`
	MessagesDecoded    int64 `json:"messages_decoded"`
	BytesIn            int64 `json:"bytes_in"`
	BytesOut           int64 `json:"bytes_out"`
	Errors             int64 `json:"errors"`
	CorruptionDetected int64 `json:"corruption_detected"`
	VersionMismatches  int64 `json:"version_mismatches"`
	Deduplicated       int64 `json:"deduplicated"`
}

// Stats returns a snapshot of the running counters.
func (c *Codec) Stats() Stats {
	return Stats{
		MessagesEncoded:    c.stats.messagesEncoded.Load(),
		MessagesDecoded:    c.stats.messagesDecoded.Load(),
		BytesIn:            c.stats.bytesIn.Load(),
		BytesOut:           c.stats.bytesOut.Load(),
		Errors:             c.stats.errors.Load(),
		CorruptionDetected: c.stats.corruptionDetected.Load(),
		VersionMismatches:  c.stats.versionMismatches.Load(),
		Deduplicated:       c.stats.deduplicated.Load(),
	}
}

// ResetStats zeroes the running counters.
func (c *Codec) ResetStats() {
	c.stats.messagesEncoded.Store(0)
	c.stats.messagesDecoded.Store(0)
	c.stats.bytesIn.Store(0)
	c.stats.bytesOut.Store(0)
	c.stats.errors.Store(0)
	c.stats.corruptionDetected.Store(0)
	c.stats.versionMismatches.Store(0)
	c.stats.deduplicated.Store(0)
}
