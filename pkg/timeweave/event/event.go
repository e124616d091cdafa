// Package event defines the canonical shapes flowing through timeweave:
// raw messages from workspace collaborators, their normalized form, the
// cognitive units and anomalies derived from them, and the Timeline
// aggregate that packages a full pipeline run.
//
// Messages are immutable once created - any modification creates a new
// message. Normalized events are mutated in place only by the sequencing
// and grouping passes, and never after timeline assembly.
package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the message schema version stamped on new messages.
const SchemaVersion = "1.0.0"

// Message is an atomic, timestamped fact about workspace activity.
type Message struct {
	ID            string            `json:"id"`
	Type          Type              `json:"type"`
	Source        Source            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	Payload       map[string]any    `json:"payload"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	CausationID   string            `json:"causation_id,omitempty"`
	Version       string            `json:"version"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Validate performs the structural validity check. It does not inspect the
// payload; per-type payload rules belong to the spec package.
func (m *Message) Validate() error {
	if m == nil {
		return fmt.Errorf("message is nil")
	}
	if m.ID == "" {
		return fmt.Errorf("message id is required")
	}
	if m.Timestamp.IsZero() {
		return fmt.Errorf("message %s: timestamp is required", m.ID)
	}
	if !m.Type.Valid() {
		return fmt.Errorf("message %s: unknown type %q", m.ID, m.Type)
	}
	if !m.Source.Valid() {
		return fmt.Errorf("message %s: unknown source %q", m.ID, m.Source)
	}
	return nil
}

// Option configures message creation.
type Option func(*msgConfig)

type msgConfig struct {
	id            string
	correlationID string
	causationID   string
	timestamp     time.Time
	version       string
	metadata      map[string]string
}

// WithID sets a specific message ID (default: auto-generated UUID).
func WithID(id string) Option {
	return func(cfg *msgConfig) {
		cfg.id = id
	}
}

// WithCorrelationID sets the correlation ID linking related messages.
func WithCorrelationID(id string) Option {
	return func(cfg *msgConfig) {
		cfg.correlationID = id
	}
}

// WithCausationID sets the ID of the message that caused this one.
func WithCausationID(id string) Option {
	return func(cfg *msgConfig) {
		cfg.causationID = id
	}
}

// WithTimestamp sets a specific timestamp (default: time.Now()).
func WithTimestamp(t time.Time) Option {
	return func(cfg *msgConfig) {
		cfg.timestamp = t
	}
}

// WithVersion sets the schema version string.
func WithVersion(v string) Option {
	return func(cfg *msgConfig) {
		cfg.version = v
	}
}

// WithMetadata attaches free-form metadata.
func WithMetadata(md map[string]string) Option {
	return func(cfg *msgConfig) {
		cfg.metadata = md
	}
}

// New creates a message with the given type, source, and payload.
func New(typ Type, source Source, payload map[string]any, opts ...Option) *Message {
	cfg := &msgConfig{
		id:        uuid.New().String(),
		timestamp: time.Now(),
		version:   SchemaVersion,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	// If no correlation ID, use the message ID as the root.
	if cfg.correlationID == "" {
		cfg.correlationID = cfg.id
	}

	return &Message{
		ID:            cfg.id,
		Type:          typ,
		Source:        source,
		Timestamp:     cfg.timestamp,
		Payload:       payload,
		CorrelationID: cfg.correlationID,
		CausationID:   cfg.causationID,
		Version:       cfg.version,
		Metadata:      cfg.metadata,
	}
}

// NewFromParent creates a message caused by a parent message. It inherits
// the parent's correlation ID and sets the causation ID to the parent's ID.
func NewFromParent(parent *Message, typ Type, source Source, payload map[string]any, opts ...Option) *Message {
	parentOpts := []Option{
		WithCorrelationID(parent.CorrelationID),
		WithCausationID(parent.ID),
	}
	return New(typ, source, payload, append(parentOpts, opts...)...)
}
