// Package store provides persistent storage for compressed timeline blobs.
package store

import (
	"errors"

	"github.com/Soynido/timeweave/pkg/timeweave/event"
)

// Store persists timeline blobs alongside their metadata.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a blob under the timeline id.
	// Overwrites if a blob with the same id already exists.
	Save(id string, blob []byte, meta *event.Metadata) error

	// Load retrieves a blob and its metadata.
	// Returns ErrNotFound if the timeline doesn't exist.
	Load(id string) ([]byte, *event.Metadata, error)

	// Meta retrieves metadata without loading the blob.
	// Returns ErrNotFound if the timeline doesn't exist.
	Meta(id string) (*event.Metadata, error)

	// List returns metadata for all stored timelines, ordered by save time.
	// Returns empty slice (not error) if the store is empty.
	List() ([]event.Metadata, error)

	// Delete removes a stored timeline.
	// Returns nil if the timeline doesn't exist.
	Delete(id string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a timeline doesn't exist in the store.
	ErrNotFound = errors.New("timeline not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("timeline store closed")
)
