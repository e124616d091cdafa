package store

import (
	"sort"
	"sync"
	"time"

	"github.com/Soynido/timeweave/pkg/timeweave/event"
)

// MemoryStore is an in-memory blob store for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]storedBlob
	closed bool
}

// storedBlob holds blob bytes with metadata for List().
type storedBlob struct {
	blob    []byte
	meta    event.Metadata
	savedAt time.Time
}

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]storedBlob),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(id string, blob []byte, meta *event.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	// Copy blob to avoid retaining caller's slice
	stored := make([]byte, len(blob))
	copy(stored, blob)

	entry := storedBlob{blob: stored, savedAt: time.Now().UTC()}
	if meta != nil {
		entry.meta = *meta
	}
	entry.meta.ID = id
	m.data[id] = entry

	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(id string) ([]byte, *event.Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, nil, ErrStoreClosed
	}

	entry, ok := m.data[id]
	if !ok {
		return nil, nil, ErrNotFound
	}

	// Return copies to prevent modification
	blob := make([]byte, len(entry.blob))
	copy(blob, entry.blob)
	meta := entry.meta
	return blob, &meta, nil
}

// Meta implements Store.
func (m *MemoryStore) Meta(id string) (*event.Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	entry, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	meta := entry.meta
	return &meta, nil
}

// List implements Store.
func (m *MemoryStore) List() ([]event.Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	type row struct {
		meta    event.Metadata
		savedAt time.Time
	}
	rows := make([]row, 0, len(m.data))
	for _, entry := range m.data {
		rows = append(rows, row{meta: entry.meta, savedAt: entry.savedAt})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].savedAt.Equal(rows[j].savedAt) {
			return rows[i].meta.ID < rows[j].meta.ID
		}
		return rows[i].savedAt.Before(rows[j].savedAt)
	})

	metas := make([]event.Metadata, len(rows))
	for i, r := range rows {
		metas[i] = r.meta
	}
	return metas, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, id)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}

// Len returns the number of stored timelines. Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data)
}
