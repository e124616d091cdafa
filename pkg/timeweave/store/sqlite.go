package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/Soynido/timeweave/pkg/timeweave/event"
)

// SQLiteStore persists timeline blobs to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite blob store.
// The path should be a file path (e.g., "./timelines.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS timelines (
			id TEXT PRIMARY KEY,
			saved_at TEXT NOT NULL,
			metadata TEXT NOT NULL,
			blob BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_timelines_saved_at
		ON timelines(saved_at)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(id string, blob []byte, meta *event.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	m := event.Metadata{}
	if meta != nil {
		m = *meta
	}
	m.ID = id
	metaJSON, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO timelines (id, saved_at, metadata, blob)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			saved_at = excluded.saved_at,
			metadata = excluded.metadata,
			blob = excluded.blob
	`, id, time.Now().UTC().Format(time.RFC3339Nano), string(metaJSON), blob)

	if err != nil {
		return fmt.Errorf("save timeline: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(id string) ([]byte, *event.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, nil, ErrStoreClosed
	}

	var blob []byte
	var metaJSON string
	err := s.db.QueryRow(`
		SELECT blob, metadata FROM timelines WHERE id = ?
	`, id).Scan(&blob, &metaJSON)

	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load timeline: %w", err)
	}

	var meta event.Metadata
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return blob, &meta, nil
}

// Meta implements Store.
func (s *SQLiteStore) Meta(id string) (*event.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var metaJSON string
	err := s.db.QueryRow(`
		SELECT metadata FROM timelines WHERE id = ?
	`, id).Scan(&metaJSON)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}

	var meta event.Metadata
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &meta, nil
}

// List implements Store.
func (s *SQLiteStore) List() ([]event.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT metadata FROM timelines ORDER BY saved_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list timelines: %w", err)
	}
	defer rows.Close()

	var metas []event.Metadata
	for rows.Next() {
		var metaJSON string
		if err := rows.Scan(&metaJSON); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		var meta event.Metadata
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		metas = append(metas, meta)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timelines: %w", err)
	}

	return metas, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`DELETE FROM timelines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete timeline: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
