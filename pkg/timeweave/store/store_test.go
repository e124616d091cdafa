package store_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Soynido/timeweave/pkg/timeweave/event"
	"github.com/Soynido/timeweave/pkg/timeweave/store"
)

// storeFactory builds a fresh store for the shared conformance tests.
type storeFactory func(t *testing.T) store.Store

func testStores(t *testing.T, run func(t *testing.T, newStore storeFactory)) {
	t.Run("memory", func(t *testing.T) {
		run(t, func(t *testing.T) store.Store {
			return store.NewMemoryStore()
		})
	})
	t.Run("sqlite", func(t *testing.T) {
		run(t, func(t *testing.T) store.Store {
			s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "timelines.db"))
			require.NoError(t, err)
			return s
		})
	})
}

func sampleMeta(id string) *event.Metadata {
	return &event.Metadata{
		ID:            id,
		Version:       event.TimelineVersion,
		Start:         time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC),
		End:           time.Date(2026, 3, 16, 12, 0, 0, 0, time.UTC),
		EventCount:    42,
		SourceSystems: []string{"file_watcher", "git_listener"},
		Algorithm:     "zstd",
		Checksum:      "deadbeef",
	}
}

func TestStore_SaveLoad(t *testing.T) {
	testStores(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		defer s.Close()

		blob := []byte("compressed timeline bytes")
		require.NoError(t, s.Save("tl-1", blob, sampleMeta("tl-1")))

		got, meta, err := s.Load("tl-1")
		require.NoError(t, err)
		assert.Equal(t, blob, got)
		assert.Equal(t, "tl-1", meta.ID)
		assert.Equal(t, 42, meta.EventCount)
		assert.Equal(t, "zstd", meta.Algorithm)
		assert.Equal(t, []string{"file_watcher", "git_listener"}, meta.SourceSystems)
		assert.True(t, meta.Start.Equal(time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)))
	})
}

func TestStore_LoadMissing(t *testing.T) {
	testStores(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		defer s.Close()

		_, _, err := s.Load("nope")
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.Meta("nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestStore_SaveOverwrites(t *testing.T) {
	testStores(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		defer s.Close()

		require.NoError(t, s.Save("tl-1", []byte("v1"), sampleMeta("tl-1")))

		meta := sampleMeta("tl-1")
		meta.EventCount = 99
		require.NoError(t, s.Save("tl-1", []byte("v2"), meta))

		blob, got, err := s.Load("tl-1")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), blob)
		assert.Equal(t, 99, got.EventCount)

		metas, err := s.List()
		require.NoError(t, err)
		assert.Len(t, metas, 1)
	})
}

func TestStore_Meta(t *testing.T) {
	testStores(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		defer s.Close()

		require.NoError(t, s.Save("tl-1", []byte("blob"), sampleMeta("tl-1")))

		meta, err := s.Meta("tl-1")
		require.NoError(t, err)
		assert.Equal(t, "tl-1", meta.ID)
		assert.Equal(t, "deadbeef", meta.Checksum)
	})
}

func TestStore_List(t *testing.T) {
	testStores(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		defer s.Close()

		metas, err := s.List()
		require.NoError(t, err)
		assert.Empty(t, metas)

		require.NoError(t, s.Save("tl-1", []byte("a"), sampleMeta("tl-1")))
		require.NoError(t, s.Save("tl-2", []byte("b"), sampleMeta("tl-2")))
		require.NoError(t, s.Save("tl-3", []byte("c"), sampleMeta("tl-3")))

		metas, err = s.List()
		require.NoError(t, err)
		require.Len(t, metas, 3)

		ids := make([]string, len(metas))
		for i, m := range metas {
			ids[i] = m.ID
		}
		assert.ElementsMatch(t, []string{"tl-1", "tl-2", "tl-3"}, ids)
	})
}

func TestStore_Delete(t *testing.T) {
	testStores(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		defer s.Close()

		require.NoError(t, s.Save("tl-1", []byte("a"), sampleMeta("tl-1")))
		require.NoError(t, s.Delete("tl-1"))

		_, _, err := s.Load("tl-1")
		assert.ErrorIs(t, err, store.ErrNotFound)

		// Deleting a missing timeline is not an error.
		require.NoError(t, s.Delete("tl-1"))
	})
}

func TestStore_Closed(t *testing.T) {
	testStores(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		require.NoError(t, s.Close())

		assert.ErrorIs(t, s.Save("tl-1", []byte("a"), sampleMeta("tl-1")), store.ErrStoreClosed)
		_, _, err := s.Load("tl-1")
		assert.ErrorIs(t, err, store.ErrStoreClosed)
		_, err = s.Meta("tl-1")
		assert.ErrorIs(t, err, store.ErrStoreClosed)
		_, err = s.List()
		assert.ErrorIs(t, err, store.ErrStoreClosed)
		assert.ErrorIs(t, s.Delete("tl-1"), store.ErrStoreClosed)
	})
}

func TestStore_NilMetadata(t *testing.T) {
	testStores(t, func(t *testing.T, newStore storeFactory) {
		s := newStore(t)
		defer s.Close()

		require.NoError(t, s.Save("tl-1", []byte("a"), nil))
		meta, err := s.Meta("tl-1")
		require.NoError(t, err)
		assert.Equal(t, "tl-1", meta.ID)
	})
}

func TestMemoryStore_Len(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()

	assert.Equal(t, 0, s.Len())
	require.NoError(t, s.Save("tl-1", []byte("a"), sampleMeta("tl-1")))
	require.NoError(t, s.Save("tl-2", []byte("b"), sampleMeta("tl-2")))
	assert.Equal(t, 2, s.Len())
	require.NoError(t, s.Delete("tl-1"))
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_CopiesBlob(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()

	blob := []byte("original")
	require.NoError(t, s.Save("tl-1", blob, sampleMeta("tl-1")))
	blob[0] = 'X'

	got, _, err := s.Load("tl-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()

	const numGoroutines = 50
	const numOps = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()

			key := "tl-" + string(rune('a'+id%26))
			for j := 0; j < numOps; j++ {
				switch j % 4 {
				case 0, 1:
					_ = s.Save(key, []byte("data"), sampleMeta(key))
				case 2:
					_, _, _ = s.Load(key)
				case 3:
					_, _ = s.List()
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timelines.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save("tl-1", []byte("persisted"), sampleMeta("tl-1")))
	require.NoError(t, s.Close())

	reopened, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	blob, meta, err := reopened.Load("tl-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), blob)
	assert.Equal(t, 42, meta.EventCount)
}
