// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package deviceid

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetIsStableAcrossReads(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		kind string
		path string
	}{
		{"memory", ""},
		{"file", filepath.Join(dir, "file", "device.json")},
		{"badger", filepath.Join(dir, "badger")},
		{"sqlite", filepath.Join(dir, "device.db")},
	}

	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			store, err := Open(tc.kind, tc.path)
			require.NoError(t, err)
			defer store.Close()

			first, err := store.Get(context.Background())
			require.NoError(t, err)
			require.NotEmpty(t, first)

			second, err := store.Get(context.Background())
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestStore_FileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")

	s1, err := Open("file", path)
	require.NoError(t, err)
	id1, err := s1.Get(context.Background())
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open("file", path)
	require.NoError(t, err)
	id2, err := s2.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
}

func TestStore_RegeneratesAfterClear(t *testing.T) {
	backend := NewMemoryBackend()
	n := 0
	store := New(backend, WithGenerator(func() string {
		n++
		return fmt.Sprintf("device-%d", n)
	}))

	id, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "device-1", id)

	backend.Clear()

	id, err = store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "device-2", id)
}

func TestStore_ConcurrentFirstAccessCreatesOnce(t *testing.T) {
	var created atomic.Int32
	store := New(NewMemoryBackend(), WithGenerator(func() string {
		return fmt.Sprintf("device-%d", created.Add(1))
	}))

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := store.Get(context.Background())
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

type failingBackend struct{ *MemoryBackend }

func (f *failingBackend) Save(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestStore_SaveFailureSurfaces(t *testing.T) {
	store := New(&failingBackend{MemoryBackend: NewMemoryBackend()})
	_, err := store.Get(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("floppy", "")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
