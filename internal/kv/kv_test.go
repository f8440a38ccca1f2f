// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("greeting", []byte("hello")))
	got, err := s.Get("greeting")
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestPutReplaces(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("k", []byte("v1")))
	require.NoError(t, s.Put("k", []byte("v2")))
	got, err := s.Get("k")
	require.NoError(t, err)
	require.Equal(t, "v2", string(got))
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get("absent")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("k", []byte("v")))
	require.NoError(t, s.Delete("k"))
	_, err := s.Get("k")
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is fine.
	require.NoError(t, s.Delete("never-existed"))
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put("k", []byte("survives")))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.Get("k")
	require.NoError(t, err)
	require.Equal(t, "survives", string(got))
}

// TestConcurrentPutGet exercises concurrent readers and writers against the
// same store.
func TestConcurrentPutGet(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("shared", []byte("base")))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Put("shared", []byte("update"))
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Get("shared")
		}()
	}
	wg.Wait()

	got, err := s.Get("shared")
	require.NoError(t, err)
	require.NotEmpty(t, got)
}
