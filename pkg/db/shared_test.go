package db

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedOpensOnce(t *testing.T) {
	t.Cleanup(func() { CloseShared() })
	path := filepath.Join(t.TempDir(), "shared.db")

	const n = 8
	stores := make([]*Store, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := Shared(path, 0)
			if err != nil {
				t.Errorf("shared: %v", err)
				return
			}
			stores[i] = s
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Same(t, stores[0], stores[i])
	}
	assert.Equal(t, path, SharedPath())

	// Later callers get the existing store whatever path they pass.
	other, err := Shared(filepath.Join(t.TempDir(), "other.db"), 0)
	require.NoError(t, err)
	require.Same(t, stores[0], other)
}

func TestCloseSharedResets(t *testing.T) {
	t.Cleanup(func() { CloseShared() })
	dir := t.TempDir()

	first, err := Shared(filepath.Join(dir, "a.db"), 0)
	require.NoError(t, err)
	require.NoError(t, first.Insert(1, "2", "a"))
	require.NoError(t, CloseShared())
	assert.Empty(t, SharedPath())
	require.NoError(t, CloseShared())

	second, err := Shared(filepath.Join(dir, "b.db"), 0)
	require.NoError(t, err)
	require.NotSame(t, first, second)
	n, err := second.Count(1)
	require.NoError(t, err)
	assert.Zero(t, n)
}
