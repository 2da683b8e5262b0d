package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStore(t *testing.T) {
	dir := t.TempDir()

	store, err := NewSnapshotStore(dir)
	require.NoError(t, err)

	_, err = store.Latest()
	assert.ErrorIs(t, err, ErrNoSnapshots)

	first, err := store.Save("https://brain.com.ua/ukr/p1", "<html>first</html>")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	second, err := store.Save("https://brain.com.ua/ukr/p2", "<html>second</html>")
	require.NoError(t, err)

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	data, err := os.ReadFile(store.Path(first))
	require.NoError(t, err)
	assert.Equal(t, "<html>first</html>", string(data))

	t.Run("index survives reopen", func(t *testing.T) {
		reopened, err := NewSnapshotStore(dir)
		require.NoError(t, err)

		got, ok := reopened.Get(first.ID)
		require.True(t, ok)
		assert.Equal(t, "https://brain.com.ua/ukr/p1", got.URL)
		assert.Len(t, reopened.List(), 2)
	})
}

func TestSnapshotStoreNullIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte("null"), 0o644))

	store, err := NewSnapshotStore(dir)
	require.NoError(t, err)
	assert.Empty(t, store.List())

	snap, err := store.Save("https://brain.com.ua/ukr/iphone-15", "<html></html>")
	require.NoError(t, err)
	assert.Len(t, store.List(), 1)

	reopened, err := NewSnapshotStore(dir)
	require.NoError(t, err)
	got, ok := reopened.Get(snap.ID)
	require.True(t, ok)
	assert.Equal(t, snap.URL, got.URL)
}
