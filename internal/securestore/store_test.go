package securestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreSetGetDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get("userId")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Set("userId", "abc-123"))

	value, err := store.Get("userId")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", value)

	require.NoError(t, store.Delete("userId"))
	_, err = store.Get("userId")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("userId", "abc-123"))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)

	value, err := reopened.Get("userId")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", value)
}

func TestFileStoreDeleteMissingKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete("never-set"))
}
