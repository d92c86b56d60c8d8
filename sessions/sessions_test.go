package sessions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "sessions"))
	require.NoError(t, err)
	return store
}

// TestFileStore_SaveAndLoad verifies cookies survive a round trip to disk
func TestFileStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	cookies := []Cookie{
		{Name: "sid", Value: "abc", Domain: ".freep.com", Path: "/", Expires: 1767225600, HTTPOnly: true, Secure: true, SameSite: "Lax"},
	}

	require.NoError(t, store.Save("gannett", cookies))

	assert.True(t, store.Has("gannett"))
	loaded, err := store.Load("gannett")
	require.NoError(t, err)
	assert.Equal(t, cookies, loaded)

	info, err := os.Stat(filepath.Join(store.Dir(), "gannett-cookies.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

// TestFileStore_Missing verifies missing sessions are reported distinctly
func TestFileStore_Missing(t *testing.T) {
	store := newTestStore(t)

	assert.False(t, store.Has("mlive"))
	_, err := store.Load("mlive")
	assert.ErrorIs(t, err, ErrNoSession)

	removed, err := store.Delete("mlive")
	require.NoError(t, err)
	assert.False(t, removed)
}

// TestFileStore_Delete verifies a saved session can be cleared
func TestFileStore_Delete(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("crains", []Cookie{{Name: "a", Value: "b"}}))

	removed, err := store.Delete("crains")

	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, store.Has("crains"))
}

// TestFileStore_List verifies only cookie files are reported
func TestFileStore_List(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("mlive", nil))
	require.NoError(t, store.Save("custom-example", nil))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "custom-sites.json"), []byte(`{"sites":{}}`), 0o600))

	keys, err := store.List()

	require.NoError(t, err)
	assert.Equal(t, []string{"custom-example", "mlive"}, keys)
}

// TestFileStore_InvalidKey verifies keys cannot escape the directory
func TestFileStore_InvalidKey(t *testing.T) {
	store := newTestStore(t)

	err := store.Save("../etc", nil)
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.False(t, store.Has("../etc"))
	_, err = store.Load("Bad Key")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
