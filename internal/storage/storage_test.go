package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"valutatrade/internal/storage"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteJSONAtomic_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "data.json")
	require.NoError(t, storage.WriteJSONAtomic(path, payload{Name: "rates", Count: 3}))

	var got payload
	require.NoError(t, storage.ReadJSON(path, &got))
	require.Equal(t, payload{Name: "rates", Count: 3}, got)

	_, err := os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestWriteJSONAtomic_ReplacesExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, storage.WriteJSONAtomic(path, payload{Name: "old"}))
	require.NoError(t, storage.WriteJSONAtomic(path, payload{Name: "new"}))

	var got payload
	require.NoError(t, storage.ReadJSON(path, &got))
	require.Equal(t, "new", got.Name)
}

func TestWriteJSONAtomic_UnmarshalableValue(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.json")
	err := storage.WriteJSONAtomic(path, map[string]any{"f": func() {}})
	var perr *storage.PersistenceError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "marshal", perr.Op)

	// Nothing reached disk.
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestReadJSON_MissingFile(t *testing.T) {
	t.Parallel()

	err := storage.ReadJSON(filepath.Join(t.TempDir(), "absent.json"), &payload{})
	require.True(t, storage.IsNotExist(err))
}

func TestReadJSON_CorruptedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o644))

	err := storage.ReadJSON(path, &payload{})
	require.Error(t, err)
	require.False(t, storage.IsNotExist(err))
	require.Contains(t, err.Error(), path)
}
