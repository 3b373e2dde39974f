package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func openStores(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()

	file, err := Open("file", filepath.Join(dir, "nested", "state.json"), nil)
	require.NoError(t, err)
	db, err := Open("sqlite", filepath.Join(dir, "state.db"), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = file.Close()
		_ = db.Close()
	})
	return map[string]KV{"file": file, "sqlite": db}
}

func TestKVRoundTrip(t *testing.T) {
	for name, kv := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get("research_history")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, kv.Set("research_history", []byte(`[{"id":1}]`)))
			got, err := kv.Get("research_history")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":1}]`, string(got))

			require.NoError(t, kv.Set("research_history", []byte(`[]`)))
			got, err = kv.Get("research_history")
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(got))

			require.NoError(t, kv.Delete("research_history"))
			_, err = kv.Get("research_history")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, kv.Delete("never-set"))
		})
	}
}

func TestKVBinaryValues(t *testing.T) {
	payload := []byte{0xff, 0xfe, 0x00, 'o', 'k', 0x80}
	for name, kv := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set("blob", payload))
			got, err := kv.Get("blob")
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestKVKeysAreIndependent(t *testing.T) {
	for name, kv := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set("a", []byte("1")))
			require.NoError(t, kv.Set("b", []byte("2")))
			require.NoError(t, kv.Delete("a"))

			got, err := kv.Get("b")
			require.NoError(t, err)
			assert.Equal(t, "2", string(got))
		})
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	first, err := NewFileStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, first.Set("k", []byte("not json at all {")))

	second, err := NewFileStore(path, nil)
	require.NoError(t, err)
	got, err := second.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "not json at all {", string(got))
}

func TestFileStoreCorruptedFileIsBackedUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{garbage"), 0600))

	core, logs := observer.New(zapcore.WarnLevel)
	store, err := NewFileStore(path, zap.New(core))
	require.NoError(t, err)

	_, err = store.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = os.Stat(path + ".backup")
	assert.NoError(t, err)

	entries := logs.FilterMessage("storage file corrupted, moved aside").All()
	require.Len(t, entries, 1)
	assert.Equal(t, path+".backup", entries[0].ContextMap()["backup"])
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("redis", filepath.Join(t.TempDir(), "x"), nil)
	require.Error(t, err)
}
