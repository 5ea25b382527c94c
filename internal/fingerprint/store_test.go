package fingerprint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fingerprints.json")

	s := Load(path)
	s.SetModel("local-hash-v1")
	s.Put(&FileFingerprint{
		Path:        "a.go",
		ContentHash: "abc123",
		ModTime:     time.Now().Truncate(time.Second),
		IndexedAt:   time.Now().Truncate(time.Second),
	})
	s.Put(&FileFingerprint{Path: "b.go", ContentHash: "def456"})
	require.NoError(t, s.Save())

	loaded := Load(path)
	assert.Equal(t, "local-hash-v1", loaded.Model())
	assert.Equal(t, 2, loaded.Len())
	require.NotNil(t, loaded.Get("a.go"))
	assert.Equal(t, "abc123", loaded.Get("a.go").ContentHash)
	assert.Equal(t, []string{"a.go", "b.go"}, loaded.Paths())
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Get("a.go"))
	assert.Empty(t, s.Model())
}

func TestLoadCorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fingerprints.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := Load(path)
	assert.Equal(t, 0, s.Len())

	// The empty state is still saveable over the corrupt file.
	s.Put(&FileFingerprint{Path: "a.go", ContentHash: "abc"})
	require.NoError(t, s.Save())
	assert.Equal(t, 1, Load(path).Len())
}

func TestDeleteAndClear(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "fingerprints.json"))
	s.Put(&FileFingerprint{Path: "a.go"})
	s.Put(&FileFingerprint{Path: "b.go"})

	s.Delete("a.go")
	assert.Nil(t, s.Get("a.go"))
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := Load(filepath.Join(dir, "fingerprints.json"))
	s.Put(&FileFingerprint{Path: "a.go", ContentHash: "abc"})
	require.NoError(t, s.Save())
	require.NoError(t, s.Save())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fingerprints.json", entries[0].Name())
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o644))

	hash, modTime, err := HashFile(path)
	require.NoError(t, err)
	assert.Len(t, hash, 64)
	assert.False(t, modTime.IsZero())
	assert.Equal(t, HashBytes([]byte("package main\n")), hash)

	again, _, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, hash, again)

	_, _, err = HashFile(filepath.Join(t.TempDir(), "missing.go"))
	assert.Error(t, err)
}
