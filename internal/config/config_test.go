package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 0.7, cfg.ShortCircuitThreshold)
	assert.Equal(t, 0.6, cfg.FactThreshold)
	assert.Equal(t, 0.3, cfg.RejectThreshold)
	assert.Equal(t, 3, cfg.CuratedTopK)
	assert.Equal(t, 10, cfg.RawTopK)
	assert.Equal(t, 5*time.Minute, cfg.SyncTTL)
	assert.Equal(t, "local", cfg.Embedder.Provider)
	assert.Contains(t, cfg.ExcludePatterns, ".git")
	assert.Contains(t, cfg.ExcludePatterns, StateDirName)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default().ShortCircuitThreshold, cfg.ShortCircuitThreshold)
}

func TestLoadFileOverrides(t *testing.T) {
	rootDir := t.TempDir()
	dir, err := EnsureStateDir(rootDir)
	require.NoError(t, err)

	yaml := `
short_circuit_threshold: 0.85
fact_threshold: 0.65
curated_top_k: 5
sync_ttl: 30s
embedder:
  provider: openai
  model: text-embedding-3-small
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(rootDir)
	require.NoError(t, err)
	assert.Equal(t, 0.85, cfg.ShortCircuitThreshold)
	assert.Equal(t, 0.65, cfg.FactThreshold)
	assert.Equal(t, 5, cfg.CuratedTopK)
	assert.Equal(t, 30*time.Second, cfg.SyncTTL)
	assert.Equal(t, "openai", cfg.Embedder.Provider)
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.3, cfg.RejectThreshold)
	assert.Equal(t, 10, cfg.RawTopK)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	rootDir := t.TempDir()
	dir, err := EnsureStateDir(rootDir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("short_circuit_threshold: 0.85\n"), 0o644))

	t.Setenv("SEMINDEX_SHORT_CIRCUIT_THRESHOLD", "0.95")
	t.Setenv("SEMINDEX_EMBEDDING_PROVIDER", "openai")
	t.Setenv("SEMINDEX_SYNC_TTL", "1m")

	cfg, err := Load(rootDir)
	require.NoError(t, err)
	assert.Equal(t, 0.95, cfg.ShortCircuitThreshold)
	assert.Equal(t, "openai", cfg.Embedder.Provider)
	assert.Equal(t, time.Minute, cfg.SyncTTL)
}

func TestLoadRejectsInvalidThresholds(t *testing.T) {
	rootDir := t.TempDir()
	dir, err := EnsureStateDir(rootDir)
	require.NoError(t, err)

	tests := []string{
		"short_circuit_threshold: 1.5\n",
		"fact_threshold: -0.1\n",
		"reject_threshold: 0.8\nfact_threshold: 0.5\n",
	}
	for _, yaml := range tests {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
		_, err := Load(rootDir)
		assert.Error(t, err, yaml)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	rootDir := t.TempDir()
	dir, err := EnsureStateDir(rootDir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{{{"), 0o644))

	_, err = Load(rootDir)
	assert.Error(t, err)
}

func TestEnsureStateDirWritesGitignore(t *testing.T) {
	rootDir := t.TempDir()

	dir, err := EnsureStateDir(rootDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rootDir, StateDirName), dir)

	raw, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "*\n", string(raw))

	// Idempotent, and user edits to the gitignore survive.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*\n!config.yaml\n"), 0o644))
	_, err = EnsureStateDir(rootDir)
	require.NoError(t, err)
	raw, err = os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "*\n!config.yaml\n", string(raw))
}
