package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// StateDirName is the per-repository directory holding all derived state.
const StateDirName = ".semindex"

// Default thresholds. These are empirically chosen, not derived from a
// formal model, so they stay configurable rather than hard-coded.
const (
	DefaultShortCircuitThreshold = 0.7
	DefaultFactThreshold         = 0.6
	DefaultRejectThreshold       = 0.3

	DefaultCuratedTopK = 3
	DefaultRawTopK     = 10

	DefaultSyncTTL = 5 * time.Minute
)

// Config holds the per-repository engine configuration.
type Config struct {
	// RootDirs are the directories to index, relative to the repository
	// root. Empty means the repository root itself.
	RootDirs []string `yaml:"root_dirs"`

	// ExcludePatterns are glob patterns (matched against slash-separated
	// relative paths and path segments) that are skipped during sync.
	ExcludePatterns []string `yaml:"exclude_patterns"`

	// WindowSize is the line count of fallback line-window chunks.
	WindowSize int `yaml:"window_size"`

	// TokenBudget caps estimated tokens per chunk before truncation.
	TokenBudget int `yaml:"token_budget"`

	// SyncTTL gates automatic sync before a query: within the TTL of the
	// last sync, queries skip the incremental filesystem check entirely.
	SyncTTL time.Duration `yaml:"sync_ttl"`

	// ShortCircuitThreshold is the curated score at and above which the raw
	// collection is not consulted.
	ShortCircuitThreshold float64 `yaml:"short_circuit_threshold"`

	// FactThreshold / RejectThreshold bound the validator's three tiers.
	FactThreshold   float64 `yaml:"fact_threshold"`
	RejectThreshold float64 `yaml:"reject_threshold"`

	// CuratedTopK / RawTopK size the two collection queries.
	CuratedTopK int `yaml:"curated_top_k"`
	RawTopK     int `yaml:"raw_top_k"`

	// Embedder selects and configures the embedding provider.
	Embedder EmbedderConfig `yaml:"embedder"`
}

// EmbedderConfig selects the embedding provider.
type EmbedderConfig struct {
	Provider    string `yaml:"provider"` // "local" or "openai"
	Model       string `yaml:"model"`
	QueryPrefix string `yaml:"query_prefix"`
	CacheSize   int    `yaml:"cache_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ExcludePatterns: []string{
			".git", StateDirName, "node_modules", "vendor", "dist", "build",
			"__pycache__", "*.min.js",
		},
		WindowSize:            50,
		TokenBudget:           2000,
		SyncTTL:               DefaultSyncTTL,
		ShortCircuitThreshold: DefaultShortCircuitThreshold,
		FactThreshold:         DefaultFactThreshold,
		RejectThreshold:       DefaultRejectThreshold,
		CuratedTopK:           DefaultCuratedTopK,
		RawTopK:               DefaultRawTopK,
		Embedder: EmbedderConfig{
			Provider: "local",
		},
	}
}

// Load reads configuration for a repository root: defaults, overlaid by
// <root>/.semindex/config.yaml when present, overlaid by SEMINDEX_* env
// vars. A missing file is not an error.
func Load(rootDir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(rootDir, StateDirName, "config.yaml")
	raw, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SEMINDEX_EMBEDDING_PROVIDER"); v != "" {
		c.Embedder.Provider = v
	}
	if v := os.Getenv("SEMINDEX_EMBEDDING_MODEL"); v != "" {
		c.Embedder.Model = v
	}
	if v := os.Getenv("SEMINDEX_SYNC_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SyncTTL = d
		}
	}
	if v := os.Getenv("SEMINDEX_SHORT_CIRCUIT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ShortCircuitThreshold = f
		}
	}
}

func (c *Config) validate() error {
	if c.ShortCircuitThreshold < 0 || c.ShortCircuitThreshold > 1 {
		return fmt.Errorf("short_circuit_threshold %v out of [0,1]", c.ShortCircuitThreshold)
	}
	if c.FactThreshold < 0 || c.FactThreshold > 1 {
		return fmt.Errorf("fact_threshold %v out of [0,1]", c.FactThreshold)
	}
	if c.RejectThreshold < 0 || c.RejectThreshold > 1 {
		return fmt.Errorf("reject_threshold %v out of [0,1]", c.RejectThreshold)
	}
	if c.RejectThreshold > c.FactThreshold {
		return fmt.Errorf("reject_threshold %v above fact_threshold %v",
			c.RejectThreshold, c.FactThreshold)
	}
	if c.CuratedTopK <= 0 {
		c.CuratedTopK = DefaultCuratedTopK
	}
	if c.RawTopK <= 0 {
		c.RawTopK = DefaultRawTopK
	}
	return nil
}

// StateDir returns the derived-state directory for a repository root.
func StateDir(rootDir string) string {
	return filepath.Join(rootDir, StateDirName)
}

// EnsureStateDir creates the state directory and drops a .gitignore in it so
// the derived files (index database, fingerprints, agreement log) never show
// up in version control diffs.
func EnsureStateDir(rootDir string) (string, error) {
	dir := StateDir(rootDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	gitignore := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitignore); os.IsNotExist(err) {
		if err := os.WriteFile(gitignore, []byte("*\n"), 0o644); err != nil {
			return "", fmt.Errorf("write state gitignore: %w", err)
		}
	}
	return dir, nil
}
