package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// FileFingerprint tracks one indexed file's content identity.
type FileFingerprint struct {
	Path        string    `json:"path"`
	ContentHash string    `json:"content_hash"`
	ModTime     time.Time `json:"mtime"`
	IndexedAt   time.Time `json:"indexed_at"`
}

// snapshot is the on-disk shape of the store.
type snapshot struct {
	// Model stamps the embedding model the vectors were produced with.
	// Similarity scores are only comparable within one model's space, so a
	// model change invalidates every fingerprint.
	Model        string                      `json:"model"`
	Fingerprints map[string]*FileFingerprint `json:"fingerprints"`
}

// Store is the persisted path → fingerprint map that drives incremental
// sync. A missing or corrupt file on disk is treated as "no prior state":
// affected files re-index rather than silently reporting stale results.
type Store struct {
	path string
	data snapshot
}

// Load reads the store at path. Missing or unreadable state yields an empty
// store, never an error the caller has to distinguish.
func Load(path string) *Store {
	s := &Store{
		path: path,
		data: snapshot{Fingerprints: make(map[string]*FileFingerprint)},
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("read fingerprints %s: %v; starting from empty state", path, err)
		}
		return s
	}

	var data snapshot
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Printf("corrupt fingerprints %s: %v; starting from empty state", path, err)
		return s
	}
	if data.Fingerprints == nil {
		data.Fingerprints = make(map[string]*FileFingerprint)
	}
	s.data = data
	return s
}

// Model returns the embedding model the stored vectors belong to.
func (s *Store) Model() string {
	return s.data.Model
}

// SetModel records the embedding model for subsequent saves.
func (s *Store) SetModel(model string) {
	s.data.Model = model
}

// Get returns the fingerprint for a path, or nil when untracked.
func (s *Store) Get(path string) *FileFingerprint {
	return s.data.Fingerprints[path]
}

// Put records a fingerprint in memory; Save persists it.
func (s *Store) Put(fp *FileFingerprint) {
	s.data.Fingerprints[fp.Path] = fp
}

// Delete removes a path's fingerprint in memory.
func (s *Store) Delete(path string) {
	delete(s.data.Fingerprints, path)
}

// Len reports the number of tracked files.
func (s *Store) Len() int {
	return len(s.data.Fingerprints)
}

// Paths returns every tracked path, sorted.
func (s *Store) Paths() []string {
	paths := make([]string, 0, len(s.data.Fingerprints))
	for path := range s.data.Fingerprints {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Clear drops every tracked fingerprint in memory (forced re-index).
func (s *Store) Clear() {
	s.data.Fingerprints = make(map[string]*FileFingerprint)
}

// Save persists the map atomically: write to a temp file in the same
// directory, then rename over the target. A crash mid-save leaves either the
// old state or the new one, never a torn file.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fingerprints: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".fingerprints-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// HashFile computes the hex SHA-256 of a file's content plus its mod time.
func HashFile(path string) (hash string, modTime time.Time, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", time.Time{}, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", time.Time{}, err
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", time.Time{}, err
	}
	return hex.EncodeToString(h.Sum(nil)), info.ModTime(), nil
}

// HashBytes computes the hex SHA-256 of in-memory content.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
