package syncer

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/semindex/semindex/internal/config"
	"github.com/semindex/semindex/internal/embedder"
	"github.com/semindex/semindex/internal/fingerprint"
	"github.com/semindex/semindex/internal/lang"
	"github.com/semindex/semindex/internal/store"
	"github.com/semindex/semindex/pkg/types"
)

// embedBatchSize bounds how many chunk texts go to the provider per call.
const embedBatchSize = 50

// Diff is the result of comparing the fingerprint map against the
// filesystem.
type Diff struct {
	Added    []string
	Modified []string
	Deleted  []string
}

// Syncer keeps the raw collection consistent with the repository tree by
// fingerprint-based incremental re-indexing. One writer at a time: a second
// Sync on the same repository gets types.ErrSyncInProgress. Readers proceed
// concurrently and see a consistent, possibly slightly stale index.
type Syncer struct {
	rootDir   string
	cfg       *config.Config
	extractor *lang.Extractor
	embedder  embedder.Embedder
	index     store.Index

	lock  indexLock
	flock *flock.Flock

	mu           sync.Mutex // guards fingerprints and lastSync
	fingerprints *fingerprint.Store
	lastSync     time.Time
}

// New creates a syncer for one repository root. stateDir must already exist.
func New(rootDir, stateDir string, cfg *config.Config, ext *lang.Extractor, emb embedder.Embedder, index store.Index) *Syncer {
	return &Syncer{
		rootDir:      rootDir,
		cfg:          cfg,
		extractor:    ext,
		embedder:     emb,
		index:        index,
		flock:        flock.New(filepath.Join(stateDir, "sync.lock")),
		fingerprints: fingerprint.Load(filepath.Join(stateDir, "fingerprints.json")),
	}
}

// ComputeDiff compares the persisted fingerprint map against the current
// filesystem without modifying anything.
func (s *Syncer) ComputeDiff(ctx context.Context) (*Diff, error) {
	files, err := s.discoverFiles()
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}

	hashes, err := s.hashFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	diff := &Diff{}
	seen := make(map[string]bool, len(files))
	for _, relPath := range files {
		hash, hashed := hashes[relPath]
		if !hashed {
			// Unreadable right now; re-examined on the next sync.
			continue
		}
		seen[relPath] = true
		prior := s.fingerprints.Get(relPath)
		switch {
		case prior == nil:
			diff.Added = append(diff.Added, relPath)
		case prior.ContentHash != hash:
			diff.Modified = append(diff.Modified, relPath)
		}
	}
	for _, relPath := range s.fingerprints.Paths() {
		if !seen[relPath] {
			diff.Deleted = append(diff.Deleted, relPath)
		}
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Modified)
	return diff, nil
}

// Sync performs one incremental re-index pass. force ignores fingerprints
// and rebuilds the raw collection from scratch. The curated collection is
// never touched by sync.
func (s *Syncer) Sync(ctx context.Context, force bool) (*types.SyncResult, error) {
	if !s.lock.TryAcquire() {
		return nil, types.ErrSyncInProgress
	}
	defer s.lock.Release()

	locked, err := s.flock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !locked {
		return nil, types.ErrSyncInProgress
	}
	defer func() { _ = s.flock.Unlock() }()

	start := time.Now()

	// A model change invalidates every stored vector: scores are only
	// comparable within one model's space.
	model := s.embedder.Model()
	s.mu.Lock()
	if prior := s.fingerprints.Model(); prior != "" && prior != model {
		log.Printf("embedding model changed (%s -> %s); forcing full re-index", prior, model)
		force = true
	}
	if force {
		s.fingerprints.Clear()
	}
	s.fingerprints.SetModel(model)
	s.mu.Unlock()

	if force {
		if err := s.index.Reset(ctx, types.CollectionRaw); err != nil {
			return nil, fmt.Errorf("reset raw collection: %w", err)
		}
	}

	diff, err := s.ComputeDiff(ctx)
	if err != nil {
		return nil, err
	}

	result := &types.SyncResult{}

	for _, relPath := range diff.Deleted {
		if err := s.removeFile(ctx, relPath); err != nil {
			log.Printf("sync: remove %s: %v", relPath, err)
			result.FilesFailed++
			continue
		}
		result.Deleted++
	}

	for _, relPath := range diff.Added {
		if err := s.indexFile(ctx, relPath); err != nil {
			log.Printf("sync: index %s: %v", relPath, err)
			result.FilesFailed++
			continue
		}
		result.Added++
	}
	for _, relPath := range diff.Modified {
		if err := s.indexFile(ctx, relPath); err != nil {
			log.Printf("sync: index %s: %v", relPath, err)
			result.FilesFailed++
			continue
		}
		result.Modified++
	}

	s.mu.Lock()
	s.lastSync = time.Now()
	s.mu.Unlock()

	result.Duration = time.Since(start)
	return result, nil
}

// EnsureFresh runs an incremental sync when the last one is older than the
// configured TTL. Within the TTL, queries skip the filesystem check. A sync
// already running elsewhere counts as fresh enough.
func (s *Syncer) EnsureFresh(ctx context.Context) error {
	s.mu.Lock()
	fresh := !s.lastSync.IsZero() && time.Since(s.lastSync) < s.cfg.SyncTTL
	s.mu.Unlock()
	if fresh {
		return nil
	}

	_, err := s.Sync(ctx, false)
	if err == types.ErrSyncInProgress {
		return nil
	}
	return err
}

// LastSync reports when the last successful sync finished.
func (s *Syncer) LastSync() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

// FileCount reports how many files are currently tracked.
func (s *Syncer) FileCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fingerprints.Len()
}

// indexFile re-indexes one file. The ordering is the crash-safety contract:
// old chunks out, new chunks in, fingerprint persisted last. A crash before
// the fingerprint write leaves the file detected as changed on the next
// sync: over-indexing, never silent staleness.
func (s *Syncer) indexFile(ctx context.Context, relPath string) error {
	absPath := filepath.Join(s.rootDir, relPath)
	content, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	if _, err := s.index.DeleteByFile(ctx, types.CollectionRaw, relPath); err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}

	chunks := s.extractor.ChunkFile(relPath, content)
	if err := s.embedAndUpsert(ctx, chunks); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fingerprints.Put(&fingerprint.FileFingerprint{
		Path:        relPath,
		ContentHash: fingerprint.HashBytes(content),
		ModTime:     info.ModTime(),
		IndexedAt:   time.Now(),
	})
	return s.fingerprints.Save()
}

func (s *Syncer) embedAndUpsert(ctx context.Context, chunks []*types.Chunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = embedText(chunk)
		}

		resp, err := s.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
			Texts: texts,
			Role:  embedder.RolePassage,
		})
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}

		records := make([]*store.Record, len(batch))
		for i, chunk := range batch {
			records[i] = store.RecordFromChunk(chunk, resp.Embeddings[i].Vector)
		}
		if err := s.index.Upsert(ctx, records); err != nil {
			return fmt.Errorf("upsert chunks: %w", err)
		}
	}
	return nil
}

// embedText is the embeddable representation of a chunk: the normalized
// name pulls natural-language queries toward the symbol, the content
// carries the body.
func embedText(chunk *types.Chunk) string {
	var b strings.Builder
	if chunk.Name != "" {
		b.WriteString(embedder.NormalizeSymbol(chunk.Name))
		b.WriteString("\n")
	}
	if doc := chunk.Metadata["doc"]; doc != "" {
		b.WriteString(doc)
		b.WriteString("\n")
	}
	b.WriteString(chunk.Content)
	return b.String()
}

// removeFile purges a deleted file's chunks and fingerprint entry so no
// orphaned vectors survive.
func (s *Syncer) removeFile(ctx context.Context, relPath string) error {
	if _, err := s.index.DeleteByFile(ctx, types.CollectionRaw, relPath); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fingerprints.Delete(relPath)
	return s.fingerprints.Save()
}

// discoverFiles walks the configured include roots and returns relative
// paths, honoring exclude patterns.
func (s *Syncer) discoverFiles() ([]string, error) {
	roots := s.cfg.RootDirs
	if len(roots) == 0 {
		roots = []string{"."}
	}

	var files []string
	seen := make(map[string]bool)
	for _, root := range roots {
		absRoot := filepath.Join(s.rootDir, root)
		err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// A vanished or unreadable entry shouldn't abort the walk.
				log.Printf("sync: walk %s: %v", path, err)
				return nil
			}

			relPath, relErr := filepath.Rel(s.rootDir, path)
			if relErr != nil {
				return relErr
			}
			relPath = filepath.ToSlash(relPath)

			if d.IsDir() {
				if relPath != "." && s.excluded(relPath, d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if s.excluded(relPath, d.Name()) {
				return nil
			}
			if !seen[relPath] {
				seen[relPath] = true
				files = append(files, relPath)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

func (s *Syncer) excluded(relPath, name string) bool {
	for _, pattern := range s.cfg.ExcludePatterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

// hashFiles computes content hashes concurrently.
func (s *Syncer) hashFiles(ctx context.Context, relPaths []string) (map[string]string, error) {
	hashes := make(map[string]string, len(relPaths))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, relPath := range relPaths {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			hash, _, err := fingerprint.HashFile(filepath.Join(s.rootDir, relPath))
			if err != nil {
				// Unreadable files are skipped here and re-examined next
				// sync rather than failing the whole diff.
				log.Printf("sync: hash %s: %v", relPath, err)
				return nil
			}
			mu.Lock()
			hashes[relPath] = hash
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hashes, nil
}
