package agreement

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/semindex/semindex/internal/embedder"
	"github.com/semindex/semindex/internal/store"
	"github.com/semindex/semindex/pkg/types"
)

// Store is the durable record of confirmed natural-language-to-symbol
// associations. The on-disk format is an append-only JSONL log so the audit
// trail stays reconstructable; the logical view dedupes by (nl_term, symbol)
// keeping the latest entry.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates an agreement store backed by the JSONL log at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Record appends a confirmed agreement. A repeated (nl_term, symbol) pair
// logically updates similarity and evidence rather than creating a second
// agreement; the older log lines remain on disk as history.
func (s *Store) Record(nlTerm, symbol string, similarity float64, evidence, sessionID string) (*types.Agreement, error) {
	if nlTerm == "" || symbol == "" {
		return nil, fmt.Errorf("nl_term and symbol are required")
	}

	a := &types.Agreement{
		NLTerm:     nlTerm,
		Symbol:     symbol,
		Similarity: similarity,
		Evidence:   evidence,
		SessionID:  sessionID,
		CreatedAt:  time.Now(),
	}

	line, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal agreement: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open agreement log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("append agreement: %w", err)
	}
	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("sync agreement log: %w", err)
	}
	return a, nil
}

// List replays the log and returns the current agreements, one per logical
// key, ordered by nl_term then symbol. A missing log yields an empty list.
func (s *Store) List() ([]*types.Agreement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replay()
}

func (s *Store) replay() ([]*types.Agreement, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*types.Agreement{}, nil
		}
		return nil, fmt.Errorf("open agreement log: %w", err)
	}
	defer func() { _ = f.Close() }()

	latest := make(map[string]*types.Agreement)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var a types.Agreement
		if err := json.Unmarshal(line, &a); err != nil {
			// One torn line (e.g. crash mid-append) must not hide the rest
			// of the log.
			log.Printf("agreement log %s line %d: %v; skipping", s.path, lineNo, err)
			continue
		}
		latest[a.Key()] = &a
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read agreement log: %w", err)
	}

	agreements := make([]*types.Agreement, 0, len(latest))
	for _, a := range latest {
		agreements = append(agreements, a)
	}
	sort.Slice(agreements, func(i, j int) bool {
		if agreements[i].NLTerm != agreements[j].NLTerm {
			return agreements[i].NLTerm < agreements[j].NLTerm
		}
		return agreements[i].Symbol < agreements[j].Symbol
	})
	return agreements, nil
}

// FoldIntoCurated re-embeds every current agreement and upserts it into the
// curated collection, making it discoverable by future searches. This is the
// only path by which raw-discovered knowledge becomes curated, and it runs
// only on explicit confirmation by the caller, never automatically from a
// raw hit.
func (s *Store) FoldIntoCurated(ctx context.Context, emb embedder.Embedder, index store.Index) (int, error) {
	agreements, err := s.List()
	if err != nil {
		return 0, err
	}
	if len(agreements) == 0 {
		return 0, nil
	}

	texts := make([]string, len(agreements))
	for i, a := range agreements {
		// Symbols are normalized the same way chunk queries are, so curated
		// entries compete in the same vector space.
		texts[i] = embedder.NormalizeSymbol(a.NLTerm) + " " + embedder.NormalizeSymbol(a.Symbol)
		if a.Evidence != "" {
			texts[i] += " " + a.Evidence
		}
	}

	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
		Texts: texts,
		Role:  embedder.RolePassage,
	})
	if err != nil {
		return 0, fmt.Errorf("embed agreements: %w", err)
	}

	records := make([]*store.Record, len(agreements))
	for i, a := range agreements {
		records[i] = store.RecordFromAgreement(a, resp.Embeddings[i].Vector)
	}
	if err := index.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("upsert curated records: %w", err)
	}
	return len(records), nil
}
