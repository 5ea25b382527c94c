package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/semindex/semindex/internal/config"
	"github.com/semindex/semindex/internal/embedder"
	"github.com/semindex/semindex/internal/store"
	"github.com/semindex/semindex/pkg/types"
)

// cacheEntry represents a cached search result with expiration time
type cacheEntry struct {
	result    *types.SearchResult
	expiresAt time.Time
}

// Searcher implements the short-circuit retrieval policy over the two
// vector collections: curated first, raw only when curated can't answer
// with confidence. Well-known associations thereby bypass full-corpus
// search entirely, which is the dominant performance win.
type Searcher struct {
	index    store.Index
	embedder embedder.Embedder
	cfg      *config.Config

	// Optional query cache; disabled unless EnableCache is called.
	cacheTTL time.Duration
	cacheMu  sync.Mutex
	cache    *lru.Cache[string, *cacheEntry]
}

// NewSearcher creates a searcher over the given index.
func NewSearcher(index store.Index, emb embedder.Embedder, cfg *config.Config) *Searcher {
	return &Searcher{
		index:    index,
		embedder: emb,
		cfg:      cfg,
	}
}

// EnableCache turns on LRU caching of search results with the given TTL.
func (s *Searcher) EnableCache(size int, ttl time.Duration) {
	if size <= 0 {
		size = 1000
	}
	cache, err := lru.New[string, *cacheEntry](size)
	if err != nil {
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}
	s.cacheMu.Lock()
	s.cache = cache
	s.cacheTTL = ttl
	s.cacheMu.Unlock()
}

// InvalidateCache drops every cached result. Called after sync mutates the
// index.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	if s.cache != nil {
		s.cache.Purge()
	}
	s.cacheMu.Unlock()
}

// Search answers one natural-language query.
//
// The curated collection is consulted first with a small top-k. When its
// best hit clears the short-circuit threshold the result is confirmed and
// the raw collection is never queried. Otherwise the raw collection
// answers with hypothesis status, and any sub-threshold curated hits ride
// along as hints rather than being discarded.
func (s *Searcher) Search(ctx context.Context, query string) (*types.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	start := time.Now()
	if cached := s.fromCache(query); cached != nil {
		cached.Duration = time.Since(start)
		return cached, nil
	}

	emb, err := s.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
		Text: query,
		Role: embedder.RoleQuery,
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	curated, err := s.index.Query(ctx, types.CollectionCurated, emb.Vector, s.cfg.CuratedTopK)
	if err != nil {
		return nil, fmt.Errorf("query curated: %w", err)
	}

	if len(curated) > 0 && curated[0].Score >= s.cfg.ShortCircuitThreshold {
		result := &types.SearchResult{
			Source:         types.CollectionCurated,
			Status:         types.StatusConfirmed,
			Hits:           curated,
			ShortCircuited: true,
			Duration:       time.Since(start),
		}
		s.toCache(query, result)
		return result, nil
	}

	raw, err := s.index.Query(ctx, types.CollectionRaw, emb.Vector, s.cfg.RawTopK)
	if err != nil {
		return nil, fmt.Errorf("query raw: %w", err)
	}

	result := &types.SearchResult{
		Source:         types.CollectionRaw,
		Status:         types.StatusHypothesis,
		Hits:           raw,
		Hints:          curated,
		ShortCircuited: false,
		Duration:       time.Since(start),
	}
	s.toCache(query, result)
	return result, nil
}

func (s *Searcher) fromCache(query string) *types.SearchResult {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cache == nil {
		return nil
	}

	entry, ok := s.cache.Get(query)
	if !ok {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		s.cache.Remove(query)
		return nil
	}
	return copyResult(entry.result)
}

func (s *Searcher) toCache(query string, result *types.SearchResult) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cache == nil {
		return
	}
	s.cache.Add(query, &cacheEntry{
		result:    copyResult(result),
		expiresAt: time.Now().Add(s.cacheTTL),
	})
}

// copyResult deep-copies a result so cached values can't be mutated by
// callers.
func copyResult(src *types.SearchResult) *types.SearchResult {
	if src == nil {
		return nil
	}
	dst := *src
	dst.Hits = copyHits(src.Hits)
	dst.Hints = copyHits(src.Hints)
	return &dst
}

func copyHits(hits []types.SearchHit) []types.SearchHit {
	if hits == nil {
		return nil
	}
	out := make([]types.SearchHit, len(hits))
	copy(out, hits)
	for i := range out {
		if out[i].Metadata != nil {
			metadata := make(map[string]string, len(out[i].Metadata))
			for k, v := range out[i].Metadata {
				metadata[k] = v
			}
			out[i].Metadata = metadata
		}
	}
	return out
}
