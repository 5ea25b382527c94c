package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semindex/semindex/internal/config"
	"github.com/semindex/semindex/internal/embedder"
	"github.com/semindex/semindex/internal/store"
	"github.com/semindex/semindex/pkg/types"
)

// fakeIndex serves canned hits per collection and counts queries, so tests
// can assert which collections were actually consulted.
type fakeIndex struct {
	curated      []types.SearchHit
	raw          []types.SearchHit
	curatedCalls int
	rawCalls     int
}

func (f *fakeIndex) Upsert(ctx context.Context, records []*store.Record) error { return nil }

func (f *fakeIndex) DeleteByFile(ctx context.Context, collection types.Collection, filePath string) (int, error) {
	return 0, nil
}

func (f *fakeIndex) Query(ctx context.Context, collection types.Collection, vector []float32, topK int) ([]types.SearchHit, error) {
	switch collection {
	case types.CollectionCurated:
		f.curatedCalls++
		return append([]types.SearchHit{}, f.curated...), nil
	default:
		f.rawCalls++
		return append([]types.SearchHit{}, f.raw...), nil
	}
}

func (f *fakeIndex) Get(ctx context.Context, collection types.Collection, id string) (*store.Record, error) {
	return nil, store.ErrNotFound
}

func (f *fakeIndex) Count(ctx context.Context, collection types.Collection) (int, error) {
	return 0, nil
}

func (f *fakeIndex) Reset(ctx context.Context, collection types.Collection) error { return nil }
func (f *fakeIndex) Close() error                                                 { return nil }

func newTestSearcher(t *testing.T, idx store.Index) *Searcher {
	t.Helper()
	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = emb.Close() })
	return NewSearcher(idx, emb, config.Default())
}

func hit(id string, collection types.Collection, score float64) types.SearchHit {
	return types.SearchHit{ID: id, Collection: collection, Score: score}
}

func TestSearchShortCircuitsOnConfidentCuratedHit(t *testing.T) {
	idx := &fakeIndex{
		curated: []types.SearchHit{hit("agreement:total computation|computeTotal", types.CollectionCurated, 0.92)},
		raw:     []types.SearchHit{hit("a.go:computeTotal", types.CollectionRaw, 0.88)},
	}
	s := newTestSearcher(t, idx)

	result, err := s.Search(context.Background(), "total computation")
	require.NoError(t, err)

	assert.Equal(t, types.StatusConfirmed, result.Status)
	assert.Equal(t, types.CollectionCurated, result.Source)
	assert.True(t, result.ShortCircuited)
	require.Len(t, result.Hits, 1)
	assert.Empty(t, result.Hints)

	assert.Equal(t, 1, idx.curatedCalls)
	assert.Equal(t, 0, idx.rawCalls, "raw collection must never be consulted on a short circuit")
}

func TestSearchFallsThroughBelowThreshold(t *testing.T) {
	idx := &fakeIndex{
		curated: []types.SearchHit{hit("agreement:weak", types.CollectionCurated, 0.55)},
		raw: []types.SearchHit{
			hit("a.go:computeTotal", types.CollectionRaw, 0.81),
			hit("b.go:sumItems", types.CollectionRaw, 0.64),
		},
	}
	s := newTestSearcher(t, idx)

	result, err := s.Search(context.Background(), "total computation")
	require.NoError(t, err)

	assert.Equal(t, types.StatusHypothesis, result.Status)
	assert.Equal(t, types.CollectionRaw, result.Source)
	assert.False(t, result.ShortCircuited)
	assert.Len(t, result.Hits, 2)

	// Sub-threshold curated hits ride along as hints, not discarded.
	require.Len(t, result.Hints, 1)
	assert.Equal(t, "agreement:weak", result.Hints[0].ID)

	assert.Equal(t, 1, idx.curatedCalls)
	assert.Equal(t, 1, idx.rawCalls)
}

func TestSearchThresholdBoundaryIsInclusive(t *testing.T) {
	cfg := config.Default()
	idx := &fakeIndex{
		curated: []types.SearchHit{hit("edge", types.CollectionCurated, cfg.ShortCircuitThreshold)},
	}
	s := newTestSearcher(t, idx)

	result, err := s.Search(context.Background(), "edge case")
	require.NoError(t, err)
	assert.True(t, result.ShortCircuited)
	assert.Equal(t, 0, idx.rawCalls)
}

func TestSearchEmptyIndexIsWellFormed(t *testing.T) {
	idx := &fakeIndex{}
	s := newTestSearcher(t, idx)

	result, err := s.Search(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.Equal(t, types.StatusHypothesis, result.Status)
	assert.NotNil(t, result.Hits)
	assert.Empty(t, result.Hits)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	s := newTestSearcher(t, &fakeIndex{})
	_, err := s.Search(context.Background(), "")
	assert.Error(t, err)
}

func TestSearchCache(t *testing.T) {
	idx := &fakeIndex{
		raw: []types.SearchHit{hit("a.go:computeTotal", types.CollectionRaw, 0.81)},
	}
	s := newTestSearcher(t, idx)
	s.EnableCache(10, time.Minute)

	_, err := s.Search(context.Background(), "total computation")
	require.NoError(t, err)
	first, second := idx.curatedCalls, idx.rawCalls

	result, err := s.Search(context.Background(), "total computation")
	require.NoError(t, err)
	assert.Equal(t, first, idx.curatedCalls, "repeat query must be served from cache")
	assert.Equal(t, second, idx.rawCalls)
	require.Len(t, result.Hits, 1)

	// Mutating a cached result must not poison the cache.
	result.Hits[0].ID = "mutated"
	again, err := s.Search(context.Background(), "total computation")
	require.NoError(t, err)
	assert.Equal(t, "a.go:computeTotal", again.Hits[0].ID)

	s.InvalidateCache()
	_, err = s.Search(context.Background(), "total computation")
	require.NoError(t, err)
	assert.Equal(t, first+1, idx.curatedCalls, "invalidation must force a fresh query")
}
