package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semindex/semindex/pkg/types"
)

func newTestIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	idx, err := NewSQLiteIndex(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func testRecord(id string, collection types.Collection, filePath string, vector []float32) *Record {
	return &Record{
		ID:         id,
		Collection: collection,
		FilePath:   filePath,
		Name:       id,
		Kind:       string(types.ChunkFunction),
		Language:   "go",
		StartLine:  1,
		EndLine:    5,
		Content:    "func " + id + "() {}",
		Vector:     vector,
	}
}

func TestUpsertAndGet(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	rec := testRecord("a.go:Alpha", types.CollectionRaw, "a.go", []float32{1, 0, 0})
	rec.Metadata = map[string]string{"package": "alpha"}
	require.NoError(t, idx.Upsert(ctx, []*Record{rec}))

	got, err := idx.Get(ctx, types.CollectionRaw, "a.go:Alpha")
	require.NoError(t, err)
	assert.Equal(t, rec.Content, got.Content)
	assert.Equal(t, []float32{1, 0, 0}, got.Vector)
	assert.Equal(t, "alpha", got.Metadata["package"])
	assert.False(t, got.CreatedAt.IsZero())
}

func TestUpsertReplacesByIdentity(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	rec := testRecord("a.go:Alpha", types.CollectionRaw, "a.go", []float32{1, 0, 0})
	require.NoError(t, idx.Upsert(ctx, []*Record{rec}))

	updated := testRecord("a.go:Alpha", types.CollectionRaw, "a.go", []float32{0, 1, 0})
	updated.Content = "func Alpha() { /* changed */ }"
	require.NoError(t, idx.Upsert(ctx, []*Record{updated}))

	count, err := idx.Count(ctx, types.CollectionRaw)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := idx.Get(ctx, types.CollectionRaw, "a.go:Alpha")
	require.NoError(t, err)
	assert.Equal(t, updated.Content, got.Content)
	assert.Equal(t, []float32{0, 1, 0}, got.Vector)
}

func TestCollectionsAreIndependent(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	// Same ID may exist in both collections without conflict.
	require.NoError(t, idx.Upsert(ctx, []*Record{
		testRecord("shared", types.CollectionRaw, "a.go", []float32{1, 0, 0}),
		testRecord("shared", types.CollectionCurated, "", []float32{0, 1, 0}),
	}))

	raw, err := idx.Count(ctx, types.CollectionRaw)
	require.NoError(t, err)
	curated, err := idx.Count(ctx, types.CollectionCurated)
	require.NoError(t, err)
	assert.Equal(t, 1, raw)
	assert.Equal(t, 1, curated)

	hits, err := idx.Query(ctx, types.CollectionRaw, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, types.CollectionRaw, hits[0].Collection)
}

func TestQueryRanksBySimilarity(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []*Record{
		testRecord("exact", types.CollectionRaw, "a.go", []float32{1, 0, 0}),
		testRecord("close", types.CollectionRaw, "b.go", []float32{0.9, 0.1, 0}),
		testRecord("far", types.CollectionRaw, "c.go", []float32{0, 0, 1}),
	}))

	hits, err := idx.Query(ctx, types.CollectionRaw, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "exact", hits[0].ID)
	assert.Equal(t, "close", hits[1].ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestQueryEmptyCollection(t *testing.T) {
	idx := newTestIndex(t)

	hits, err := idx.Query(context.Background(), types.CollectionCurated, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestQuerySkipsMismatchedDimensions(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []*Record{
		testRecord("three", types.CollectionRaw, "a.go", []float32{1, 0, 0}),
		testRecord("four", types.CollectionRaw, "b.go", []float32{1, 0, 0, 0}),
	}))

	hits, err := idx.Query(ctx, types.CollectionRaw, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "three", hits[0].ID)
}

func TestDeleteByFile(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []*Record{
		testRecord("a.go:One", types.CollectionRaw, "a.go", []float32{1, 0, 0}),
		testRecord("a.go:Two", types.CollectionRaw, "a.go", []float32{0, 1, 0}),
		testRecord("b.go:Three", types.CollectionRaw, "b.go", []float32{0, 0, 1}),
	}))

	deleted, err := idx.DeleteByFile(ctx, types.CollectionRaw, "a.go")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	count, err := idx.Count(ctx, types.CollectionRaw)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = idx.Get(ctx, types.CollectionRaw, "a.go:One")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteByFileSparesCurated(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	agreement := &types.Agreement{NLTerm: "total computation", Symbol: "computeTotal"}
	require.NoError(t, idx.Upsert(ctx, []*Record{
		RecordFromAgreement(agreement, []float32{1, 0, 0}),
		testRecord("a.go:computeTotal", types.CollectionRaw, "a.go", []float32{1, 0, 0}),
	}))

	// Curated records have no file path; no file-scoped delete can reach them.
	_, err := idx.DeleteByFile(ctx, types.CollectionCurated, "a.go")
	require.NoError(t, err)
	_, err = idx.DeleteByFile(ctx, types.CollectionRaw, "a.go")
	require.NoError(t, err)

	curated, err := idx.Count(ctx, types.CollectionCurated)
	require.NoError(t, err)
	assert.Equal(t, 1, curated)
}

func TestReset(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []*Record{
		testRecord("a.go:One", types.CollectionRaw, "a.go", []float32{1, 0, 0}),
		testRecord("kept", types.CollectionCurated, "", []float32{1, 0, 0}),
	}))

	require.NoError(t, idx.Reset(ctx, types.CollectionRaw))

	raw, err := idx.Count(ctx, types.CollectionRaw)
	require.NoError(t, err)
	curated, err := idx.Count(ctx, types.CollectionCurated)
	require.NoError(t, err)
	assert.Equal(t, 0, raw)
	assert.Equal(t, 1, curated)
}

func TestUpsertRejectsInvalidRecords(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	err := idx.Upsert(ctx, []*Record{{ID: "", Collection: types.CollectionRaw, Vector: []float32{1}}})
	assert.Error(t, err)

	err = idx.Upsert(ctx, []*Record{{ID: "x", Collection: "bogus", Vector: []float32{1}}})
	assert.Error(t, err)

	err = idx.Upsert(ctx, []*Record{{ID: "x", Collection: types.CollectionRaw}})
	assert.Error(t, err)
}

func TestVectorRoundTrip(t *testing.T) {
	vector := []float32{0.25, -1.5, 3.14159, 0}
	assert.Equal(t, vector, deserializeVector(serializeVector(vector)))
	assert.Empty(t, deserializeVector(nil))
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "index.db")
	ctx := context.Background()

	idx, err := NewSQLiteIndex(dbPath)
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, []*Record{
		testRecord("a.go:Alpha", types.CollectionRaw, "a.go", []float32{1, 0, 0}),
	}))
	require.NoError(t, idx.Close())

	reopened, err := NewSQLiteIndex(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count(ctx, types.CollectionRaw)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
