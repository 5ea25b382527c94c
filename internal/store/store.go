package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/semindex/semindex/pkg/types"
)

var (
	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrDimensionMismatch is returned when a vector's dimension doesn't
	// match the rest of the collection
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Record is one embeddable entry in a vector collection: an extracted chunk
// in the raw collection, or a folded agreement in the curated collection.
type Record struct {
	ID          string
	Collection  types.Collection
	FilePath    string
	Name        string
	Kind        string
	Language    string
	StartLine   int
	EndLine     int
	Content     string
	Fingerprint string
	Metadata    map[string]string
	Vector      []float32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the record can be stored.
func (r *Record) Validate() error {
	if r.ID == "" {
		return errors.New("record ID is required")
	}
	if r.Collection != types.CollectionCurated && r.Collection != types.CollectionRaw {
		return fmt.Errorf("invalid collection %q", r.Collection)
	}
	if len(r.Vector) == 0 {
		return errors.New("record vector is required")
	}
	return nil
}

// RecordFromChunk builds a raw-collection record from an extracted chunk and
// its embedding vector.
func RecordFromChunk(chunk *types.Chunk, vector []float32) *Record {
	return &Record{
		ID:          chunk.ID,
		Collection:  types.CollectionRaw,
		FilePath:    chunk.FilePath,
		Name:        chunk.Name,
		Kind:        string(chunk.Kind),
		Language:    chunk.Language,
		StartLine:   chunk.StartLine,
		EndLine:     chunk.EndLine,
		Content:     chunk.Content,
		Fingerprint: chunk.Fingerprint,
		Metadata:    chunk.Metadata,
		Vector:      vector,
	}
}

// RecordFromAgreement builds a curated-collection record from a confirmed
// agreement and the embedding of its textual representation. Curated records
// carry no file path, so file-scoped deletion during sync can never evict
// them.
func RecordFromAgreement(a *types.Agreement, vector []float32) *Record {
	return &Record{
		ID:         "agreement:" + a.NLTerm + "|" + a.Symbol,
		Collection: types.CollectionCurated,
		Name:       a.Symbol,
		Kind:       "agreement",
		Content:    a.CuratedText(),
		Metadata: map[string]string{
			"nl_term":    a.NLTerm,
			"session_id": a.SessionID,
		},
		Vector: vector,
	}
}

// Index is the dual-collection vector store. The curated and raw collections
// are independently queryable; no fallback between them happens here. The
// short-circuit policy belongs to the search orchestrator.
type Index interface {
	// Upsert inserts or replaces records by (collection, id).
	Upsert(ctx context.Context, records []*Record) error

	// DeleteByFile removes every record of the collection sourced from the
	// given file path and reports how many were removed.
	DeleteByFile(ctx context.Context, collection types.Collection, filePath string) (int, error)

	// Query returns the topK nearest records of one collection by cosine
	// similarity, best first. An empty collection yields an empty slice,
	// not an error.
	Query(ctx context.Context, collection types.Collection, vector []float32, topK int) ([]types.SearchHit, error)

	// Get fetches one record by identity.
	Get(ctx context.Context, collection types.Collection, id string) (*Record, error)

	// Count reports the number of records in a collection.
	Count(ctx context.Context, collection types.Collection) (int, error)

	// Reset drops every record of one collection (used by forced re-index;
	// never called on curated by the sync path).
	Reset(ctx context.Context, collection types.Collection) error

	// Close releases the underlying database.
	Close() error
}
