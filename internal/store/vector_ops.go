package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/semindex/semindex/pkg/types"
)

// Query returns the topK nearest records of one collection by cosine
// similarity, best first. An empty or not-yet-synced collection yields an
// empty, well-formed result so callers can distinguish "no match" from
// "index unusable".
func (s *SQLiteIndex) Query(ctx context.Context, collection types.Collection, vector []float32, topK int) ([]types.SearchHit, error) {
	if topK <= 0 {
		return []types.SearchHit{}, nil
	}
	if VectorExtensionAvailable {
		return s.queryOptimized(ctx, collection, vector, topK)
	}
	return s.queryFallback(ctx, collection, vector, topK)
}

// queryOptimized computes distance at the database layer via sqlite-vec.
// vec_distance_cosine returns distance (lower is better); converted to the
// [0,1] similarity the rest of the engine expects.
func (s *SQLiteIndex) queryOptimized(ctx context.Context, collection types.Collection, vector []float32, topK int) ([]types.SearchHit, error) {
	queryBlob := serializeVector(vector)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_path, name, kind, start_line, end_line, content, metadata,
			(2.0 - vec_distance_cosine(vector, ?)) / 2.0 AS similarity
		FROM records
		WHERE collection = ? AND dimension = ?
		ORDER BY similarity DESC
		LIMIT ?`,
		queryBlob, string(collection), len(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]types.SearchHit, 0, topK)
	for rows.Next() {
		hit, err := scanHit(rows, collection)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// queryFallback loads candidate vectors and ranks them in Go. Used for pure
// Go builds without the sqlite-vec extension.
func (s *SQLiteIndex) queryFallback(ctx context.Context, collection types.Collection, vector []float32, topK int) ([]types.SearchHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_path, name, kind, start_line, end_line, content, metadata, vector
		FROM records
		WHERE collection = ? AND dimension = ?`,
		string(collection), len(vector))
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []types.SearchHit
	for rows.Next() {
		var (
			hit          types.SearchHit
			metadataJSON *string
			vectorBlob   []byte
		)
		if err := rows.Scan(&hit.ID, &hit.FilePath, &hit.Name, &hit.Kind,
			&hit.StartLine, &hit.EndLine, &hit.Content, &metadataJSON, &vectorBlob); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		hit.Collection = collection
		hit.Metadata = unmarshalMetadata(metadataJSON)
		hit.Score = cosineSimilarity(vector, deserializeVector(vectorBlob))
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	if hits == nil {
		hits = []types.SearchHit{}
	}
	return hits, nil
}

type hitScanner interface {
	Scan(dest ...interface{}) error
}

func scanHit(row hitScanner, collection types.Collection) (types.SearchHit, error) {
	var (
		hit          types.SearchHit
		metadataJSON *string
	)
	if err := row.Scan(&hit.ID, &hit.FilePath, &hit.Name, &hit.Kind,
		&hit.StartLine, &hit.EndLine, &hit.Content, &metadataJSON, &hit.Score); err != nil {
		return hit, fmt.Errorf("scan hit: %w", err)
	}
	hit.Collection = collection
	hit.Metadata = unmarshalMetadata(metadataJSON)
	return hit, nil
}

func unmarshalMetadata(metadataJSON *string) map[string]string {
	if metadataJSON == nil || *metadataJSON == "" {
		return nil
	}
	metadata := make(map[string]string)
	// Malformed metadata degrades to no metadata rather than failing the hit.
	if err := json.Unmarshal([]byte(*metadataJSON), &metadata); err != nil {
		return nil
	}
	return metadata
}

// cosineSimilarity computes cosine similarity mapped into [0, 1].
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	score := (dot/(math.Sqrt(normA)*math.Sqrt(normB)) + 1) / 2
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// serializeVector converts a float32 slice to little-endian bytes.
func serializeVector(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// deserializeVector converts little-endian bytes back to a float32 slice.
func deserializeVector(buf []byte) []float32 {
	vector := make([]float32, len(buf)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vector
}
