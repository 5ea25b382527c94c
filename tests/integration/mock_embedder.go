package integration

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/semindex/semindex/internal/embedder"
)

const mockDimension = 256

// MockEmbedder is a deterministic bag-of-words embedder. Texts sharing words
// score high, disjoint texts score near the cosine midpoint, which gives the
// short-circuit and validation thresholds something meaningful to act on
// without a real model.
type MockEmbedder struct {
	mu        sync.Mutex
	CallCount int
	Texts     []string
}

// NewMockEmbedder creates a mock embedder.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

func (m *MockEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	if err := embedder.ValidateRequest(req); err != nil {
		return nil, err
	}
	m.record(req.Text)
	return &embedder.Embedding{
		Vector:    wordBagVector(req.Text),
		Dimension: mockDimension,
		Provider:  m.Provider(),
		Model:     m.Model(),
	}, nil
}

func (m *MockEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	if err := embedder.ValidateBatchRequest(req); err != nil {
		return nil, err
	}
	m.record(req.Texts...)

	embeddings := make([]*embedder.Embedding, len(req.Texts))
	for i, text := range req.Texts {
		embeddings[i] = &embedder.Embedding{
			Vector:    wordBagVector(text),
			Dimension: mockDimension,
			Provider:  m.Provider(),
			Model:     m.Model(),
		}
	}
	return &embedder.BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   m.Provider(),
		Model:      m.Model(),
	}, nil
}

func (m *MockEmbedder) Dimension() int   { return mockDimension }
func (m *MockEmbedder) Provider() string { return "mock" }
func (m *MockEmbedder) Model() string    { return "word-bag-v1" }
func (m *MockEmbedder) Close() error     { return nil }

// Reset clears the recorded call history.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.Texts = nil
}

// EmbeddedTexts returns a copy of every text embedded so far.
func (m *MockEmbedder) EmbeddedTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.Texts...)
}

func (m *MockEmbedder) record(texts ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount++
	m.Texts = append(m.Texts, texts...)
}

// wordBagVector maps each lowercase word to a hashed slot and counts
// occurrences. Cosine similarity over these vectors behaves like word
// overlap.
func wordBagVector(text string) []float32 {
	vector := make([]float32, mockDimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vector[h.Sum32()%mockDimension]++
	}
	return vector
}
