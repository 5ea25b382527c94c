package embedder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"
)

// Provider configuration
const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	// Default models
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultLocalModel  = "local-hash-v1"

	// Dimensions
	OpenAIDimension = 1536
	LocalDimension  = 384

	// Batch limits
	DefaultBatchSize = 50
	MaxBatchSize     = 100

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0

	// Environment variables
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvOpenAIBase   = "SEMINDEX_OPENAI_BASE_URL"
)

// OpenAIProvider implements Embedder using an OpenAI-compatible embeddings
// API (including local servers such as Ollama's /v1 endpoint).
type OpenAIProvider struct {
	apiKey      string
	baseURL     string
	model       string
	queryPrefix string // model-specific query framing, optional
	httpClient  *http.Client
	cache       *Cache
}

// NewOpenAIProvider creates a new OpenAI-compatible embedder
func NewOpenAIProvider(apiKey, model string, cache *Cache) (*OpenAIProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	baseURL := os.Getenv(EnvOpenAIBase)
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
	}, nil
}

// SetQueryPrefix sets the prefix applied to RoleQuery texts, for models
// trained with query/passage framing. Not a correctness requirement.
func (o *OpenAIProvider) SetQueryPrefix(prefix string) {
	o.queryPrefix = prefix
}

func (o *OpenAIProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	text := o.frame(req.Text, req.Role)
	hash := ComputeHash(text)
	if o.cache != nil {
		if emb, ok := o.cache.Get(hash); ok {
			return emb, nil
		}
	}

	resp, err := o.GenerateBatch(ctx, BatchEmbeddingRequest{
		Texts: []string{req.Text},
		Role:  req.Role,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrProviderFailed)
	}
	return resp.Embeddings[0], nil
}

func (o *OpenAIProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}
	if len(req.Texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}

	texts := make([]string, len(req.Texts))
	for i, t := range req.Texts {
		texts[i] = o.frame(t, req.Role)
	}

	config := DefaultRetryConfig()
	embeddings, err := retryWithBackoff(ctx, config, func() ([]*Embedding, error) {
		return o.callAPI(ctx, texts)
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, MaxRetries, err)
	}

	if o.cache != nil {
		for i, emb := range embeddings {
			hash := ComputeHash(texts[i])
			emb.Hash = hash
			o.cache.Set(hash, emb)
		}
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderOpenAI,
		Model:      o.model,
	}, nil
}

func (o *OpenAIProvider) frame(text string, role TextRole) string {
	if role == RoleQuery && o.queryPrefix != "" {
		return o.queryPrefix + text
	}
	return text
}

func (o *OpenAIProvider) callAPI(ctx context.Context, texts []string) ([]*Embedding, error) {
	reqBody := map[string]interface{}{
		"input": texts,
		"model": o.model,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("api status %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(apiResp.Data))
	}

	embeddings := make([]*Embedding, len(apiResp.Data))
	for _, item := range apiResp.Data {
		if item.Index < 0 || item.Index >= len(embeddings) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		embeddings[item.Index] = &Embedding{
			Vector:    item.Embedding,
			Dimension: len(item.Embedding),
			Provider:  ProviderOpenAI,
			Model:     o.model,
		}
	}
	return embeddings, nil
}

func (o *OpenAIProvider) Dimension() int   { return OpenAIDimension }
func (o *OpenAIProvider) Provider() string { return ProviderOpenAI }
func (o *OpenAIProvider) Model() string    { return o.model }
func (o *OpenAIProvider) Close() error     { return nil }

// LocalProvider generates deterministic hash-derived vectors. It needs no
// network or model download, which makes it the default for tests and for
// environments without an API key. Vectors are stable per text, so
// similarity is meaningful for exact and near-exact matches only.
type LocalProvider struct {
	model string
	cache *Cache
}

// NewLocalProvider creates a new local embedder
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{
		model: DefaultLocalModel,
		cache: cache,
	}, nil
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	hash := ComputeHash(req.Text)
	if l.cache != nil {
		if emb, ok := l.cache.Get(hash); ok {
			return emb, nil
		}
	}

	emb := &Embedding{
		Vector:    HashVector(req.Text, LocalDimension),
		Dimension: LocalDimension,
		Provider:  ProviderLocal,
		Model:     l.model,
		Hash:      hash,
	}

	if l.cache != nil {
		l.cache.Set(hash, emb)
	}
	return emb, nil
}

func (l *LocalProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: text, Role: req.Role})
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderLocal,
		Model:      l.model,
	}, nil
}

func (l *LocalProvider) Dimension() int   { return LocalDimension }
func (l *LocalProvider) Provider() string { return ProviderLocal }
func (l *LocalProvider) Model() string    { return l.model }
func (l *LocalProvider) Close() error     { return nil }

// HashVector derives a deterministic unit vector from text. Exported for
// test fakes that need embeddings without a model.
func HashVector(text string, dimension int) []float32 {
	digest := sha256.Sum256([]byte(text))
	vector := make([]float32, dimension)

	var magnitude float64
	for i := 0; i < dimension; i++ {
		idx := (i * 4) % (len(digest) - 3)
		val := binary.BigEndian.Uint32(digest[idx : idx+4])
		// Perturb per slot so the vector isn't periodic in the digest.
		v := (float64(val^uint32(i*2654435761))/float64(1<<32))*2 - 1
		vector[i] = float32(v)
		magnitude += v * v
	}

	if magnitude > 0 {
		scale := float32(1.0 / math.Sqrt(magnitude))
		for i := range vector {
			vector[i] *= scale
		}
	}
	return vector
}
