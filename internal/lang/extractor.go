package lang

import (
	"log"

	"github.com/semindex/semindex/pkg/types"
)

// DefaultTokenBudget caps the estimated token count of a single chunk's
// content before truncation.
const DefaultTokenBudget = 2000

// TruncationMarker is appended to oversized chunk content so truncation is
// always explicit, never silent.
const TruncationMarker = "\n/* ...chunk truncated... */"

// Extractor turns a source file into chunks using the per-language strategy
// registry, with a line-window fallback for unsupported languages and parser
// failures.
type Extractor struct {
	registry    *Registry
	tokenBudget int
}

// Config contains configuration for the extractor.
type Config struct {
	WindowSize  int // lines per fallback window (default 50)
	TokenBudget int // max estimated tokens per chunk before truncation
}

// NewExtractor creates an extractor with the built-in strategies registered.
func NewExtractor(cfg Config) *Extractor {
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = DefaultTokenBudget
	}
	return &Extractor{
		registry:    NewRegistry(cfg.WindowSize),
		tokenBudget: cfg.TokenBudget,
	}
}

// Register adds or replaces a language strategy.
func (e *Extractor) Register(s Strategy) {
	e.registry.Register(s)
}

// ChunkFile splits a file into chunks. A strategy failure on one file never
// propagates: the file degrades to line windows and stays searchable.
func (e *Extractor) ChunkFile(path string, content []byte) []*types.Chunk {
	var chunks []*types.Chunk

	lang := DetectLanguage(path)
	strategy := e.registry.Lookup(lang)
	if strategy != nil {
		extracted, err := strategy.Chunk(path, content)
		if err != nil {
			log.Printf("chunk %s: %v; falling back to line windows", path, err)
		} else {
			chunks = extracted
		}
	}

	if chunks == nil {
		windowed, err := e.registry.Fallback().Chunk(path, content)
		if err != nil {
			// The window strategy cannot fail today; guard anyway.
			log.Printf("window chunk %s: %v", path, err)
			return nil
		}
		chunks = windowed
	}

	for _, chunk := range chunks {
		e.truncate(chunk)
	}
	return chunks
}

// truncate caps oversized chunk content at the token budget with an explicit
// marker and recomputes the fingerprint over the bytes actually embedded.
func (e *Extractor) truncate(chunk *types.Chunk) {
	if chunk.EstimateTokens() <= e.tokenBudget {
		return
	}
	maxChars := e.tokenBudget * 4
	if maxChars > len(chunk.Content) {
		return
	}
	chunk.Content = chunk.Content[:maxChars] + TruncationMarker
	chunk.Truncated = true
	if chunk.Metadata == nil {
		chunk.Metadata = make(map[string]string)
	}
	chunk.Metadata["truncated"] = "true"
	chunk.ComputeFingerprint()
}
