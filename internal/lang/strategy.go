package lang

import (
	"path/filepath"
	"strings"

	"github.com/semindex/semindex/pkg/types"
)

// Strategy extracts structural chunks for one language. Implementations must
// tolerate malformed input: returning an error makes the extractor fall back
// to line windows for that file only.
type Strategy interface {
	// Language returns the language tag this strategy handles.
	Language() string

	// Chunk splits the already-read file content into structural chunks.
	Chunk(path string, content []byte) ([]*types.Chunk, error)
}

// compositeExtensions must be checked before the shorter suffix they contain
// (".d.ts" would otherwise be classified by ".ts" alone).
var compositeExtensions = map[string]string{
	".d.ts":  "typescript",
	".d.mts": "typescript",
	".d.cts": "typescript",
}

var extensions = map[string]string{
	".go":  "go",
	".py":  "python",
	".pyi": "python",
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".cjs": "javascript",
	".ts":  "typescript",
	".tsx": "typescript",
	".mts": "typescript",
	".cts": "typescript",
}

// DetectLanguage maps a filename to a language tag, or "" when unknown.
func DetectLanguage(path string) string {
	base := strings.ToLower(filepath.Base(path))
	for suffix, lang := range compositeExtensions {
		if strings.HasSuffix(base, suffix) {
			return lang
		}
	}
	if lang, ok := extensions[filepath.Ext(base)]; ok {
		return lang
	}
	return ""
}

// Registry maps language tags to chunking strategies. One explicit fallback
// strategy is always present for unregistered languages.
type Registry struct {
	strategies map[string]Strategy
	fallback   *WindowStrategy
}

// NewRegistry builds a registry with the built-in strategies registered and
// a line-window fallback of the given size.
func NewRegistry(windowSize int) *Registry {
	r := &Registry{
		strategies: make(map[string]Strategy),
		fallback:   NewWindowStrategy(windowSize),
	}
	r.Register(&GoStrategy{})
	r.Register(&PythonStrategy{})
	r.Register(&ScriptStrategy{Lang: "javascript"})
	r.Register(&ScriptStrategy{Lang: "typescript"})
	return r
}

// Register adds or replaces the strategy for its language tag.
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Language()] = s
}

// Lookup returns the strategy for a language tag, or nil when none is
// registered.
func (r *Registry) Lookup(lang string) Strategy {
	return r.strategies[lang]
}

// Fallback returns the always-present line-window strategy.
func (r *Registry) Fallback() *WindowStrategy {
	return r.fallback
}
