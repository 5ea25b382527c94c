package embedder

import (
	"fmt"
	"strings"
)

// Config holds embedder configuration
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	CacheSize   int
	QueryPrefix string
}

// New creates a lazily-initialized embedder for the configured provider.
// The underlying model is not touched until the first embed call.
func New(cfg Config) (Embedder, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = ProviderLocal
	}

	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = 10000
	}

	switch provider {
	case ProviderOpenAI:
		model := cfg.Model
		if model == "" {
			model = DefaultOpenAIModel
		}
		return NewLazy(ProviderOpenAI, model, OpenAIDimension, func() (Embedder, error) {
			p, err := NewOpenAIProvider(cfg.APIKey, model, NewCache(cacheSize))
			if err != nil {
				return nil, err
			}
			if cfg.QueryPrefix != "" {
				p.SetQueryPrefix(cfg.QueryPrefix)
			}
			return p, nil
		}), nil
	case ProviderLocal:
		return NewLazy(ProviderLocal, DefaultLocalModel, LocalDimension, func() (Embedder, error) {
			return NewLocalProvider(NewCache(cacheSize))
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}
