// ABOUTME: Provider factory keyed by the configured provider name.
// ABOUTME: Reports missing credentials separately so callers can fall back to mock vectors.
package embeddings

import (
	"fmt"
	"strings"

	"github.com/2389-research/vibematch/internal/config"
)

// NewProvider builds the provider named in cfg.
// Returns ErrMissingCredentials when the provider needs an API key and none is set.
func NewProvider(cfg config.EmbeddingConfig) (Provider, error) {
	model := cfg.Model
	if model == "" {
		model = config.DefaultModel(cfg.Provider)
	}

	switch strings.ToLower(cfg.Provider) {
	case config.ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: set GEMINI_API_KEY or embedding.api_key", ErrMissingCredentials)
		}
		return NewGeminiProvider(cfg.BaseURL, cfg.APIKey, model, cfg.TaskType, cfg.Dimension), nil
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: set OPENAI_API_KEY or embedding.api_key", ErrMissingCredentials)
		}
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, model, cfg.Dimension), nil
	case config.ProviderOllama:
		return NewOllamaProvider(cfg.BaseURL, model, cfg.Dimension), nil
	case config.ProviderHash:
		return NewHashProvider(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
