package llm

import (
	"context"
	"fmt"
)

// NewProvider creates a Provider from configuration. apiKey overrides
// cfg.APIKey when not empty. The result is wrapped as
// caller -> retry -> logging -> base.
func NewProvider(ctx context.Context, cfg Config, apiKey string) (Provider, error) {
	if apiKey == "" {
		apiKey = cfg.APIKey
	}

	var base Provider
	var err error
	switch cfg.Provider {
	case "openai":
		base, err = NewOpenAIProvider(OpenAIConfig{APIKey: apiKey, Model: cfg.model(), BaseURL: cfg.BaseURL})
	case "gemini":
		base, err = NewGeminiProvider(ctx, GeminiConfig{APIKey: apiKey, Model: cfg.model(), BaseURL: cfg.BaseURL})
	case "anthropic":
		base, err = NewAnthropicProvider(AnthropicConfig{APIKey: apiKey, Model: cfg.model(), BaseURL: cfg.BaseURL})
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return WithRetry(WithLogging(base), cfg.Retry), nil
}
