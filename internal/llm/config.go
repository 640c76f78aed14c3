package llm

import (
	"fmt"
	"time"
)

// Config selects and configures the AI provider.
type Config struct {
	// Provider is one of "openai", "gemini", "anthropic" or "mock".
	Provider string

	// APIKey is the server-side key. Requests may bring their own.
	APIKey string
	// Model overrides the provider default; friendly names are resolved.
	Model string
	// BaseURL points an OpenAI-compatible client at another endpoint.
	BaseURL string

	Retry RetryConfig

	// Timeout bounds a single call including retries.
	Timeout time.Duration

	// MaxTokens caps each response.
	MaxTokens int
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"gemini":    "gemini-flash",
	"anthropic": "claude-haiku",
}

// DefaultConfig returns the Gemini configuration the admin panel uses
// out of the box.
func DefaultConfig() Config {
	return Config{
		Provider: "gemini",
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout:   90 * time.Second,
		MaxTokens: 8192,
	}
}

// Validate checks the provider name. A missing key is not an error here
// because callers may pass one per request.
func (c Config) Validate() error {
	switch c.Provider {
	case "openai", "gemini", "anthropic", "mock":
		return nil
	}
	return fmt.Errorf("unknown LLM provider: %q", c.Provider)
}

func (c Config) model() string {
	if c.Model != "" {
		return c.Model
	}
	return defaultModels[c.Provider]
}

// resolveModel maps a friendly model name to a provider model ID. Unknown
// names are used as-is.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
