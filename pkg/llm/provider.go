// Package llm abstracts the chat-completion backends the companion can
// talk to. Providers share a minimal Generate interface; backends that
// support token streaming additionally implement StreamingProvider.
package llm

import (
	"context"
	"fmt"
)

// Message roles on the wire.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn of conversation sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider generates a reply to a conversation.
type Provider interface {
	// Generate returns the model's reply to the given messages. The
	// system prompt is passed separately because backends carry it in
	// different places.
	Generate(ctx context.Context, messages []Message, system string) (string, error)

	// Name returns the provider name, e.g. "groq".
	Name() string
}

// StreamingProvider is implemented by backends that can deliver the
// reply incrementally. onChunk is called for each token batch; a
// non-nil return aborts the stream.
type StreamingProvider interface {
	Provider
	Stream(ctx context.Context, messages []Message, system string, onChunk func(chunk string) error) (string, error)
}

// Config selects and tunes a provider.
type Config struct {
	Provider    string  // groq, openai, anthropic or ollama
	Model       string  // empty selects the provider default
	APIKey      string
	BaseURL     string  // overrides the provider endpoint (ollama host, proxies)
	Temperature float64 // zero means provider default
	MaxTokens   int     // zero means defaultMaxTokens
}

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2048

	groqBaseURL = "https://api.groq.com/openai/v1"
)

// Default models per provider.
const (
	defaultGroqModel      = "llama3-70b-8192"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	defaultOllamaModel    = "llama3"
)

// New creates the provider named in cfg.
func New(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "groq":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("groq: API key is required")
		}
		if cfg.Model == "" {
			cfg.Model = defaultGroqModel
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = groqBaseURL
		}
		return newOpenAIProvider("groq", cfg), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai: API key is required")
		}
		if cfg.Model == "" {
			cfg.Model = defaultOpenAIModel
		}
		return newOpenAIProvider("openai", cfg), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic: API key is required")
		}
		if cfg.Model == "" {
			cfg.Model = defaultAnthropicModel
		}
		return newAnthropicProvider(cfg), nil
	case "ollama":
		if cfg.Model == "" {
			cfg.Model = defaultOllamaModel
		}
		return newOllamaProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

func (c Config) temperature() float64 {
	if c.Temperature > 0 {
		return c.Temperature
	}
	return defaultTemperature
}

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return defaultMaxTokens
}
