// Package config loads and validates the Yui configuration from
// ~/.yui/yui.json and the environment.
package config

// Config represents the main Yui configuration.
type Config struct {
	// Provider selects the chat backend: groq, openai, anthropic or
	// ollama. Empty auto-detects from available API keys.
	Provider string `json:"provider" mapstructure:"provider"`

	// Model overrides the provider's default chat model.
	Model string `json:"model" mapstructure:"model"`

	// Generation settings
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `json:"max_tokens" mapstructure:"max_tokens"`

	// API keys per provider
	APIKeys APIKeysConfig `json:"api_keys" mapstructure:"api_keys"`

	// OllamaURL points at a local Ollama server.
	OllamaURL string `json:"ollama_url" mapstructure:"ollama_url"`

	// Bot settings
	BotName            string `json:"bot_name" mapstructure:"bot_name"`
	DefaultPersonality string `json:"default_personality" mapstructure:"default_personality"`
	UserName           string `json:"user_name" mapstructure:"user_name"`

	// DataDir holds the memory databases and logs.
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Embedding configures semantic memory. An empty provider disables
	// the vector index; conversation search then uses keyword matching.
	Embedding EmbeddingConfig `json:"embedding" mapstructure:"embedding"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Web holds the WebSocket server configuration.
	Web WebConfig `json:"web" mapstructure:"web"`
}

// APIKeysConfig holds per-provider API keys. Empty keys fall back to
// the conventional environment variables (GROQ_API_KEY and friends).
type APIKeysConfig struct {
	Groq      string `json:"groq" mapstructure:"groq"`
	OpenAI    string `json:"openai" mapstructure:"openai"`
	Anthropic string `json:"anthropic" mapstructure:"anthropic"`
}

// EmbeddingConfig configures the embedding encoder behind semantic
// memory.
type EmbeddingConfig struct {
	Provider  string `json:"provider" mapstructure:"provider"` // openai or ollama
	Model     string `json:"model" mapstructure:"model"`
	APIKey    string `json:"api_key" mapstructure:"api_key"`
	BaseURL   string `json:"base_url" mapstructure:"base_url"`
	Dimension int    `json:"dimension" mapstructure:"dimension"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level"`
	File  string `json:"file" mapstructure:"file"`
}

// WebConfig holds the WebSocket server configuration.
type WebConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Temperature:        0.7,
		MaxTokens:          2048,
		BotName:            "Yui",
		DefaultPersonality: "yui",
		Logging: LoggingConfig{
			Level: "info",
		},
		Web: WebConfig{
			Host: "127.0.0.1",
			Port: 8000,
		},
	}
}

// ActiveProvider resolves which chat backend to use. An explicitly
// configured provider wins when it is usable; otherwise the first
// provider with an API key is picked. Ollama never needs a key.
func (c *Config) ActiveProvider() string {
	switch c.Provider {
	case "ollama":
		return "ollama"
	case "groq":
		if c.APIKeys.Groq != "" {
			return "groq"
		}
	case "openai":
		if c.APIKeys.OpenAI != "" {
			return "openai"
		}
	case "anthropic":
		if c.APIKeys.Anthropic != "" {
			return "anthropic"
		}
	}

	switch {
	case c.APIKeys.Groq != "":
		return "groq"
	case c.APIKeys.Anthropic != "":
		return "anthropic"
	case c.APIKeys.OpenAI != "":
		return "openai"
	default:
		return ""
	}
}

// APIKeyFor returns the configured key for the named provider.
func (c *Config) APIKeyFor(provider string) string {
	switch provider {
	case "groq":
		return c.APIKeys.Groq
	case "openai":
		return c.APIKeys.OpenAI
	case "anthropic":
		return c.APIKeys.Anthropic
	default:
		return ""
	}
}
