package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.Equal(t, "Yui", cfg.BotName)
	assert.Equal(t, "yui", cfg.DefaultPersonality)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 8000, cfg.Web.Port)
}

func TestActiveProvider_ExplicitChoice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "anthropic"
	cfg.APIKeys.Anthropic = "sk-ant-test"

	assert.Equal(t, "anthropic", cfg.ActiveProvider())
}

func TestActiveProvider_OllamaNeedsNoKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "ollama"

	assert.Equal(t, "ollama", cfg.ActiveProvider())
}

func TestActiveProvider_ExplicitWithoutKeyFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "groq" // no groq key configured
	cfg.APIKeys.OpenAI = "sk-test"

	assert.Equal(t, "openai", cfg.ActiveProvider())
}

func TestActiveProvider_AutoDetectOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKeys.Groq = "gsk_test"
	cfg.APIKeys.OpenAI = "sk-test"
	assert.Equal(t, "groq", cfg.ActiveProvider(), "groq wins auto-detection")

	cfg.APIKeys.Groq = ""
	cfg.APIKeys.Anthropic = "sk-ant-test"
	assert.Equal(t, "anthropic", cfg.ActiveProvider())

	cfg.APIKeys.Anthropic = ""
	assert.Equal(t, "openai", cfg.ActiveProvider())
}

func TestActiveProvider_NothingUsable(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.ActiveProvider())
}

func TestAPIKeyFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKeys.Groq = "gsk_a"
	cfg.APIKeys.OpenAI = "sk-b"
	cfg.APIKeys.Anthropic = "sk-ant-c"

	assert.Equal(t, "gsk_a", cfg.APIKeyFor("groq"))
	assert.Equal(t, "sk-b", cfg.APIKeyFor("openai"))
	assert.Equal(t, "sk-ant-c", cfg.APIKeyFor("anthropic"))
	assert.Empty(t, cfg.APIKeyFor("ollama"))
}
