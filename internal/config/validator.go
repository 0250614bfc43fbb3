package config

import (
	"fmt"
	"strings"
)

// Validator validates configuration values.
type Validator struct{}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateProvider validates a chat provider name.
func (v *Validator) ValidateProvider(provider string) error {
	if provider == "" {
		return nil // Auto-detect
	}

	validProviders := []string{"groq", "openai", "anthropic", "ollama"}
	for _, valid := range validProviders {
		if provider == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid provider: %s (must be one of: %s)", provider, strings.Join(validProviders, ", "))
}

// ValidateAPIKey validates an API key format.
func (v *Validator) ValidateAPIKey(key string, provider string) error {
	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}

	switch provider {
	case "anthropic":
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case "openai":
		if !strings.HasPrefix(key, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	case "groq":
		if !strings.HasPrefix(key, "gsk_") {
			return fmt.Errorf("invalid Groq API key format (should start with gsk_)")
		}
	}

	return nil
}

// ValidateTemperature validates temperature value.
func (v *Validator) ValidateTemperature(temp float64) error {
	if temp < 0 || temp > 1 {
		return fmt.Errorf("temperature must be between 0 and 1, got %f", temp)
	}
	return nil
}

// ValidateMaxTokens validates max tokens value.
func (v *Validator) ValidateMaxTokens(tokens int) error {
	if tokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", tokens)
	}
	if tokens > 200000 {
		return fmt.Errorf("max tokens too large (max 200000), got %d", tokens)
	}
	return nil
}

// ValidateLogLevel validates log level.
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateEmbeddingProvider validates the embedding provider name.
func (v *Validator) ValidateEmbeddingProvider(provider string) error {
	if provider == "" {
		return nil // Semantic memory disabled
	}

	validProviders := []string{"openai", "ollama"}
	for _, valid := range validProviders {
		if provider == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid embedding provider: %s (must be one of: %s)", provider, strings.Join(validProviders, ", "))
}

// ValidatePort validates a TCP port.
func (v *Validator) ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// ValidateConfig performs comprehensive validation.
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidateProvider(cfg.Provider); err != nil {
		errors = append(errors, err)
	}

	// A usable backend must exist: either a key for a cloud provider or
	// an explicit Ollama selection.
	if cfg.ActiveProvider() == "" {
		errors = append(errors, fmt.Errorf(
			"no usable provider: set an API key (GROQ_API_KEY, ANTHROPIC_API_KEY, OPENAI_API_KEY) or provider=ollama"))
	}

	if provider := cfg.ActiveProvider(); provider != "" && provider != "ollama" {
		if err := v.ValidateAPIKey(cfg.APIKeyFor(provider), provider); err != nil {
			errors = append(errors, err)
		}
	}

	if cfg.Temperature != 0 {
		if err := v.ValidateTemperature(cfg.Temperature); err != nil {
			errors = append(errors, err)
		}
	}
	if cfg.MaxTokens != 0 {
		if err := v.ValidateMaxTokens(cfg.MaxTokens); err != nil {
			errors = append(errors, err)
		}
	}

	if err := v.ValidateEmbeddingProvider(cfg.Embedding.Provider); err != nil {
		errors = append(errors, err)
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}

	if cfg.Web.Port != 0 {
		if err := v.ValidatePort(cfg.Web.Port); err != nil {
			errors = append(errors, err)
		}
	}

	return errors
}
