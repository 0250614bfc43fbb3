package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Loader handles configuration loading.
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader. An empty path means the
// default location, ~/.yui/yui.json.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load loads the configuration from file and the environment. A
// missing config file is not an error; defaults plus environment
// variables apply.
func (l *Loader) Load() (*Config, error) {
	configPath, err := l.resolvePath()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.SetEnvPrefix("YUI")
	v.AutomaticEnv()

	cfg := DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".yui")
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.DataDir, "yui.log")
	}

	return cfg, nil
}

// applyEnv fills empty fields from the conventional environment
// variables so keys never have to live in the config file.
func applyEnv(cfg *Config) {
	if cfg.APIKeys.Groq == "" {
		cfg.APIKeys.Groq = os.Getenv("GROQ_API_KEY")
	}
	if cfg.APIKeys.OpenAI == "" {
		cfg.APIKeys.OpenAI = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKeys.Anthropic == "" {
		cfg.APIKeys.Anthropic = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Provider == "" {
		cfg.Provider = os.Getenv("YUI_PROVIDER")
	}
	if cfg.UserName == "" {
		cfg.UserName = os.Getenv("YUI_USER_NAME")
	}
}

// Save writes the configuration to file.
func (l *Loader) Save(cfg *Config) error {
	configPath, err := l.resolvePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.Set("provider", cfg.Provider)
	v.Set("model", cfg.Model)
	v.Set("temperature", cfg.Temperature)
	v.Set("max_tokens", cfg.MaxTokens)
	v.Set("api_keys", cfg.APIKeys)
	v.Set("ollama_url", cfg.OllamaURL)
	v.Set("bot_name", cfg.BotName)
	v.Set("default_personality", cfg.DefaultPersonality)
	v.Set("user_name", cfg.UserName)
	v.Set("data_dir", cfg.DataDir)
	v.Set("embedding", cfg.Embedding)
	v.Set("logging", cfg.Logging)
	v.Set("web", cfg.Web)

	if err := v.WriteConfig(); err != nil {
		if os.IsNotExist(err) {
			if err := v.SafeWriteConfig(); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the config file path.
func (l *Loader) GetConfigPath() string {
	path, err := l.resolvePath()
	if err != nil {
		return ""
	}
	return path
}

func (l *Loader) resolvePath() (string, error) {
	if l.configPath != "" {
		return l.configPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".yui", "yui.json"), nil
}

// Load is a convenience function that creates a loader and loads the
// config.
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}
