package cli

import (
	"fmt"
	"path/filepath"

	"github.com/projectyui/yui/internal/config"
	"github.com/projectyui/yui/internal/logger"
	"github.com/projectyui/yui/pkg/conversation"
	"github.com/projectyui/yui/pkg/llm"
	"github.com/projectyui/yui/pkg/memory"
)

// runtime bundles everything a command needs to talk to the companion.
type runtime struct {
	cfg          *config.Config
	log          *logger.Logger
	orchestrator *conversation.Orchestrator
}

func (r *runtime) Close() {
	if r.orchestrator != nil {
		if err := r.orchestrator.Close(); err != nil {
			r.log.Warn().Err(err).Msg("Failed to close conversation")
		}
	}
	r.log.Close()
}

// loadConfig reads the configuration, applies command-line overrides
// and rejects unusable setups.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if userName != "" {
		cfg.UserName = userName
	}
	if personaName != "" {
		cfg.DefaultPersonality = personaName
	}
	if cfg.UserName == "" {
		cfg.UserName = "User"
	}

	if errs := config.NewValidator().ValidateConfig(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %v", errs[0])
	}

	return cfg, nil
}

// newLogger builds the file-backed logger. Console output is reserved
// for the conversation itself, so log lines go to the file only.
func newLogger(cfg *config.Config, console bool) (*logger.Logger, error) {
	return logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   console,
		Pretty:    console,
		Redaction: true,
	})
}

// newRuntime assembles provider, memory and orchestrator from config.
func newRuntime(console bool) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg, console)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	active := cfg.ActiveProvider()
	provider, err := llm.New(llm.Config{
		Provider:    active,
		Model:       cfg.Model,
		APIKey:      cfg.APIKeyFor(active),
		BaseURL:     providerBaseURL(cfg, active),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create llm provider: %w", err)
	}

	// The encoder is best-effort: without one, memory still works but
	// recall downgrades to keyword search.
	var encoder memory.EmbeddingProvider
	if cfg.Embedding.Provider != "" {
		encoder, err = memory.NewEmbeddingProvider(
			cfg.Embedding.Provider,
			cfg.Embedding.APIKey,
			cfg.Embedding.Model,
			cfg.Embedding.BaseURL,
			cfg.Embedding.Dimension,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Embedding encoder unavailable, semantic memory disabled")
			encoder = nil
		}
	}

	mem, err := memory.NewManager(memory.Config{
		UserID:  cfg.UserName,
		DBPath:  filepath.Join(cfg.DataDir, "yui_memory.db"),
		Encoder: encoder,
		Logger:  log.GetZerolog(),
	})
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to open memory: %w", err)
	}

	orchestrator, err := conversation.NewOrchestrator(conversation.Config{
		Provider:    provider,
		Memory:      mem,
		Personality: cfg.DefaultPersonality,
		UserName:    cfg.UserName,
		Logger:      log.GetZerolog(),
	})
	if err != nil {
		mem.Close()
		log.Close()
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return &runtime{
		cfg:          cfg,
		log:          log,
		orchestrator: orchestrator,
	}, nil
}

func providerBaseURL(cfg *config.Config, provider string) string {
	if provider == "ollama" {
		return cfg.OllamaURL
	}
	return ""
}
