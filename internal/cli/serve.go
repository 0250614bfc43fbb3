package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/projectyui/yui/internal/web"
	"github.com/projectyui/yui/pkg/conversation"
	"github.com/projectyui/yui/pkg/llm"
	"github.com/projectyui/yui/pkg/memory"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WebSocket chat server",
	Long: `Start the WebSocket chat server for browser clients.
Clients connect to ws://host:port/ws/{user} and exchange JSON messages.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "bind address (overrides config)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Web.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Web.Port = port
	}

	log, err := newLogger(cfg, true)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	active := cfg.ActiveProvider()

	// Every connection gets its own provider and memory bound to the
	// user named in the URL; memory databases are shared on disk.
	factory := func(userName string) (*conversation.Orchestrator, error) {
		provider, err := llm.New(llm.Config{
			Provider:    active,
			Model:       cfg.Model,
			APIKey:      cfg.APIKeyFor(active),
			BaseURL:     providerBaseURL(cfg, active),
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
		if err != nil {
			return nil, err
		}

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
			UserID:  userName,
			DBPath:  filepath.Join(cfg.DataDir, "yui_memory.db"),
			Encoder: encoder,
			Logger:  log.GetZerolog(),
		})
		if err != nil {
			return nil, err
		}

		return conversation.NewOrchestrator(conversation.Config{
			Provider:    provider,
			Memory:      mem,
			Personality: cfg.DefaultPersonality,
			UserName:    userName,
			Logger:      log.GetZerolog(),
		})
	}

	server, err := web.NewServer(web.Config{
		Host:            cfg.Web.Host,
		Port:            cfg.Web.Port,
		ProviderName:    active,
		NewConversation: factory,
		Logger:          log.GetZerolog(),
	})
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	// Stop on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		if err := server.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop web server")
		}
	}()

	fmt.Printf("🌙 Yui web server listening on %s:%d\n", cfg.Web.Host, cfg.Web.Port)
	return server.Start()
}
