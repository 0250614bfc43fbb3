// Package web exposes the companion over WebSocket for browser chat
// clients. Each connection gets its own conversation bound to the user
// named in the URL, mirroring the terminal chat command.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/projectyui/yui/pkg/conversation"
	"github.com/projectyui/yui/pkg/tools"
)

// ConversationFactory builds a conversation for a connecting user.
type ConversationFactory func(userName string) (*conversation.Orchestrator, error)

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	ProviderName    string // reported by the health endpoint
	NewConversation ConversationFactory

	// Tools answers factual requests before the model runs. Nil gets
	// the default executor over the public APIs.
	Tools *tools.Executor

	Logger zerolog.Logger
}

// Server is the WebSocket chat server.
type Server struct {
	host            string
	port            int
	providerName    string
	newConversation ConversationFactory
	tools           *tools.Executor
	server          *http.Server
	upgrader        websocket.Upgrader
	logger          zerolog.Logger

	mu             sync.RWMutex
	clients        map[string]*client
	isShuttingDown bool
}

// client is one connected chat session.
type client struct {
	id           string
	userName     string
	conn         *websocket.Conn
	conversation *conversation.Orchestrator
	connectedAt  time.Time

	writeMu sync.Mutex
}

// NewServer creates a new chat server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.NewConversation == nil {
		return nil, fmt.Errorf("conversation factory is required")
	}
	if cfg.Tools == nil {
		cfg.Tools = tools.NewExecutor(tools.NewClient(tools.ClientConfig{}), cfg.Logger)
	}

	return &Server{
		host:            cfg.Host,
		port:            cfg.Port,
		providerName:    cfg.ProviderName,
		newConversation: cfg.NewConversation,
		tools:           cfg.Tools,
		logger:          cfg.Logger.With().Str("component", "web").Logger(),
		clients:         make(map[string]*client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Browser clients connect from file:// and localhost
			},
		},
	}, nil
}

// Handler returns the HTTP handler serving the chat endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/", s.handleWebSocket)
	mux.HandleFunc("/api/health", s.handleHealth)
	return mux
}

// Start starts the server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.host, s.port),
		Handler: s.Handler(),
	}

	s.logger.Info().Str("host", s.host).Int("port", s.port).Msg("Starting web server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the server, closing every live conversation.
func (s *Server) Stop() error {
	s.mu.Lock()
	s.isShuttingDown = true
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	s.logger.Info().Int("clients", len(clients)).Msg("Shutting down web server")

	for _, c := range clients {
		c.send(wireMessage{Type: "system", Content: "Server is shutting down"})
		c.conn.Close()
	}

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"provider":  s.providerName,
		"clients":   s.ClientCount(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	shuttingDown := s.isShuttingDown
	s.mu.RUnlock()
	if shuttingDown {
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}

	userName := strings.TrimPrefix(r.URL.Path, "/ws/")
	if userName == "" || strings.Contains(userName, "/") {
		http.Error(w, "user name required: /ws/{user}", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	conv, err := s.newConversation(userName)
	if err != nil {
		s.logger.Error().Err(err).Str("user", userName).Msg("Failed to create conversation")
		conn.WriteJSON(wireMessage{Type: "error", Content: fmt.Sprintf("Error: %v", err), Timestamp: now()})
		conn.Close()
		return
	}

	clientID, _ := gonanoid.New()
	c := &client{
		id:           clientID,
		userName:     userName,
		conn:         conn,
		conversation: conv,
		connectedAt:  time.Now(),
	}

	s.mu.Lock()
	s.clients[clientID] = c
	s.mu.Unlock()

	s.logger.Info().
		Str("clientId", clientID).
		Str("user", userName).
		Str("ip", r.RemoteAddr).
		Msg("Client connected")

	c.send(wireMessage{
		Type:    "system",
		Content: fmt.Sprintf("✨ Welcome %s! I'm %s. How can I help you today?", userName, conv.Persona().Name),
	})

	go s.serveClient(c)
}

func (s *Server) serveClient(c *client) {
	defer s.dropClient(c)

	for {
		var incoming wireMessage
		if err := c.conn.ReadJSON(&incoming); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Str("clientId", c.id).Msg("Connection error")
			}
			return
		}

		content := strings.TrimSpace(incoming.Content)
		if content == "" {
			continue
		}

		if strings.HasPrefix(content, "/") {
			if closed := s.handleCommand(c, content); closed {
				return
			}
			continue
		}

		c.send(wireMessage{Type: "typing", Content: fmt.Sprintf("%s is thinking...", c.conversation.Persona().Name)})

		// Factual lookups answer before the model; the companion still
		// replies to the message afterwards.
		if result, ok := s.tools.ProcessMessage(context.Background(), content); ok {
			c.send(wireMessage{Type: "tool", Content: result})
		}

		reply, err := c.conversation.SendMessage(context.Background(), content)
		if err != nil {
			s.logger.Error().Err(err).Str("clientId", c.id).Msg("Failed to generate reply")
			c.send(wireMessage{Type: "error", Content: fmt.Sprintf("Error: %v", err)})
			continue
		}

		c.send(wireMessage{
			Type:        "assistant",
			Content:     reply,
			Personality: c.conversation.Persona().Name,
		})
	}
}

func (s *Server) dropClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()

	c.conn.Close()
	if err := c.conversation.Close(); err != nil {
		s.logger.Warn().Err(err).Str("clientId", c.id).Msg("Failed to close conversation")
	}

	s.logger.Info().Str("clientId", c.id).Str("user", c.userName).Msg("Client disconnected")
}
