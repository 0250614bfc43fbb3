package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Memory is one recalled fragment of past conversation, regardless of
// whether it came from the vector index or from keyword fallback.
type Memory struct {
	Content     string    `json:"content"`
	SessionID   string    `json:"session_id"`
	Personality string    `json:"personality"`
	Timestamp   time.Time `json:"timestamp"`
	Emotion     string    `json:"emotion,omitempty"`
}

// Manager is the single write/read path for conversational memory. It binds
// a logical session to one user for its lifetime, fans out writes to the
// relational store and the vector index, and answers relevance queries with
// graceful fallback to keyword search.
//
// The relational store is mandatory: construction fails with a
// *PersistenceError when it cannot be opened. The vector index is
// best-effort: any initialization failure disables semantic memory for the
// Manager's lifetime instead of failing construction.
type Manager struct {
	store         *Store
	vectors       *VectorIndex
	userID        string
	sessionID     string
	vectorEnabled bool
	queryTimeout  time.Duration
	profile       UserProfile
	logger        zerolog.Logger
}

// Config holds Memory Manager configuration.
type Config struct {
	// UserID is the user this manager serves. Required.
	UserID string

	// SessionID is the initial session identifier; a random one is
	// minted when empty.
	SessionID string

	// DBPath locates the relational store. Required.
	DBPath string

	// VectorDBPath locates the vector index database. Defaults to the
	// relational path with a .vec suffix.
	VectorDBPath string

	// Encoder embeds text for the vector index. When nil, semantic
	// memory is disabled and searches use keyword fallback only.
	Encoder EmbeddingProvider

	// QueryTimeout bounds every embedding and vector call.
	QueryTimeout time.Duration

	Logger zerolog.Logger
}

// NewManager opens the relational store, attempts to bring up the vector
// index, and resolves the user's profile.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.UserID == "" {
		return nil, persistErr("new manager", fmt.Errorf("user id is required"))
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 10 * time.Second
	}
	if cfg.VectorDBPath == "" {
		cfg.VectorDBPath = cfg.DBPath + ".vec"
	}

	store, err := OpenStore(cfg.DBPath, cfg.Logger)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		store:        store,
		userID:       cfg.UserID,
		sessionID:    cfg.SessionID,
		queryTimeout: cfg.QueryTimeout,
		logger:       cfg.Logger.With().Str("user", cfg.UserID).Logger(),
	}

	// Semantic memory is optional: a missing encoder or a failed index
	// bring-up routes all searches to keyword fallback.
	if cfg.Encoder != nil {
		vectors, err := NewVectorIndex(cfg.VectorDBPath, cfg.UserID, cfg.Encoder, m.logger)
		if err != nil {
			m.logger.Warn().Err(err).Msg("Vector memory disabled")
		} else {
			m.vectors = vectors
			m.vectorEnabled = true
		}
	}

	profile, err := store.GetOrCreateUserProfile(cfg.UserID)
	if err != nil {
		m.Close()
		return nil, err
	}
	m.profile = profile

	m.logger.Info().
		Str("session", m.sessionID).
		Bool("vector_enabled", m.vectorEnabled).
		Msg("Memory manager initialized")

	return m, nil
}

// SessionID returns the current session identifier.
func (m *Manager) SessionID() string {
	return m.sessionID
}

// VectorEnabled reports whether semantic memory came up at construction.
func (m *Manager) VectorEnabled() bool {
	return m.vectorEnabled
}

// Profile returns the user profile resolved at construction.
func (m *Manager) Profile() UserProfile {
	return m.profile
}

// StartSession records the current session in the relational store under
// the given personality. Safe to retry; duplicate creation is a no-op.
func (m *Manager) StartSession(personality string) error {
	return m.store.CreateSession(m.sessionID, m.userID, personality)
}

// SaveMessage persists one turn. The relational write always happens and
// its failure propagates; for user-role messages the content is additionally
// indexed for semantic recall, and a failure there is logged and dropped
// because the two writes are intentionally independent.
func (m *Manager) SaveMessage(role, content, personality, emotion string) error {
	if err := m.store.SaveMessage(m.sessionID, m.userID, personality, role, content, emotion); err != nil {
		return err
	}

	// Only user-authored content is fragmented: retrieval stays biased
	// toward what the user said, not what the system said.
	if m.vectorEnabled && role == RoleUser {
		now := time.Now().UTC()
		fragmentID := fmt.Sprintf("%s_%d", m.sessionID, now.UnixNano())

		ctx, cancel := context.WithTimeout(context.Background(), m.queryTimeout)
		defer cancel()

		meta := FragmentMeta{
			SessionID:   m.sessionID,
			Personality: personality,
			Timestamp:   now,
			Emotion:     emotion,
		}
		if err := m.vectors.Index(ctx, fragmentID, content, meta); err != nil {
			m.logger.Warn().Err(indexErr("index fragment", err)).Msg("Failed to save to vector memory")
		}
	}

	return nil
}

// SearchSemanticMemory finds past conversation relevant to query. With
// semantic memory up, results are similarity-descending; any runtime vector
// failure falls back to keyword search over the relational store, where
// results are recency-descending. Callers must not assume a stable
// cross-mode ordering. Nothing found is an empty result, never an error.
func (m *Manager) SearchSemanticMemory(ctx context.Context, query string, n int) ([]Memory, error) {
	if !m.vectorEnabled {
		return m.keywordSearch(query, n)
	}

	qctx, cancel := context.WithTimeout(ctx, m.queryTimeout)
	defer cancel()

	fragments, err := m.vectors.Query(qctx, query, n)
	if err != nil {
		m.logger.Warn().Err(indexErr("query", err)).Msg("Semantic search failed, using keyword fallback")
		return m.keywordSearch(query, n)
	}

	memories := make([]Memory, 0, len(fragments))
	for _, f := range fragments {
		memories = append(memories, Memory{
			Content:     f.Content,
			SessionID:   f.SessionID,
			Personality: f.Personality,
			Timestamp:   f.Timestamp,
			Emotion:     f.Emotion,
		})
	}

	return memories, nil
}

func (m *Manager) keywordSearch(query string, n int) ([]Memory, error) {
	messages, err := m.store.SearchConversations(m.userID, query, n)
	if err != nil {
		return nil, err
	}

	memories := make([]Memory, 0, len(messages))
	for _, msg := range messages {
		memories = append(memories, Memory{
			Content:     msg.Content,
			SessionID:   msg.SessionID,
			Personality: msg.Personality,
			Timestamp:   msg.Timestamp,
			Emotion:     msg.Emotion,
		})
	}

	return memories, nil
}

// GetRelevantContext formats the most relevant past conversation snippets
// for prompt assembly. An empty result means nothing relevant was found.
func (m *Manager) GetRelevantContext(ctx context.Context, message string, maxItems int) ([]string, error) {
	memories, err := m.SearchSemanticMemory(ctx, message, maxItems)
	if err != nil {
		return nil, err
	}

	snippets := make([]string, 0, len(memories))
	for _, mem := range memories {
		snippets = append(snippets, fmt.Sprintf("[Past conversation from %s]: %s",
			mem.Timestamp.Format(time.RFC3339), mem.Content))
	}

	return snippets, nil
}

// RecentHistory returns the current session's history, oldest first.
func (m *Manager) RecentHistory(limit int) ([]StoredMessage, error) {
	return m.store.GetSessionHistory(m.sessionID, limit)
}

// FullHistory returns the user's history across all sessions, newest first.
func (m *Manager) FullHistory(limit int) ([]StoredMessage, error) {
	return m.store.GetUserHistory(m.userID, limit)
}

// GetUserStats aggregates the user's totals and favorite personality.
func (m *Manager) GetUserStats() (Stats, error) {
	return m.store.GetStats(m.userID)
}

// UpdatePreferences overwrites the user's preference blob.
func (m *Manager) UpdatePreferences(prefs map[string]interface{}) error {
	return m.store.UpdateUserPreferences(m.userID, prefs)
}

// EndSession marks the current session ended in the relational store.
func (m *Manager) EndSession() error {
	return m.store.EndSession(m.sessionID)
}

// ClearSessionMemory mints a fresh session identifier without touching the
// store: prior history stays intact, and nothing is written under the new
// id until the next StartSession or SaveMessage.
func (m *Manager) ClearSessionMemory() {
	m.sessionID = uuid.NewString()
	m.logger.Debug().Str("session", m.sessionID).Msg("Session memory cleared")
}

// Close releases both stores.
func (m *Manager) Close() error {
	if m.vectors != nil {
		if err := m.vectors.Close(); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to close vector index")
		}
	}
	return m.store.Close()
}
