package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Message roles. Only these two values are ever written.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// timeLayout is a fixed-width RFC 3339 variant. The fixed fractional part
// keeps lexicographic ordering of the stored TEXT column identical to
// chronological ordering, which ORDER BY timestamp relies on.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// StoredMessage is one conversation turn as persisted in the store.
type StoredMessage struct {
	SessionID   string    `json:"session_id"`
	UserName    string    `json:"user_name"`
	Personality string    `json:"personality"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	Emotion     string    `json:"emotion,omitempty"`
}

// UserProfile is the per-user record, created lazily on first interaction.
type UserProfile struct {
	UserName    string                 `json:"user_name"`
	Preferences map[string]interface{} `json:"preferences"`
	CreatedAt   time.Time              `json:"created_at"`
	LastSeen    time.Time              `json:"last_seen"`
}

// Stats aggregates a user's conversation history.
type Stats struct {
	TotalMessages       int    `json:"total_messages"`
	TotalSessions       int    `json:"total_sessions"`
	FavoritePersonality string `json:"favorite_personality"`
}

// Store is the durable relational record of every message, session and
// user profile. It is the single source of truth for chronological history;
// all failures surface as *PersistenceError.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger

	// lastTS guards against the wall clock stepping backwards so that
	// timestamps stay non-decreasing within the store's single write path.
	mu     sync.Mutex
	lastTS time.Time
}

// OpenStore opens (creating if needed) the SQLite database at path.
func OpenStore(path string, logger zerolog.Logger) (*Store, error) {
	if path == "" {
		return nil, persistErr("open", fmt.Errorf("database path is required"))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, persistErr("open", fmt.Errorf("failed to create data directory: %w", err))
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, persistErr("open", fmt.Errorf("failed to open database: %w", err))
	}

	// WAL keeps readers from blocking the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, persistErr("open", fmt.Errorf("failed to enable WAL mode: %w", err))
	}

	s := &Store{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, persistErr("init schema", err)
	}

	logger.Debug().Str("path", path).Msg("Relational store opened")
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			user_name TEXT NOT NULL,
			personality TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			emotion TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_conversations_session ON conversations(session_id);
		CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_name);

		CREATE TABLE IF NOT EXISTS user_profiles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_name TEXT UNIQUE NOT NULL,
			preferences TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			last_seen TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT UNIQUE NOT NULL,
			user_name TEXT NOT NULL,
			personality TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			message_count INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// now returns a UTC timestamp that never decreases across calls.
func (s *Store) now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := time.Now().UTC()
	if ts.Before(s.lastTS) {
		ts = s.lastTS
	}
	s.lastTS = ts
	return ts
}

// SaveMessage inserts one message row and increments the owning session's
// message count. The insert and the counter increment share a transaction
// so a crash can never leave the counter half-applied.
func (s *Store) SaveMessage(sessionID, userName, personality, role, content, emotion string) error {
	ts := s.now().Format(timeLayout)

	tx, err := s.db.Begin()
	if err != nil {
		return persistErr("save message", err)
	}
	defer tx.Rollback()

	var emotionVal interface{}
	if emotion != "" {
		emotionVal = emotion
	}

	_, err = tx.Exec(`
		INSERT INTO conversations (session_id, user_name, personality, role, content, timestamp, emotion)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sessionID, userName, personality, role, content, ts, emotionVal)
	if err != nil {
		return persistErr("save message", err)
	}

	_, err = tx.Exec(`
		UPDATE sessions SET message_count = message_count + 1 WHERE session_id = ?
	`, sessionID)
	if err != nil {
		return persistErr("save message", err)
	}

	if err := tx.Commit(); err != nil {
		return persistErr("save message", err)
	}

	return nil
}

// GetSessionHistory returns the most recent limit messages of a session in
// chronological order (oldest first). A session with no messages yields an
// empty slice, not an error.
func (s *Store) GetSessionHistory(sessionID string, limit int) ([]StoredMessage, error) {
	rows, err := s.db.Query(`
		SELECT session_id, user_name, personality, role, content, timestamp, emotion
		FROM conversations
		WHERE session_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, persistErr("get session history", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, persistErr("get session history", err)
	}

	// Rows came newest-first; flip to chronological.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// GetUserHistory returns a user's messages across all sessions, newest first.
func (s *Store) GetUserHistory(userName string, limit int) ([]StoredMessage, error) {
	rows, err := s.db.Query(`
		SELECT session_id, user_name, personality, role, content, timestamp, emotion
		FROM conversations
		WHERE user_name = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, userName, limit)
	if err != nil {
		return nil, persistErr("get user history", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, persistErr("get user history", err)
	}

	return messages, nil
}

// CreateSession records a new session. Creating an already existing session
// id is a no-op, not a conflict: callers may retry creation on reconnect.
func (s *Store) CreateSession(sessionID, userName, personality string) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO sessions (session_id, user_name, personality, started_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, userName, personality, s.now().Format(timeLayout))
	if err != nil {
		return persistErr("create session", err)
	}

	return nil
}

// EndSession sets the session's end timestamp. Ending a missing or already
// ended session is a no-op.
func (s *Store) EndSession(sessionID string) error {
	_, err := s.db.Exec(`
		UPDATE sessions SET ended_at = ? WHERE session_id = ? AND ended_at IS NULL
	`, s.now().Format(timeLayout), sessionID)
	if err != nil {
		return persistErr("end session", err)
	}

	return nil
}

// GetOrCreateUserProfile returns the profile for userName, creating it with
// empty preferences on first sight and bumping last_seen otherwise.
func (s *Store) GetOrCreateUserProfile(userName string) (UserProfile, error) {
	now := s.now().Format(timeLayout)

	var createdAt, lastSeen, prefsJSON string
	err := s.db.QueryRow(`
		SELECT created_at, last_seen, preferences FROM user_profiles WHERE user_name = ?
	`, userName).Scan(&createdAt, &lastSeen, &prefsJSON)

	switch {
	case err == sql.ErrNoRows:
		if _, err := s.db.Exec(`
			INSERT INTO user_profiles (user_name, preferences, created_at, last_seen)
			VALUES (?, '{}', ?, ?)
		`, userName, now, now); err != nil {
			return UserProfile{}, persistErr("create user profile", err)
		}
		createdAt, lastSeen, prefsJSON = now, now, "{}"
	case err != nil:
		return UserProfile{}, persistErr("get user profile", err)
	default:
		if _, err := s.db.Exec(`
			UPDATE user_profiles SET last_seen = ? WHERE user_name = ?
		`, now, userName); err != nil {
			return UserProfile{}, persistErr("update user profile", err)
		}
		lastSeen = now
	}

	return buildProfile(userName, prefsJSON, createdAt, lastSeen)
}

// UpdateUserPreferences overwrites the user's preference blob, last write wins.
func (s *Store) UpdateUserPreferences(userName string, prefs map[string]interface{}) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return persistErr("update preferences", fmt.Errorf("failed to marshal preferences: %w", err))
	}

	if _, err := s.db.Exec(`
		UPDATE user_profiles SET preferences = ? WHERE user_name = ?
	`, string(data), userName); err != nil {
		return persistErr("update preferences", err)
	}

	return nil
}

// SearchConversations does a substring match over a user's message content,
// newest first. This is the fallback path when semantic search is unavailable.
func (s *Store) SearchConversations(userName, keyword string, limit int) ([]StoredMessage, error) {
	pattern := "%" + escapeLike(keyword) + "%"

	rows, err := s.db.Query(`
		SELECT session_id, user_name, personality, role, content, timestamp, emotion
		FROM conversations
		WHERE user_name = ? AND content LIKE ? ESCAPE '\'
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, userName, pattern, limit)
	if err != nil {
		return nil, persistErr("search conversations", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, persistErr("search conversations", err)
	}

	return messages, nil
}

// GetStats aggregates a user's totals. The favorite personality is the one
// with the most sessions; ties break lexicographically on personality name
// so the result never depends on storage iteration order.
func (s *Store) GetStats(userName string) (Stats, error) {
	var stats Stats

	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM conversations WHERE user_name = ?
	`, userName).Scan(&stats.TotalMessages)
	if err != nil {
		return Stats{}, persistErr("get stats", err)
	}

	err = s.db.QueryRow(`
		SELECT COUNT(*) FROM sessions WHERE user_name = ?
	`, userName).Scan(&stats.TotalSessions)
	if err != nil {
		return Stats{}, persistErr("get stats", err)
	}

	err = s.db.QueryRow(`
		SELECT personality FROM sessions
		WHERE user_name = ?
		GROUP BY personality
		ORDER BY COUNT(*) DESC, personality ASC
		LIMIT 1
	`, userName).Scan(&stats.FavoritePersonality)
	if err != nil && err != sql.ErrNoRows {
		return Stats{}, persistErr("get stats", err)
	}

	return stats, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanMessages(rows *sql.Rows) ([]StoredMessage, error) {
	messages := []StoredMessage{}
	for rows.Next() {
		var m StoredMessage
		var ts string
		var emotion sql.NullString

		if err := rows.Scan(&m.SessionID, &m.UserName, &m.Personality, &m.Role, &m.Content, &ts, &emotion); err != nil {
			return nil, err
		}

		parsed, err := time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp %q: %w", ts, err)
		}
		m.Timestamp = parsed
		m.Emotion = emotion.String

		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func buildProfile(userName, prefsJSON, createdAt, lastSeen string) (UserProfile, error) {
	profile := UserProfile{UserName: userName}

	if err := json.Unmarshal([]byte(prefsJSON), &profile.Preferences); err != nil {
		return UserProfile{}, persistErr("get user profile", fmt.Errorf("failed to parse preferences: %w", err))
	}

	created, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return UserProfile{}, persistErr("get user profile", fmt.Errorf("failed to parse created_at: %w", err))
	}
	seen, err := time.Parse(timeLayout, lastSeen)
	if err != nil {
		return UserProfile{}, persistErr("get user profile", fmt.Errorf("failed to parse last_seen: %w", err))
	}

	profile.CreatedAt = created
	profile.LastSeen = seen
	return profile, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
