package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/rs/zerolog"
)

func init() {
	// Auto-register sqlite-vec extension
	sqlite_vec.Auto()
}

// Fragment is one indexed user utterance returned from a similarity query.
type Fragment struct {
	FragmentID  string    `json:"fragment_id"`
	Content     string    `json:"content"`
	SessionID   string    `json:"session_id"`
	Personality string    `json:"personality"`
	Timestamp   time.Time `json:"timestamp"`
	Emotion     string    `json:"emotion"`
	Similarity  float64   `json:"similarity"`
}

// FragmentMeta carries the metadata stored alongside a fragment's embedding.
type FragmentMeta struct {
	SessionID   string
	Personality string
	Timestamp   time.Time
	Emotion     string
}

// VectorIndex is the per-user semantic index of past user utterances. Each
// user gets their own vec0 table; similarity candidates can only ever come
// from the caller's table, so cross-user leakage is structurally impossible.
//
// The index is best-effort: construction fails when the vec0 extension or
// the backing database is unavailable, and the Manager degrades to keyword
// search instead of propagating that failure.
type VectorIndex struct {
	db      *sql.DB
	encoder EmbeddingProvider
	table   string
	logger  zerolog.Logger
}

// NewVectorIndex opens the vector database at path and prepares the
// namespace for userName, sized to the encoder's dimension.
func NewVectorIndex(path, userName string, encoder EmbeddingProvider, logger zerolog.Logger) (*VectorIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("vector database path is required")
	}
	if encoder == nil {
		return nil, fmt.Errorf("embedding provider is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}

	v := &VectorIndex{
		db:      db,
		encoder: encoder,
		table:   "vec_" + sanitizeNamespace(userName),
		logger:  logger,
	}

	if err := v.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug().Str("namespace", v.table).Msg("Vector index ready")
	return v, nil
}

func (v *VectorIndex) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS fragments (
			fragment_id TEXT PRIMARY KEY,
			namespace TEXT NOT NULL,
			content TEXT NOT NULL,
			session_id TEXT NOT NULL,
			personality TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			emotion TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_fragments_namespace ON fragments(namespace);
	`
	if _, err := v.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create fragments table: %w", err)
	}

	// Creating the vec0 table is the probe for extension availability:
	// when sqlite-vec cannot load, this fails and the caller disables
	// semantic memory.
	vectorSchema := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(
			fragment_id TEXT PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		);
	`, v.table, v.encoder.Dimension())

	if _, err := v.db.Exec(vectorSchema); err != nil {
		return fmt.Errorf("failed to create vector table: %w", err)
	}

	return nil
}

// Index embeds text and stores the vector and metadata under fragmentID.
// Fragments are write-once; indexing the same id twice replaces it.
func (v *VectorIndex) Index(ctx context.Context, fragmentID, text string, meta FragmentMeta) error {
	embedding, err := v.encoder.GenerateEmbedding(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed fragment: %w", err)
	}

	embeddingJSON, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	tx, err := v.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		fmt.Sprintf("INSERT OR REPLACE INTO %s (fragment_id, embedding) VALUES (?, ?)", v.table),
		fragmentID, string(embeddingJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}

	emotion := meta.Emotion
	if emotion == "" {
		emotion = "neutral"
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO fragments (fragment_id, namespace, content, session_id, personality, timestamp, emotion)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, fragmentID, v.table, text, meta.SessionID, meta.Personality, meta.Timestamp.UTC().Format(timeLayout), emotion)
	if err != nil {
		return fmt.Errorf("failed to store fragment metadata: %w", err)
	}

	return tx.Commit()
}

// Query embeds the query text and returns up to k fragments ranked by
// similarity, highest first. An empty namespace yields an empty slice.
func (v *VectorIndex) Query(ctx context.Context, text string, k int) ([]Fragment, error) {
	embedding, err := v.encoder.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	embeddingJSON, err := json.Marshal(embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query embedding: %w", err)
	}

	rows, err := v.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT fragment_id, vec_distance_cosine(embedding, ?) AS distance
		FROM %s
		ORDER BY distance ASC
		LIMIT ?
	`, v.table), string(embeddingJSON), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector table: %w", err)
	}
	defer rows.Close()

	type hit struct {
		id       string
		distance float64
	}
	var hits []hit
	for rows.Next() {
		var h hit
		if err := rows.Scan(&h.id, &h.distance); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fragments := make([]Fragment, 0, len(hits))
	for _, h := range hits {
		var f Fragment
		var ts string
		err := v.db.QueryRow(`
			SELECT content, session_id, personality, timestamp, emotion
			FROM fragments WHERE fragment_id = ?
		`, h.id).Scan(&f.Content, &f.SessionID, &f.Personality, &ts, &f.Emotion)
		if err != nil {
			v.logger.Warn().Err(err).Str("fragment_id", h.id).Msg("Failed to fetch fragment metadata")
			continue
		}

		parsed, err := time.Parse(timeLayout, ts)
		if err != nil {
			v.logger.Warn().Err(err).Str("fragment_id", h.id).Msg("Failed to parse fragment timestamp")
			continue
		}

		f.FragmentID = h.id
		f.Timestamp = parsed
		// Cosine distance is in [0, 2]; report similarity, highest first.
		f.Similarity = 1.0 - h.distance
		fragments = append(fragments, f)
	}

	return fragments, nil
}

// Count returns the number of fragments in this namespace.
func (v *VectorIndex) Count() (int, error) {
	var n int
	err := v.db.QueryRow("SELECT COUNT(*) FROM fragments WHERE namespace = ?", v.table).Scan(&n)
	return n, err
}

// Close closes the vector database.
func (v *VectorIndex) Close() error {
	return v.db.Close()
}

// sanitizeNamespace maps a user name to a valid SQLite identifier suffix.
func sanitizeNamespace(userName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(userName) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "anonymous"
	}
	return b.String()
}
