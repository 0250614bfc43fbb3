package memory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()

	dir := t.TempDir()
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)

	s, err := OpenStore(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestOpenStore_EmptyPath(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)

	s, err := OpenStore("", logger)
	assert.Nil(t, s)
	require.Error(t, err)

	var perr *PersistenceError
	assert.True(t, errors.As(err, &perr))
}

func TestSaveMessage_RoundTrip(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.CreateSession("s1", "Alice", "yui"))
	require.NoError(t, s.SaveMessage("s1", "Alice", "yui", RoleUser, "I love pizza", "joy"))
	require.NoError(t, s.SaveMessage("s1", "Alice", "yui", RoleAssistant, "That's great!", ""))

	history, err := s.GetSessionHistory("s1", 50)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, "I love pizza", history[0].Content)
	assert.Equal(t, "joy", history[0].Emotion)

	assert.Equal(t, RoleAssistant, history[1].Role)
	assert.Equal(t, "That's great!", history[1].Content)
	assert.Empty(t, history[1].Emotion, "emotion stays unset unless supplied")
}

func TestGetSessionHistory_ChronologicalOrder(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.CreateSession("s1", "Alice", "yui"))
	for i := 0; i < 20; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		require.NoError(t, s.SaveMessage("s1", "Alice", "yui", role, "message", ""))
	}

	history, err := s.GetSessionHistory("s1", 20)
	require.NoError(t, err)
	require.Len(t, history, 20)

	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].Timestamp.Before(history[i-1].Timestamp),
			"timestamps must be non-decreasing")
	}
}

func TestGetSessionHistory_Window(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.CreateSession("s1", "Alice", "yui"))
	for i := 0; i < 10; i++ {
		require.NoError(t, s.SaveMessage("s1", "Alice", "yui", RoleUser, "message", ""))
	}

	// The window keeps the most recent messages, returned oldest first.
	history, err := s.GetSessionHistory("s1", 3)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestGetSessionHistory_EmptySession(t *testing.T) {
	s := createTestStore(t)

	history, err := s.GetSessionHistory("nope", 10)
	require.NoError(t, err, "no messages is a successful empty result")
	assert.Empty(t, history)
}

func TestCreateSession_Idempotent(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.CreateSession("s1", "Alice", "yui"))
	require.NoError(t, s.CreateSession("s1", "Alice", "yui"))

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sessions WHERE session_id = 's1'").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMessageCount(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.CreateSession("s1", "Alice", "yui"))
	require.NoError(t, s.CreateSession("s2", "Bob", "friday"))

	// Interleave saves across two sessions.
	for i := 0; i < 3; i++ {
		require.NoError(t, s.SaveMessage("s1", "Alice", "yui", RoleUser, "hi", ""))
		require.NoError(t, s.SaveMessage("s2", "Bob", "friday", RoleUser, "hello", ""))
	}
	require.NoError(t, s.SaveMessage("s1", "Alice", "yui", RoleAssistant, "hey", ""))

	var count1, count2 int
	require.NoError(t, s.db.QueryRow("SELECT message_count FROM sessions WHERE session_id = 's1'").Scan(&count1))
	require.NoError(t, s.db.QueryRow("SELECT message_count FROM sessions WHERE session_id = 's2'").Scan(&count2))

	assert.Equal(t, 4, count1)
	assert.Equal(t, 3, count2)
}

func TestEndSession(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.CreateSession("s1", "Alice", "yui"))
	require.NoError(t, s.EndSession("s1"))

	var endedAt string
	require.NoError(t, s.db.QueryRow("SELECT ended_at FROM sessions WHERE session_id = 's1'").Scan(&endedAt))
	assert.NotEmpty(t, endedAt)

	// Ending again, or ending a session that never existed, is a no-op.
	require.NoError(t, s.EndSession("s1"))
	require.NoError(t, s.EndSession("never-created"))

	var endedAgain string
	require.NoError(t, s.db.QueryRow("SELECT ended_at FROM sessions WHERE session_id = 's1'").Scan(&endedAgain))
	assert.Equal(t, endedAt, endedAgain, "ended_at must not move on repeat calls")
}

func TestGetOrCreateUserProfile(t *testing.T) {
	s := createTestStore(t)

	first, err := s.GetOrCreateUserProfile("Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", first.UserName)
	assert.NotNil(t, first.Preferences)
	assert.Empty(t, first.Preferences)

	second, err := s.GetOrCreateUserProfile("Alice")
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt, "created_at is stable")
	assert.False(t, second.LastSeen.Before(first.LastSeen), "last_seen is non-decreasing")

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM user_profiles WHERE user_name = 'Alice'").Scan(&count))
	assert.Equal(t, 1, count, "exactly one profile per user")
}

func TestUpdateUserPreferences(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetOrCreateUserProfile("Alice")
	require.NoError(t, err)

	require.NoError(t, s.UpdateUserPreferences("Alice", map[string]interface{}{"theme": "dark"}))
	require.NoError(t, s.UpdateUserPreferences("Alice", map[string]interface{}{"theme": "light"}))

	profile, err := s.GetOrCreateUserProfile("Alice")
	require.NoError(t, err)
	assert.Equal(t, "light", profile.Preferences["theme"], "last write wins")
}

func TestSearchConversations(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.CreateSession("s1", "Alice", "yui"))
	require.NoError(t, s.SaveMessage("s1", "Alice", "yui", RoleUser, "I love pizza", ""))
	require.NoError(t, s.SaveMessage("s1", "Alice", "yui", RoleAssistant, "That's great!", ""))
	require.NoError(t, s.SaveMessage("s1", "Alice", "yui", RoleUser, "pizza again tonight", ""))

	results, err := s.SearchConversations("Alice", "pizza", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Newest first.
	assert.Equal(t, "pizza again tonight", results[0].Content)
	assert.Equal(t, "I love pizza", results[1].Content)
}

func TestSearchConversations_NoHits(t *testing.T) {
	s := createTestStore(t)

	results, err := s.SearchConversations("Alice", "sushi", 10)
	require.NoError(t, err, "no hits is a successful empty result")
	assert.Empty(t, results)
}

func TestSearchConversations_EscapesWildcards(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.CreateSession("s1", "Alice", "yui"))
	require.NoError(t, s.SaveMessage("s1", "Alice", "yui", RoleUser, "100% sure about this", ""))
	require.NoError(t, s.SaveMessage("s1", "Alice", "yui", RoleUser, "one hundred percent", ""))

	results, err := s.SearchConversations("Alice", "100%", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "100% sure about this", results[0].Content)
}

func TestGetStats(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.CreateSession("s1", "Alice", "yui"))
	require.NoError(t, s.CreateSession("s2", "Alice", "yui"))
	require.NoError(t, s.CreateSession("s3", "Alice", "friday"))
	require.NoError(t, s.SaveMessage("s1", "Alice", "yui", RoleUser, "hi", ""))
	require.NoError(t, s.SaveMessage("s1", "Alice", "yui", RoleAssistant, "hello", ""))

	stats, err := s.GetStats("Alice")
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalMessages)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, "yui", stats.FavoritePersonality)
}

func TestGetStats_TieBreaksLexicographically(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.CreateSession("s1", "Alice", "yui"))
	require.NoError(t, s.CreateSession("s2", "Alice", "friday"))

	stats, err := s.GetStats("Alice")
	require.NoError(t, err)
	assert.Equal(t, "friday", stats.FavoritePersonality, "ties break on personality name")
}

func TestGetStats_NoHistory(t *testing.T) {
	s := createTestStore(t)

	stats, err := s.GetStats("Nobody")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalMessages)
	assert.Zero(t, stats.TotalSessions)
	assert.Empty(t, stats.FavoritePersonality)
}

func TestGetUserHistory_CrossSession(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.CreateSession("s1", "Alice", "yui"))
	require.NoError(t, s.CreateSession("s2", "Alice", "friday"))
	require.NoError(t, s.SaveMessage("s1", "Alice", "yui", RoleUser, "first", ""))
	require.NoError(t, s.SaveMessage("s2", "Alice", "friday", RoleUser, "second", ""))

	history, err := s.GetUserHistory("Alice", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Newest first.
	assert.Equal(t, "second", history[0].Content)
	assert.Equal(t, "first", history[1].Content)
}
