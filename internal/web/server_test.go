package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectyui/yui/pkg/conversation"
	"github.com/projectyui/yui/pkg/llm"
	"github.com/projectyui/yui/pkg/memory"
	"github.com/projectyui/yui/pkg/tools"
)

type cannedProvider struct {
	reply string
}

func (p *cannedProvider) Generate(context.Context, []llm.Message, string) (string, error) {
	return p.reply, nil
}

func (p *cannedProvider) Name() string { return "canned" }

func createTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)

	factory := func(userName string) (*conversation.Orchestrator, error) {
		mem, err := memory.NewManager(memory.Config{
			UserID: userName,
			DBPath: filepath.Join(dir, "yui.db"),
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		return conversation.NewOrchestrator(conversation.Config{
			Provider: &cannedProvider{reply: "hello from the companion"},
			Memory:   mem,
			UserName: userName,
			Logger:   logger,
		})
	}

	// Tool lookups go to a local stub so tests never reach the real APIs.
	jokeAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"single","joke":"A canned joke."}`))
	}))
	t.Cleanup(jokeAPI.Close)

	s, err := NewServer(Config{
		Host:            "127.0.0.1",
		Port:            8000,
		ProviderName:    "canned",
		NewConversation: factory,
		Tools:           tools.NewExecutor(tools.NewClient(tools.ClientConfig{JokesURL: jokeAPI.URL}), logger),
		Logger:          logger,
	})
	require.NoError(t, err)

	return s
}

func dial(t *testing.T, ts *httptest.Server, user string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestNewServer_Validation(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)

	_, err := NewServer(Config{Port: 0, NewConversation: func(string) (*conversation.Orchestrator, error) { return nil, nil }})
	assert.Error(t, err)

	_, err = NewServer(Config{Port: 8000, Logger: logger})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	s := createTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "canned", body["provider"])
}

func TestWebSocket_RequiresUserName(t *testing.T) {
	s := createTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ws/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocket_ChatRoundTrip(t *testing.T) {
	s := createTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dial(t, ts, "alice")

	welcome := readMessage(t, conn)
	assert.Equal(t, "system", welcome.Type)
	assert.Contains(t, welcome.Content, "alice")
	assert.NotEmpty(t, welcome.Timestamp)

	require.NoError(t, conn.WriteJSON(wireMessage{Type: "user", Content: "hi"}))

	typing := readMessage(t, conn)
	assert.Equal(t, "typing", typing.Type)

	reply := readMessage(t, conn)
	assert.Equal(t, "assistant", reply.Type)
	assert.Equal(t, "hello from the companion", reply.Content)
	assert.Equal(t, "Yui", reply.Personality)
}

func TestWebSocket_EmptyMessagesIgnored(t *testing.T) {
	s := createTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dial(t, ts, "alice")
	readMessage(t, conn) // welcome

	require.NoError(t, conn.WriteJSON(wireMessage{Type: "user", Content: "   "}))
	require.NoError(t, conn.WriteJSON(wireMessage{Type: "user", Content: "hi"}))

	// The blank message produced nothing; the next frame is the typing
	// indicator for "hi".
	typing := readMessage(t, conn)
	assert.Equal(t, "typing", typing.Type)
}

func TestWebSocket_SwitchCommand(t *testing.T) {
	s := createTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dial(t, ts, "alice")
	readMessage(t, conn) // welcome

	require.NoError(t, conn.WriteJSON(wireMessage{Type: "user", Content: "/switch jarvis"}))
	msg := readMessage(t, conn)
	assert.Equal(t, "system", msg.Type)
	assert.Contains(t, msg.Content, "Jarvis")

	require.NoError(t, conn.WriteJSON(wireMessage{Type: "user", Content: "/switch skynet"}))
	msg = readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
}

func TestWebSocket_ToolMessage(t *testing.T) {
	s := createTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dial(t, ts, "alice")
	readMessage(t, conn) // welcome

	require.NoError(t, conn.WriteJSON(wireMessage{Type: "user", Content: "tell me a joke"}))

	typing := readMessage(t, conn)
	assert.Equal(t, "typing", typing.Type)

	// The lookup answers first; the companion still replies afterwards.
	tool := readMessage(t, conn)
	assert.Equal(t, "tool", tool.Type)
	assert.Contains(t, tool.Content, "A canned joke.")

	reply := readMessage(t, conn)
	assert.Equal(t, "assistant", reply.Type)
	assert.Equal(t, "hello from the companion", reply.Content)
}

func TestWebSocket_StatsCommand(t *testing.T) {
	s := createTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dial(t, ts, "alice")
	readMessage(t, conn) // welcome

	require.NoError(t, conn.WriteJSON(wireMessage{Type: "user", Content: "hi"}))
	readMessage(t, conn) // typing
	readMessage(t, conn) // assistant

	require.NoError(t, conn.WriteJSON(wireMessage{Type: "user", Content: "/stats"}))
	msg := readMessage(t, conn)
	assert.Equal(t, "system", msg.Type)
	assert.Contains(t, msg.Content, "Messages: 2")
	assert.Contains(t, msg.Content, "Sessions: 1")
}

func TestWebSocket_HelpAndUnknownCommands(t *testing.T) {
	s := createTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dial(t, ts, "alice")
	readMessage(t, conn) // welcome

	require.NoError(t, conn.WriteJSON(wireMessage{Type: "user", Content: "/help"}))
	msg := readMessage(t, conn)
	assert.Equal(t, "system", msg.Type)
	assert.Contains(t, msg.Content, "/switch")

	require.NoError(t, conn.WriteJSON(wireMessage{Type: "user", Content: "/frobnicate"}))
	msg = readMessage(t, conn)
	assert.Contains(t, msg.Content, "Unknown command")
}

func TestWebSocket_QuitClosesConnection(t *testing.T) {
	s := createTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dial(t, ts, "alice")
	readMessage(t, conn) // welcome

	require.NoError(t, conn.WriteJSON(wireMessage{Type: "user", Content: "/quit"}))
	msg := readMessage(t, conn)
	assert.Contains(t, msg.Content, "Goodbye")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var closed wireMessage
	err := conn.ReadJSON(&closed)
	assert.Error(t, err, "server closed the connection")

	// The registry drains once the server notices the close.
	require.Eventually(t, func() bool {
		return s.ClientCount() == 0
	}, 2*time.Second, 50*time.Millisecond)
}

func TestWebSocket_DisconnectCleansUp(t *testing.T) {
	s := createTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dial(t, ts, "alice")
	readMessage(t, conn) // welcome

	require.Eventually(t, func() bool {
		return s.ClientCount() == 1
	}, 2*time.Second, 50*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return s.ClientCount() == 0
	}, 2*time.Second, 50*time.Millisecond)
}
