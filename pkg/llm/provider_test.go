package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProviderDispatch(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{"groq", Config{Provider: "groq", APIKey: "k"}, "groq", false},
		{"openai", Config{Provider: "openai", APIKey: "k"}, "openai", false},
		{"anthropic", Config{Provider: "anthropic", APIKey: "k"}, "anthropic", false},
		{"ollama needs no key", Config{Provider: "ollama"}, "ollama", false},
		{"groq without key", Config{Provider: "groq"}, "", true},
		{"openai without key", Config{Provider: "openai"}, "", true},
		{"anthropic without key", Config{Provider: "anthropic"}, "", true},
		{"unknown", Config{Provider: "cohere", APIKey: "k"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestNew_StreamingCapability(t *testing.T) {
	groq, err := New(Config{Provider: "groq", APIKey: "k"})
	require.NoError(t, err)
	_, ok := groq.(StreamingProvider)
	assert.True(t, ok, "openai-compatible providers support streaming")

	ollama, err := New(Config{Provider: "ollama"})
	require.NoError(t, err)
	_, ok = ollama.(StreamingProvider)
	assert.True(t, ok, "ollama supports streaming")
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	assert.Equal(t, defaultTemperature, cfg.temperature())
	assert.Equal(t, defaultMaxTokens, cfg.maxTokens())

	cfg = Config{Temperature: 0.2, MaxTokens: 512}
	assert.Equal(t, 0.2, cfg.temperature())
	assert.Equal(t, 512, cfg.maxTokens())
}

func TestOllamaGenerate(t *testing.T) {
	var got ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: Message{Role: RoleAssistant, Content: "hello there"},
			Done:    true,
		})
	}))
	defer server.Close()

	p, err := New(Config{Provider: "ollama", Model: "llama3", BaseURL: server.URL})
	require.NoError(t, err)

	reply, err := p.Generate(context.Background(), []Message{
		{Role: RoleUser, Content: "hi"},
	}, "be brief")
	require.NoError(t, err)

	assert.Equal(t, "hello there", reply)
	assert.Equal(t, "llama3", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be brief", got.Messages[0].Content)
}

func TestOllamaGenerate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	p, err := New(Config{Provider: "ollama", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestOllamaStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		enc := json.NewEncoder(w)
		enc.Encode(ollamaChatResponse{Message: Message{Content: "hel"}})
		enc.Encode(ollamaChatResponse{Message: Message{Content: "lo"}})
		enc.Encode(ollamaChatResponse{Done: true})
	}))
	defer server.Close()

	p, err := New(Config{Provider: "ollama", BaseURL: server.URL})
	require.NoError(t, err)

	sp, ok := p.(StreamingProvider)
	require.True(t, ok)

	var chunks []string
	full, err := sp.Stream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, "", func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "hello", full)
	assert.Equal(t, []string{"hel", "lo"}, chunks)
}
