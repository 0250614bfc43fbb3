package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaProvider talks to a local Ollama server over its chat API.
// No API key is required.
type OllamaProvider struct {
	httpClient *http.Client
	baseURL    string
	cfg        Config
}

func newOllamaProvider(cfg Config) *OllamaProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}

	return &OllamaProvider{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		cfg:        cfg,
	}
}

// Name returns the provider name.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

// Generate requests a single completion.
func (p *OllamaProvider) Generate(ctx context.Context, messages []Message, system string) (string, error) {
	resp, err := p.send(ctx, messages, system, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}

	return chatResp.Message.Content, nil
}

// Stream requests a completion with stream enabled; Ollama replies with
// one JSON object per line until done is true.
func (p *OllamaProvider) Stream(ctx context.Context, messages []Message, system string, onChunk func(chunk string) error) (string, error) {
	resp, err := p.send(ctx, messages, system, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk ollamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return full, fmt.Errorf("failed to decode ollama stream chunk: %w", err)
		}
		if chunk.Message.Content != "" {
			full += chunk.Message.Content
			if onChunk != nil {
				if err := onChunk(chunk.Message.Content); err != nil {
					return full, err
				}
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return full, fmt.Errorf("failed to read ollama stream: %w", err)
	}

	return full, nil
}

func (p *OllamaProvider) send(ctx context.Context, messages []Message, system string, stream bool) (*http.Response, error) {
	full := make([]Message, 0, len(messages)+1)
	if system != "" {
		full = append(full, Message{Role: "system", Content: system})
	}
	full = append(full, messages...)

	body, err := json.Marshal(ollamaChatRequest{
		Model:    p.cfg.Model,
		Messages: full,
		Stream:   stream,
		Options: ollamaOptions{
			Temperature: p.cfg.temperature(),
			NumPredict:  p.cfg.maxTokens(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach ollama (is it running?): %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(msg))
	}

	return resp, nil
}
