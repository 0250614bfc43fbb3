package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider speaks the OpenAI chat-completions API. Groq exposes
// the same API, so both providers share this implementation with a
// different base URL.
type OpenAIProvider struct {
	client openai.Client
	name   string
	cfg    Config
}

func newOpenAIProvider(name string, cfg Config) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		name:   name,
		cfg:    cfg,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Generate requests a single completion.
func (p *OpenAIProvider) Generate(ctx context.Context, messages []Message, system string) (string, error) {
	response, err := p.client.Chat.Completions.New(ctx, p.params(messages, system))
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	return response.Choices[0].Message.Content, nil
}

// Stream requests a completion and delivers it incrementally through
// onChunk. The full reply is returned once the stream ends.
func (p *OpenAIProvider) Stream(ctx context.Context, messages []Message, system string, onChunk func(chunk string) error) (string, error) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, p.params(messages, system))
	defer stream.Close()

	var full string
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full += delta
		if onChunk != nil {
			if err := onChunk(delta); err != nil {
				return full, err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return full, fmt.Errorf("failed to stream completion: %w", err)
	}

	return full, nil
}

func (p *OpenAIProvider) params(messages []Message, system string) openai.ChatCompletionNewParams {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		converted = append(converted, openai.SystemMessage(system))
	}
	for _, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			converted = append(converted, openai.AssistantMessage(msg.Content))
		default:
			converted = append(converted, openai.UserMessage(msg.Content))
		}
	}

	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.cfg.Model),
		Messages:    converted,
		Temperature: openai.Float(p.cfg.temperature()),
		MaxTokens:   openai.Int(int64(p.cfg.maxTokens())),
	}
}
