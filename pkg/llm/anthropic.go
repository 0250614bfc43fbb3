package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider speaks the Anthropic Messages API.
type AnthropicProvider struct {
	client anthropic.Client
	cfg    Config
}

func newAnthropicProvider(cfg Config) *AnthropicProvider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
	}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Generate requests a single completion.
func (p *AnthropicProvider) Generate(ctx context.Context, messages []Message, system string) (string, error) {
	converted := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			converted = append(converted, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		default:
			converted = append(converted, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.cfg.Model),
		Messages:    converted,
		MaxTokens:   int64(p.cfg.maxTokens()),
		Temperature: anthropic.Float(p.cfg.temperature()),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	response, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}

	var content string
	for _, block := range response.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += text.Text
		}
	}

	return content, nil
}
