package backend

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/docsift/docsift/internal/logger"
	"github.com/docsift/docsift/pkg/doctext"
	"github.com/docsift/docsift/pkg/result"
	"github.com/docsift/docsift/pkg/schema"
)

const anthropicDefaultModel = "claude-sonnet-4-20250514"

// AnthropicBackend wraps the Anthropic SDK.
type AnthropicBackend struct {
	client anthropic.Client
	model  string
}

// NewAnthropicBackend creates an Anthropic backend from the shared config.
func NewAnthropicBackend(cfg Config) (*AnthropicBackend, error) {
	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("anthropic API key missing")
	}
	model := cfg.AnthropicModel
	if model == "" {
		model = anthropicDefaultModel
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.AnthropicAPIKey)}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &AnthropicBackend{client: anthropic.NewClient(opts...), model: model}, nil
}

// Name returns the backend identifier.
func (b *AnthropicBackend) Name() string { return Anthropic }

// Model returns the configured model.
func (b *AnthropicBackend) Model() string { return b.model }

// Extract sends the chunk to Anthropic and normalizes the model output.
func (b *AnthropicBackend) Extract(ctx context.Context, wf schema.Workflow, chunk doctext.Chunk) (*result.Envelope, error) {
	resp, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: extractionSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(wf, chunk))),
		},
	})
	if err != nil {
		return nil, &Error{Backend: Anthropic, Kind: ErrRequest, Err: err}
	}

	var content string
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			content = tb.Text
		}
	}

	logger.Debug("anthropic response",
		"model", resp.Model,
		"chunk", chunk.ID,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)

	w, err := decodeModelOutput(Anthropic, content)
	if err != nil {
		return nil, err
	}
	return normalizeEnvelope(w, wf, chunk), nil
}
