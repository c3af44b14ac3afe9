package backend

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/docsift/docsift/internal/logger"
	"github.com/docsift/docsift/pkg/doctext"
	"github.com/docsift/docsift/pkg/result"
	"github.com/docsift/docsift/pkg/schema"
)

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	groqDefaultModel = "llama-3.1-70b-versatile"
)

// GroqBackend calls Groq's OpenAI-compatible chat completions API.
type GroqBackend struct {
	client openai.Client
	model  string
}

// NewGroqBackend creates a Groq backend from the shared config.
func NewGroqBackend(cfg Config) (*GroqBackend, error) {
	if cfg.GroqAPIKey == "" {
		return nil, fmt.Errorf("groq API key missing")
	}
	model := cfg.GroqModel
	if model == "" {
		model = groqDefaultModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.GroqAPIKey),
		option.WithBaseURL(groqBaseURL),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &GroqBackend{client: openai.NewClient(opts...), model: model}, nil
}

// Name returns the backend identifier.
func (b *GroqBackend) Name() string { return Groq }

// Model returns the configured model.
func (b *GroqBackend) Model() string { return b.model }

// Extract sends the chunk to Groq and normalizes the model output.
func (b *GroqBackend) Extract(ctx context.Context, wf schema.Workflow, chunk doctext.Chunk) (*result.Envelope, error) {
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(extractionSystemPrompt),
			openai.UserMessage(buildPrompt(wf, chunk)),
		},
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, &Error{Backend: Groq, Kind: ErrRequest, Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Backend: Groq, Kind: ErrStatus, Err: fmt.Errorf("no choices in response")}
	}

	logger.Debug("groq response",
		"model", resp.Model,
		"chunk", chunk.ID,
		"input_tokens", resp.Usage.PromptTokens,
		"output_tokens", resp.Usage.CompletionTokens)

	w, err := decodeModelOutput(Groq, resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return normalizeEnvelope(w, wf, chunk), nil
}
