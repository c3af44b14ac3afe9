package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/docsift/docsift/internal/logger"
	"github.com/docsift/docsift/pkg/doctext"
	"github.com/docsift/docsift/pkg/result"
	"github.com/docsift/docsift/pkg/schema"
)

const (
	ollamaDefaultHost  = "http://localhost:11434"
	ollamaDefaultModel = "llama3.1:8b-instruct"
)

// OllamaBackend communicates with a local Ollama instance over its chat API.
type OllamaBackend struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaBackend creates an Ollama backend from the shared config.
func NewOllamaBackend(cfg Config) (*OllamaBackend, error) {
	baseURL := cfg.OllamaHost
	if baseURL == "" {
		baseURL = ollamaDefaultHost
	}
	model := cfg.OllamaModel
	if model == "" {
		model = ollamaDefaultModel
	}
	client := &http.Client{}
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}
	return &OllamaBackend{baseURL: baseURL, model: model, client: client}, nil
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Format   json.RawMessage `json:"format,omitempty"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

// Name returns the backend identifier.
func (b *OllamaBackend) Name() string { return Ollama }

// Model returns the configured model.
func (b *OllamaBackend) Model() string { return b.model }

// Extract sends the chunk to Ollama and normalizes the model output.
func (b *OllamaBackend) Extract(ctx context.Context, wf schema.Workflow, chunk doctext.Chunk) (*result.Envelope, error) {
	req := ollamaRequest{
		Model: b.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: extractionSystemPrompt},
			{Role: "user", Content: buildPrompt(wf, chunk)},
		},
		// Ollama accepts "json" here to constrain output to a JSON object.
		Format: json.RawMessage(`"json"`),
		Stream: false,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Backend: Ollama, Kind: ErrRequest, Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", b.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Backend: Ollama, Kind: ErrRequest, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Backend: Ollama, Kind: ErrRequest, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &Error{Backend: Ollama, Kind: ErrStatus,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes))}
	}

	var ollamaResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, &Error{Backend: Ollama, Kind: ErrParse, Err: fmt.Errorf("decode response: %w", err)}
	}

	logger.Debug("ollama response",
		"model", b.model,
		"chunk", chunk.ID,
		"input_tokens", ollamaResp.PromptEvalCount,
		"output_tokens", ollamaResp.EvalCount)

	w, err := decodeModelOutput(Ollama, ollamaResp.Message.Content)
	if err != nil {
		return nil, err
	}
	return normalizeEnvelope(w, wf, chunk), nil
}
