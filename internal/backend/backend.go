// Package backend abstracts extraction strategies over document chunks:
// remote model-backed backends and the local heuristic extractor, plus
// the router that selects between them.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/docsift/docsift/pkg/doctext"
	"github.com/docsift/docsift/pkg/result"
	"github.com/docsift/docsift/pkg/schema"
)

// Backend names form a closed set; "auto" resolves to one of the others.
const (
	Auto      = "auto"
	Local     = "local"
	Groq      = "groq"
	Ollama    = "ollama"
	Anthropic = "anthropic"
)

// Extractor produces field candidates for one chunk. Implementations
// return envelopes whose spans are document-absolute.
type Extractor interface {
	// Name returns the backend identifier.
	Name() string

	// Extract runs the backend over a chunk. Failures surface as a
	// typed *Error; the router's caller decides fallback policy.
	Extract(ctx context.Context, wf schema.Workflow, chunk doctext.Chunk) (*result.Envelope, error)
}

// Config is the explicit configuration for backend construction and
// selection. It replaces ambient environment lookups so resolution is
// deterministic and testable.
type Config struct {
	// Default names the backend "auto" resolves to. When empty,
	// resolution falls back to credential presence: Groq key, then
	// Anthropic key, then Ollama host, then the local extractor.
	Default string

	// Escalation names the backend used for the low-confidence second
	// pass. Defaults to groq.
	Escalation string

	GroqAPIKey string
	GroqModel  string

	OllamaHost  string
	OllamaModel string

	AnthropicAPIKey string
	AnthropicModel  string

	// Timeout bounds each remote backend call.
	Timeout time.Duration

	// FallbackLocal reruns a failed chunk on the local extractor
	// instead of surfacing the backend error. Off by default; when it
	// fires, the route result reports the local backend.
	FallbackLocal bool

	// ConfidenceThreshold is the critical-confidence level below which
	// escalation triggers.
	ConfidenceThreshold float64
}

// DefaultConfig returns the standard selection and escalation settings.
func DefaultConfig() Config {
	return Config{
		Escalation:          Groq,
		Timeout:             60 * time.Second,
		ConfidenceThreshold: 0.9,
	}
}

// Resolve maps a selector to a concrete backend name. Selectors other
// than Auto pass through untouched.
func (c Config) Resolve(selector string) string {
	if selector != Auto && selector != "" {
		return selector
	}
	if c.Default != "" {
		return c.Default
	}
	switch {
	case c.GroqAPIKey != "":
		return Groq
	case c.AnthropicAPIKey != "":
		return Anthropic
	case c.OllamaHost != "":
		return Ollama
	}
	return Local
}

// EscalationTarget returns the backend used for the precision pass.
func (c Config) EscalationTarget() string {
	if c.Escalation != "" {
		return c.Escalation
	}
	return Groq
}

// ErrorKind classifies a backend failure.
type ErrorKind string

const (
	ErrRequest ErrorKind = "request" // transport/network/timeout
	ErrStatus  ErrorKind = "status"  // non-2xx or API-level rejection
	ErrParse   ErrorKind = "parse"   // model output not usable
)

// Error is a typed backend failure. The router propagates it to the
// caller rather than silently substituting another backend's output.
type Error struct {
	Backend string
	Kind    ErrorKind
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend %s: %s: %v", e.Backend, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
