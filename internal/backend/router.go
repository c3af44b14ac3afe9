package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/docsift/docsift/internal/logger"
	"github.com/docsift/docsift/pkg/doctext"
	"github.com/docsift/docsift/pkg/result"
	"github.com/docsift/docsift/pkg/schema"
)

// Router builds and caches extractors and dispatches chunks to the
// backend a selector resolves to. Route is safe for concurrent use;
// the pipeline dispatches several chunks at once.
type Router struct {
	cfg Config

	mu    sync.Mutex
	built map[string]Extractor
}

// RouteResult carries the chunk envelope plus which backend and model
// actually produced it.
type RouteResult struct {
	Envelope *result.Envelope
	Backend  string
	Model    string
}

// NewRouter creates a router over the given config.
func NewRouter(cfg Config) *Router {
	return &Router{cfg: cfg, built: make(map[string]Extractor)}
}

// Config returns the router's configuration.
func (r *Router) Config() Config { return r.cfg }

// Register pre-seeds the router with a ready extractor under name,
// bypassing construction. Tests use it to stand in fake backends.
func (r *Router) Register(name string, ext Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.built[name] = ext
}

// Route resolves the selector, runs the chunk on that backend, and
// returns the normalized envelope. When FallbackLocal is set, a remote
// failure reruns the chunk locally and records a warning instead of
// surfacing the error.
func (r *Router) Route(ctx context.Context, selector string, wf schema.Workflow, chunk doctext.Chunk) (*RouteResult, error) {
	name := r.cfg.Resolve(selector)

	ext, err := r.extractor(name)
	if err != nil {
		return nil, err
	}

	env, err := ext.Extract(ctx, wf, chunk)
	if err != nil {
		if !r.cfg.FallbackLocal || name == Local {
			return nil, err
		}
		logger.Warn("backend failed, falling back to local extractor",
			"backend", name, "chunk", chunk.ID, "error", err)
		local, lerr := r.extractor(Local)
		if lerr != nil {
			return nil, lerr
		}
		env, lerr = local.Extract(ctx, wf, chunk)
		if lerr != nil {
			return nil, lerr
		}
		env.AddWarning(fmt.Sprintf("backend_fallback:%s", name))
		return &RouteResult{Envelope: env, Backend: Local, Model: modelOf(local)}, nil
	}

	return &RouteResult{Envelope: env, Backend: name, Model: modelOf(ext)}, nil
}

// extractor returns the cached backend for name, building it on first
// use. Construction fails fast on missing credentials.
func (r *Router) extractor(name string) (Extractor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ext, ok := r.built[name]; ok {
		return ext, nil
	}

	var (
		ext Extractor
		err error
	)
	switch name {
	case Local:
		ext = NewLocalBackend()
	case Groq:
		ext, err = NewGroqBackend(r.cfg)
	case Ollama:
		ext, err = NewOllamaBackend(r.cfg)
	case Anthropic:
		ext, err = NewAnthropicBackend(r.cfg)
	default:
		err = fmt.Errorf("unknown backend %q", name)
	}
	if err != nil {
		return nil, err
	}
	r.built[name] = ext
	return ext, nil
}

func modelOf(ext Extractor) string {
	type modeler interface{ Model() string }
	if m, ok := ext.(modeler); ok {
		return m.Model()
	}
	return ""
}
