package extract

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/docsift/docsift/internal/backend"
	"github.com/docsift/docsift/internal/logger"
	"github.com/docsift/docsift/pkg/doctext"
	"github.com/docsift/docsift/pkg/result"
	"github.com/docsift/docsift/pkg/schema"
)

// chunkWorkers bounds concurrent backend calls for one document run.
const chunkWorkers = 4

// Pipeline composes chunking, backend routing, merge, and the
// low-confidence escalation pass.
type Pipeline struct {
	router *backend.Router
	chunk  ChunkOptions
}

// NewPipeline creates a pipeline over the backend configuration.
func NewPipeline(cfg backend.Config) *Pipeline {
	return &Pipeline{router: backend.NewRouter(cfg)}
}

// NewPipelineWithRouter creates a pipeline over an existing router;
// tests use it to inject fake backends.
func NewPipelineWithRouter(r *backend.Router) *Pipeline {
	return &Pipeline{router: r}
}

// Extract runs the full document pipeline: chunk the text, run every
// chunk through the selected backend, merge the candidates, and run a
// single escalation pass when critical confidence stays under the
// threshold. Cancelling ctx aborts in-flight chunk calls.
func (p *Pipeline) Extract(ctx context.Context, wf schema.Workflow, doc doctext.Document, selector string) (*result.Envelope, error) {
	cfg := p.router.Config()
	chunks := ChunkText(doc.Text, p.chunk)

	merged, usedBackend, usedModel, err := p.runPass(ctx, wf, chunks, selector)
	if err != nil {
		return nil, err
	}

	threshold := cfg.ConfidenceThreshold
	if threshold <= 0 {
		threshold = backend.DefaultConfig().ConfidenceThreshold
	}
	target := cfg.EscalationTarget()

	if merged.Stats.CriticalConfidence < threshold && usedBackend != target {
		logger.Info("escalating to stronger backend",
			"from", usedBackend,
			"to", target,
			"critical_confidence", merged.Stats.CriticalConfidence,
			"threshold", threshold)

		second, _, secondModel, err := p.runPass(ctx, wf, chunks, target)
		if err != nil {
			// The first pass already produced a usable envelope; a
			// failed escalation degrades to a warning.
			logger.Warn("escalation pass failed", "backend", target, "error", err)
			merged.AddWarning("escalation_failed:" + target)
		} else {
			merged = reconcile(merged, second)
			usedBackend = target
			usedModel = secondModel
		}
	}

	merged.Warnings = append(merged.Warnings, doc.Warnings...)
	merged.Status = envelopeStatus(merged, threshold)
	merged.Stats.Backend = usedBackend
	merged.Stats.Model = usedModel
	merged.Stats.Pages = len(doc.PageMap)
	merged.Stats.TokensEstimated = EstimateTokens(doc.Text)
	return merged, nil
}

// runPass extracts every chunk on the resolved backend and merges the
// per-chunk envelopes. Chunk calls run concurrently under a bounded
// worker group; merge order is fixed by chunk index, so concurrency
// does not affect the outcome.
func (p *Pipeline) runPass(ctx context.Context, wf schema.Workflow, chunks []doctext.Chunk, selector string) (*result.Envelope, string, string, error) {
	perChunk := make([]*result.Envelope, len(chunks))
	models := make([]string, len(chunks))
	usedBackend := p.router.Config().Resolve(selector)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chunkWorkers)
	for i, chunk := range chunks {
		g.Go(func() error {
			res, err := p.router.Route(gctx, selector, wf, chunk)
			if err != nil {
				return err
			}
			perChunk[i] = res.Envelope
			models[i] = res.Model
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", "", err
	}

	var usedModel string
	if len(models) > 0 {
		usedModel = models[0]
	}
	return Merge(perChunk, wf), usedBackend, usedModel, nil
}

// reconcile keeps, per field, whichever pass produced the higher
// confidence. Warnings concatenate; critical confidence takes the max.
func reconcile(first, second *result.Envelope) *result.Envelope {
	out := result.NewEnvelope()
	out.Warnings = append(out.Warnings, first.Warnings...)
	out.Warnings = append(out.Warnings, second.Warnings...)

	for name, fa := range first.Fields {
		if fb, ok := second.Fields[name]; ok && fb.Confidence > fa.Confidence {
			out.Fields[name] = fb
			continue
		}
		out.Fields[name] = fa
	}
	for name, fb := range second.Fields {
		if _, ok := first.Fields[name]; !ok {
			out.Fields[name] = fb
		}
	}

	out.Stats.CriticalConfidence = first.Stats.CriticalConfidence
	if second.Stats.CriticalConfidence > out.Stats.CriticalConfidence {
		out.Stats.CriticalConfidence = second.Stats.CriticalConfidence
	}
	return out
}

// envelopeStatus is failed only when not a single field produced a
// value, needs_review when critical confidence stays under threshold,
// otherwise ok.
func envelopeStatus(env *result.Envelope, threshold float64) result.Status {
	any := false
	for _, fr := range env.Fields {
		if fr.Value != nil {
			any = true
			break
		}
	}
	switch {
	case !any:
		return result.StatusFailed
	case env.Stats.CriticalConfidence < threshold:
		return result.StatusNeedsReview
	default:
		return result.StatusOK
	}
}
