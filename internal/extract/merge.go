package extract

import (
	"fmt"

	"github.com/docsift/docsift/pkg/result"
	"github.com/docsift/docsift/pkg/schema"
)

// Merge folds per-chunk envelopes into one: for each schema field the
// non-null candidate with the strictly highest confidence wins, ties
// break toward the earliest span. Winners without spans revert to null
// with a missing_span warning. The merged envelope's critical
// confidence is the mean over critical fields (all fields when the
// schema marks none critical).
func Merge(perChunk []*result.Envelope, wf schema.Workflow) *result.Envelope {
	env := result.NewEnvelope()

	for _, name := range wf.FieldNames() {
		var best *result.Field
		for _, res := range perChunk {
			candidate, ok := res.Fields[name]
			if !ok || candidate.Value == nil {
				continue
			}
			if best == nil {
				c := candidate
				best = &c
				continue
			}
			switch {
			case candidate.Confidence > best.Confidence:
				c := candidate
				best = &c
			case candidate.Confidence == best.Confidence &&
				candidate.EarliestSpan() < best.EarliestSpan():
				c := candidate
				best = &c
			}
		}

		if best == nil {
			env.Fields[name] = result.Field{
				Value:    nil,
				Spans:    []result.Span{},
				Warnings: []string{"no_span_or_value"},
			}
			env.AddWarning(fmt.Sprintf("missing:%s", name))
			continue
		}
		if len(best.Spans) == 0 {
			best.Value = nil
			best.Warnings = append(best.Warnings, "missing_span")
			env.AddWarning(fmt.Sprintf("missing_span:%s", name))
		}
		env.Fields[name] = *best
	}

	env.Stats.CriticalConfidence = criticalConfidence(env.Fields, wf)
	return env
}

func criticalConfidence(merged map[string]result.Field, wf schema.Workflow) float64 {
	var confs []float64
	for _, f := range wf.Critical() {
		confs = append(confs, merged[f.Name].Confidence)
	}
	if len(confs) == 0 {
		for _, fr := range merged {
			confs = append(confs, fr.Confidence)
		}
	}
	if len(confs) == 0 {
		return 0
	}
	var sum float64
	for _, c := range confs {
		sum += c
	}
	return sum / float64(len(confs))
}
