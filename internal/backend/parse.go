package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/docsift/docsift/pkg/doctext"
	"github.com/docsift/docsift/pkg/result"
	"github.com/docsift/docsift/pkg/schema"
)

// wire mirrors the JSON contract a remote backend is instructed to emit.
// Spans arrive chunk-relative.
type wire struct {
	Fields   map[string]wireField `json:"fields"`
	Warnings []string             `json:"warnings"`
}

type wireField struct {
	Value      any        `json:"value"`
	Confidence float64    `json:"confidence"`
	Spans      []wireSpan `json:"spans"`
	Warnings   []string   `json:"warnings"`
}

type wireSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// decodeModelOutput parses free-form model text into the wire contract,
// salvaging the outermost JSON object substring when the response carries
// prose or code fences around it. Output that is not a JSON object is a
// request-level parse error.
func decodeModelOutput(name, content string) (*wire, error) {
	raw := strings.TrimSpace(content)

	var w wire
	if err := json.Unmarshal([]byte(raw), &w); err == nil {
		if w.Fields == nil {
			return nil, &Error{Backend: name, Kind: ErrParse,
				Err: fmt.Errorf("model output is valid JSON but not the expected object")}
		}
		return &w, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, &Error{Backend: name, Kind: ErrParse,
			Err: fmt.Errorf("no JSON object found in model output")}
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &w); err != nil {
		return nil, &Error{Backend: name, Kind: ErrParse,
			Err: fmt.Errorf("salvaged JSON substring does not parse: %w", err)}
	}
	if w.Fields == nil {
		return nil, &Error{Backend: name, Kind: ErrParse,
			Err: fmt.Errorf("salvaged JSON is not the expected object")}
	}
	return &w, nil
}

// normalizeEnvelope converts wire output into a result envelope: every
// schema field is present (absent ones become null with a missing_field
// warning), confidence is clamped to [0,1], chunk-relative spans are
// translated to document-absolute offsets, and the span-or-null invariant
// is enforced.
func normalizeEnvelope(w *wire, wf schema.Workflow, chunk doctext.Chunk) *result.Envelope {
	env := result.NewEnvelope()
	env.Warnings = append(env.Warnings, w.Warnings...)

	for _, name := range wf.FieldNames() {
		raw, ok := w.Fields[name]
		if !ok {
			env.Fields[name] = result.Field{
				Value:      nil,
				Confidence: 0,
				Spans:      []result.Span{},
				Warnings:   []string{"missing_field"},
			}
			env.AddWarning("missing_field:" + name)
			continue
		}

		spans := make([]result.Span, 0, len(raw.Spans))
		for _, s := range raw.Spans {
			if s.Start < 0 || s.End < s.Start || s.End > len(chunk.Text) {
				continue
			}
			spans = append(spans, result.Span{
				Start: chunk.Start + s.Start,
				End:   chunk.Start + s.End,
			})
		}
		env.Fields[name] = result.Field{
			Value:      raw.Value,
			Confidence: result.ClampConfidence(raw.Confidence),
			Spans:      spans,
			Warnings:   raw.Warnings,
		}
	}

	env.Normalize()
	return env
}
