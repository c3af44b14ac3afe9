package backend

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/docsift/docsift/pkg/doctext"
	"github.com/docsift/docsift/pkg/result"
	"github.com/docsift/docsift/pkg/schema"
)

// localWindow is how far past a label hint the proximity search reads.
const localWindow = 200

// fieldPatterns anchor common invoice-style fields when a schema gives no
// usable label hints. The last capture group is the extracted value.
var fieldPatterns = map[string][]*regexp.Regexp{
	"invoice_number": {regexp.MustCompile(`(?i)invoice\s*(no\.?|number)\s*[:#]?\s*([A-Z0-9\-]+)`)},
	"issue_date":     {regexp.MustCompile(`(?i)(date|issue date)\s*[:#]?\s*([0-9]{4}-[0-9]{2}-[0-9]{2}|[0-9]{2}/[0-9]{2}/[0-9]{4})`)},
	"due_date":       {regexp.MustCompile(`(?i)(due\s*date)\s*[:#]?\s*([0-9]{4}-[0-9]{2}-[0-9]{2}|[0-9]{2}/[0-9]{2}/[0-9]{4})`)},
	"currency":       {regexp.MustCompile(`(?i)(currency|curr\.)\s*[:#]?\s*([A-Z]{3})`)},
	"subtotal":       {regexp.MustCompile(`(?i)(subtotal)\s*[:#]?\s*([$€£]?\s*[0-9,]+\.?[0-9]*)`)},
	"tax_total":      {regexp.MustCompile(`(?i)((vat|tax)(\s*total)?)\s*[:#]?\s*([$€£]?\s*[0-9,]+\.?[0-9]*)`)},
	"grand_total":    {regexp.MustCompile(`(?i)(total\s*(due|amount)?|amount\s*due)\s*[:#]?\s*([$€£]?\s*[0-9,]+\.?[0-9]*)`)},
	"vat_id":         {regexp.MustCompile(`(?i)(vat|tax)\s*(id|no\.?|number)\s*[:#]?\s*([A-Z0-9]{6,})`)},
}

var lastTokenRx = regexp.MustCompile(`(?m)(\S{2,})\s*$`)

// LocalBackend is a label-led extractor for offline use. It is not a model;
// it relies on label proximity and a small regex table, so confidence stays
// low and unsupported fields come back null.
type LocalBackend struct{}

// NewLocalBackend creates the offline extractor.
func NewLocalBackend() *LocalBackend { return &LocalBackend{} }

// Name returns the backend identifier.
func (b *LocalBackend) Name() string { return Local }

// Model returns the pseudo-model identifier.
func (b *LocalBackend) Model() string { return "heuristic" }

// Extract runs label-proximity and regex extraction over the chunk.
func (b *LocalBackend) Extract(ctx context.Context, wf schema.Workflow, chunk doctext.Chunk) (*result.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Backend: Local, Kind: ErrRequest, Err: err}
	}

	env := result.NewEnvelope()
	for _, f := range wf.Fields {
		fr := b.extractField(f, chunk)
		if fr == nil {
			env.Fields[f.Name] = result.Field{Value: nil, Confidence: 0, Spans: []result.Span{}, Warnings: []string{"not_found"}}
			env.AddWarning(fmt.Sprintf("missing:%s", f.Name))
			continue
		}
		env.Fields[f.Name] = *fr
	}
	env.Stats.Backend = Local
	return env, nil
}

func (b *LocalBackend) extractField(f schema.Field, chunk doctext.Chunk) *result.Field {
	lower := strings.ToLower(chunk.Text)

	// Hint-anchored proximity: find the label, read the last token of the
	// line it starts.
	for _, hint := range f.LabelHints {
		idx := strings.Index(lower, strings.ToLower(hint))
		if idx < 0 {
			continue
		}
		end := idx + localWindow
		if end > len(chunk.Text) {
			end = len(chunk.Text)
		}
		window := chunk.Text[idx:end]
		m := lastTokenRx.FindStringSubmatch(window)
		if m == nil {
			continue
		}
		raw := m[1]
		start := idx + strings.LastIndex(window, raw)
		return &result.Field{
			Value:      castValue(f, raw),
			Confidence: 0.5,
			Spans:      []result.Span{{Start: chunk.Start + start, End: chunk.Start + start + len(raw)}},
			Warnings:   []string{},
		}
	}

	for _, rx := range fieldPatterns[f.Name] {
		loc := rx.FindStringSubmatchIndex(chunk.Text)
		if loc == nil {
			continue
		}
		// Last matched capture group holds the value.
		var start, end int = -1, -1
		for g := len(loc)/2 - 1; g >= 1; g-- {
			if loc[2*g] >= 0 {
				start, end = loc[2*g], loc[2*g+1]
				break
			}
		}
		if start < 0 {
			continue
		}
		raw := chunk.Text[start:end]
		return &result.Field{
			Value:      castValue(f, raw),
			Confidence: 0.7,
			Spans:      []result.Span{{Start: chunk.Start + start, End: chunk.Start + end}},
			Warnings:   []string{},
		}
	}
	return nil
}

func castValue(f schema.Field, raw string) any {
	switch f.Type {
	case schema.TypeNumber, schema.TypeInteger:
		return parseMoney(raw)
	case schema.TypeBoolean:
		switch strings.ToLower(raw) {
		case "true", "yes", "1":
			return true
		}
		return false
	default:
		// Dates pass through as written; callers format downstream.
		return raw
	}
}

// parseMoney strips currency symbols and thousands separators.
func parseMoney(raw string) any {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == ',':
			// thousands separator, drop
		}
	}
	num, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return nil
	}
	return num
}
