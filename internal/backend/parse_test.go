package backend

import (
	"errors"
	"testing"

	"github.com/docsift/docsift/pkg/doctext"
	"github.com/docsift/docsift/pkg/schema"
)

func invoiceWorkflow() schema.Workflow {
	return schema.Workflow{
		ID:    "invoice",
		Title: "Invoice",
		Fields: []schema.Field{
			{Name: "invoice_number", Type: schema.TypeString, Critical: true},
			{Name: "grand_total", Type: schema.TypeNumber},
		},
	}
}

func TestDecodeModelOutputDirect(t *testing.T) {
	w, err := decodeModelOutput(Groq, `{"fields":{"invoice_number":{"value":"INV-1","confidence":0.9,"spans":[{"start":0,"end":5}]}},"warnings":[]}`)
	if err != nil {
		t.Fatalf("decodeModelOutput: %v", err)
	}
	if got := w.Fields["invoice_number"].Value; got != "INV-1" {
		t.Errorf("value = %v, want INV-1", got)
	}
}

func TestDecodeModelOutputSalvagesFencedJSON(t *testing.T) {
	content := "Here is the result:\n```json\n{\"fields\":{\"grand_total\":{\"value\":120.0,\"confidence\":0.8,\"spans\":[]}},\"warnings\":[]}\n```\nDone."
	w, err := decodeModelOutput(Ollama, content)
	if err != nil {
		t.Fatalf("decodeModelOutput: %v", err)
	}
	if got := w.Fields["grand_total"].Confidence; got != 0.8 {
		t.Errorf("confidence = %v, want 0.8", got)
	}
}

func TestDecodeModelOutputRejectsNonObject(t *testing.T) {
	for _, content := range []string{"I could not extract anything.", `[1,2,3]`, `"fields"`} {
		_, err := decodeModelOutput(Groq, content)
		if err == nil {
			t.Fatalf("decodeModelOutput(%q): expected error", content)
		}
		var be *Error
		if !errors.As(err, &be) || be.Kind != ErrParse {
			t.Errorf("decodeModelOutput(%q): error = %v, want parse-kind backend error", content, err)
		}
	}
}

func TestNormalizeEnvelopeTranslatesSpans(t *testing.T) {
	chunk := doctext.Chunk{ID: "1", Start: 100, Text: "Invoice No: INV-1 Total: 120.00"}
	w := &wire{Fields: map[string]wireField{
		"invoice_number": {Value: "INV-1", Confidence: 0.9, Spans: []wireSpan{{Start: 12, End: 17}}},
		"grand_total":    {Value: 120.0, Confidence: 1.4, Spans: []wireSpan{{Start: 25, End: 31}}},
	}}

	env := normalizeEnvelope(w, invoiceWorkflow(), chunk)

	spans := env.Fields["invoice_number"].Spans
	if len(spans) != 1 || spans[0].Start != 112 || spans[0].End != 117 {
		t.Fatalf("spans = %+v, want one absolute span 112..117", spans)
	}
	if got := env.Fields["grand_total"].Confidence; got != 1.0 {
		t.Errorf("confidence = %v, want clamped 1.0", got)
	}
}

func TestNormalizeEnvelopeDropsInvalidSpansAndNulls(t *testing.T) {
	chunk := doctext.Chunk{ID: "1", Start: 0, Text: "short"}
	w := &wire{Fields: map[string]wireField{
		"invoice_number": {Value: "INV-1", Confidence: 0.9, Spans: []wireSpan{{Start: 2, End: 99}}},
	}}

	env := normalizeEnvelope(w, invoiceWorkflow(), chunk)

	fr := env.Fields["invoice_number"]
	if fr.Value != nil {
		t.Errorf("value = %v, want null after all spans dropped", fr.Value)
	}
	if len(fr.Spans) != 0 {
		t.Errorf("spans = %+v, want empty", fr.Spans)
	}
}

func TestNormalizeEnvelopeMissingField(t *testing.T) {
	chunk := doctext.Chunk{ID: "1", Text: "nothing here"}
	w := &wire{Fields: map[string]wireField{}}

	env := normalizeEnvelope(w, invoiceWorkflow(), chunk)

	fr, ok := env.Fields["grand_total"]
	if !ok {
		t.Fatal("grand_total absent from envelope")
	}
	if fr.Value != nil || fr.Confidence != 0 {
		t.Errorf("field = %+v, want null with zero confidence", fr)
	}
	found := false
	for _, warn := range env.Warnings {
		if warn == "missing_field:grand_total" {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want missing_field:grand_total", env.Warnings)
	}
}
