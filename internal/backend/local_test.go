package backend

import (
	"context"
	"testing"

	"github.com/docsift/docsift/pkg/doctext"
	"github.com/docsift/docsift/pkg/schema"
)

func testChunk(text string) doctext.Chunk {
	return doctext.Chunk{ID: "1", Start: 0, End: len(text), Text: text}
}

func TestLocalBackendRegexTable(t *testing.T) {
	// "Total Due" sits ahead of "Subtotal": the grand_total pattern takes
	// the leftmost match, and "Subtotal" contains the word "total".
	text := "Invoice No: INV-2025-003\nDate: 2025-01-15\nTotal Due: 120.00\nSubtotal: 100.00\nVAT Total: 20.00\n"
	wf := schema.Workflow{
		ID: "invoice",
		Fields: []schema.Field{
			{Name: "invoice_number", Type: schema.TypeString},
			{Name: "issue_date", Type: schema.TypeDate},
			{Name: "subtotal", Type: schema.TypeNumber},
			{Name: "tax_total", Type: schema.TypeNumber},
			{Name: "grand_total", Type: schema.TypeNumber},
		},
	}

	env, err := NewLocalBackend().Extract(context.Background(), wf, testChunk(text))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if got := env.Fields["invoice_number"].Value; got != "INV-2025-003" {
		t.Errorf("invoice_number = %v, want INV-2025-003", got)
	}
	if got := env.Fields["issue_date"].Value; got != "2025-01-15" {
		t.Errorf("issue_date = %v, want 2025-01-15", got)
	}
	if got := env.Fields["grand_total"].Value; got != 120.0 {
		t.Errorf("grand_total = %v, want 120", got)
	}
	if got := env.Fields["grand_total"].Confidence; got != 0.7 {
		t.Errorf("grand_total confidence = %v, want 0.7", got)
	}
}

func TestLocalBackendSpansCoverSourceText(t *testing.T) {
	text := "Invoice Number: ABC-9"
	wf := schema.Workflow{ID: "w", Fields: []schema.Field{{Name: "invoice_number", Type: schema.TypeString}}}

	// Offset chunk to verify spans come back document-absolute.
	chunk := doctext.Chunk{ID: "2", Start: 50, End: 50 + len(text), Text: text}
	env, err := NewLocalBackend().Extract(context.Background(), wf, chunk)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	spans := env.Fields["invoice_number"].Spans
	if len(spans) != 1 {
		t.Fatalf("spans = %+v, want one", spans)
	}
	if spans[0].Start != 50+16 || spans[0].End != 50+21 {
		t.Errorf("span = %+v, want 66..71", spans[0])
	}
}

func TestLocalBackendLabelHintProximity(t *testing.T) {
	text := "Reference Code: XJ-778\n"
	wf := schema.Workflow{ID: "w", Fields: []schema.Field{
		{Name: "reference", Type: schema.TypeString, LabelHints: []string{"Reference Code"}},
	}}

	env, err := NewLocalBackend().Extract(context.Background(), wf, testChunk(text))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	fr := env.Fields["reference"]
	if fr.Value != "XJ-778" {
		t.Errorf("reference = %v, want XJ-778", fr.Value)
	}
	if fr.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", fr.Confidence)
	}
}

func TestLocalBackendMissingFieldIsNull(t *testing.T) {
	env, err := NewLocalBackend().Extract(context.Background(),
		schema.Workflow{ID: "w", Fields: []schema.Field{{Name: "po_number", Type: schema.TypeString}}},
		testChunk("no anchors here"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	fr := env.Fields["po_number"]
	if fr.Value != nil || len(fr.Spans) != 0 {
		t.Errorf("field = %+v, want null with no spans", fr)
	}
	if len(env.Warnings) == 0 || env.Warnings[0] != "missing:po_number" {
		t.Errorf("warnings = %v, want missing:po_number", env.Warnings)
	}
}
