package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/docsift/docsift/pkg/ocr"
)

// fakeOCR returns a canned recognition result and records the language
// it was asked for.
type fakeOCR struct {
	res      ocr.Result
	err      error
	language string
}

func (f *fakeOCR) Recognize(ctx context.Context, image []byte, language string) (ocr.Result, error) {
	f.language = language
	return f.res, f.err
}

func TestIngestImageAlignsWords(t *testing.T) {
	engine := &fakeOCR{res: ocr.Result{
		Text: "Total due 120.00",
		Words: []ocr.Word{
			{Text: "Total", Confidence: 0.9, X0: 10, Y0: 20, X1: 60, Y1: 40},
			{Text: "due", Confidence: 0.9, X0: 70, Y0: 20, X1: 100, Y1: 40},
			{Text: "120.00", Confidence: 0.8, X0: 120, Y0: 20, X1: 200, Y1: 40},
		},
	}}

	doc := ingestImage(context.Background(), []byte{1, 2, 3}, Options{Filename: "scan.png", OCR: engine})

	if doc.Text != "Total due 120.00" {
		t.Fatalf("text = %q", doc.Text)
	}
	geom := doc.BBoxMap[1]
	if len(geom.Tokens) != 3 {
		t.Fatalf("tokens = %d, want 3", len(geom.Tokens))
	}
	for _, tok := range geom.Tokens {
		if doc.Text[tok.Start:tok.End] != tok.Text {
			t.Errorf("token %q offsets [%d,%d) do not slice the text", tok.Text, tok.Start, tok.End)
		}
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestIngestImageRepeatedWordsAdvance(t *testing.T) {
	engine := &fakeOCR{res: ocr.Result{
		Text: "tax tax",
		Words: []ocr.Word{
			{Text: "tax"},
			{Text: "tax"},
		},
	}}

	doc := ingestImage(context.Background(), []byte{1}, Options{OCR: engine})
	toks := doc.BBoxMap[1].Tokens
	if len(toks) != 2 {
		t.Fatalf("tokens = %d, want 2", len(toks))
	}
	if toks[0].Start != 0 || toks[1].Start != 4 {
		t.Errorf("starts = %d, %d; want 0, 4 (second occurrence)", toks[0].Start, toks[1].Start)
	}
}

func TestIngestImageUsesLanguageHint(t *testing.T) {
	engine := &fakeOCR{res: ocr.Result{Text: "ok"}}
	ingestImage(context.Background(), []byte{1}, Options{LanguageHint: "french", OCR: engine})
	if engine.language != "fra" {
		t.Errorf("OCR language = %q, want fra", engine.language)
	}
}

func TestIngestImageNoEngine(t *testing.T) {
	doc := ingestImage(context.Background(), []byte{1}, Options{})
	if doc.Text != "" {
		t.Errorf("text = %q, want empty", doc.Text)
	}
	if len(doc.Warnings) == 0 {
		t.Error("want a warning when no OCR engine is configured")
	}
}

func TestIngestImageOCRFailure(t *testing.T) {
	engine := &fakeOCR{err: errors.New("boom")}
	doc := ingestImage(context.Background(), []byte{1}, Options{OCR: engine})
	if doc.Text != "" {
		t.Errorf("text = %q, want empty", doc.Text)
	}
	if len(doc.Warnings) == 0 {
		t.Error("want a warning when OCR fails")
	}
}

func TestIngestImageEmptyRecognition(t *testing.T) {
	engine := &fakeOCR{res: ocr.Result{Text: "   "}}
	doc := ingestImage(context.Background(), []byte{1}, Options{OCR: engine})
	if len(doc.Warnings) == 0 {
		t.Error("want a warning when OCR finds no text")
	}
}
