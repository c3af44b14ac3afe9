package ingest

import (
	"context"
	"strings"

	"github.com/docsift/docsift/pkg/doctext"
	"github.com/docsift/docsift/pkg/ocr"
)

// ingestImage runs the configured OCR engine over the image and aligns
// each recognized word against the full text by scanning forward only, so
// repeated words land on successive occurrences. Words that cannot be
// located exactly (or trimmed) fall back to placement at the cursor.
func ingestImage(ctx context.Context, data []byte, opts Options) doctext.Document {
	if opts.OCR == nil {
		return newDocument(KindImage, "", data, opts,
			[]string{"no OCR engine configured; image not recognized"})
	}

	lang := ocrLanguage(opts.LanguageHint)
	res, err := opts.OCR.Recognize(ctx, data, lang)
	if err != nil {
		return newDocument(KindImage, "", data, opts,
			[]string{"OCR failed: " + err.Error()})
	}

	fullText := strings.ReplaceAll(res.Text, "\r\n", "\n")
	doc := newDocument(KindImage, fullText, data, opts, nil)

	tokens := alignWords(fullText, res)
	doc.BBoxMap = map[int]doctext.PageGeometry{1: {Tokens: tokens}}

	if strings.TrimSpace(fullText) == "" {
		doc.AddWarning("OCR produced no text; image may be unreadable")
	}
	return doc
}

// alignWords maps per-word OCR output onto character offsets in the full
// recognized text. The cursor never moves backward.
func alignWords(fullText string, res ocr.Result) []doctext.Token {
	tokens := make([]doctext.Token, 0, len(res.Words))
	cursor := 0
	for _, w := range res.Words {
		if w.Text == "" {
			continue
		}
		start := indexFrom(fullText, w.Text, cursor)
		if start < 0 {
			if trimmed := strings.TrimSpace(w.Text); trimmed != "" {
				start = indexFrom(fullText, trimmed, cursor)
			}
		}
		if start < 0 {
			start = cursor
		}
		end := start + len(w.Text)
		if end > len(fullText) {
			end = len(fullText)
		}
		cursor = end
		tokens = append(tokens, doctext.Token{
			Text:  w.Text,
			Start: start,
			End:   end,
			BBox:  doctext.BBox{X0: w.X0, Y0: w.Y0, X1: w.X1, Y1: w.Y1},
		})
	}
	return tokens
}

func indexFrom(s, sub string, from int) int {
	if from >= len(s) {
		return -1
	}
	i := strings.Index(s[from:], sub)
	if i < 0 {
		return -1
	}
	return from + i
}
