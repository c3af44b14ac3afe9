// Package doctext defines the canonical normalized representation of an
// ingested document: the full text plus page and geometry offset maps.
package doctext

import "fmt"

// PageSpan maps a page number to a character range in Document.Text.
// Spans are non-overlapping, strictly increasing, end-exclusive.
type PageSpan struct {
	Page  int `json:"page"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// BBox is a rectangle in the source geometry (PDF points or image pixels).
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Token is a positioned run of text with its absolute character offsets
// into Document.Text.
type Token struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	BBox  BBox   `json:"bbox"`
}

// PageGeometry holds positioned tokens and lines for a single page.
// Only geometry-aware adapters (PDF, OCR) populate it.
type PageGeometry struct {
	Tokens []Token `json:"tokens,omitempty"`
	Lines  []Token `json:"lines,omitempty"`
}

// Meta records provenance of the ingestion.
type Meta struct {
	Adapter  string   `json:"adapter"`
	MIME     string   `json:"mime,omitempty"`
	Filename string   `json:"filename,omitempty"`
	Bytes    int      `json:"bytes,omitempty"`
	Notes    []string `json:"notes,omitempty"`
}

// Document is the output of ingestion. It is fully populated by the
// adapter before being returned and is immutable afterwards. Every offset
// referenced downstream (chunks, spans, bbox tokens) is relative to Text.
type Document struct {
	Text     string               `json:"text"`
	PageMap  []PageSpan           `json:"pageMap"`
	BBoxMap  map[int]PageGeometry `json:"bboxMap,omitempty"`
	Language string               `json:"language,omitempty"`
	Warnings []string             `json:"warnings"`
	Meta     Meta                 `json:"meta"`
}

// AddWarning appends a non-fatal adapter issue. Warnings are never cleared.
func (d *Document) AddWarning(w string) {
	d.Warnings = append(d.Warnings, w)
}

// Pages returns the number of pages in the page map.
func (d *Document) Pages() int {
	return len(d.PageMap)
}

// PageAt returns the page number containing the given character offset,
// or 0 when the offset falls outside every page span.
func (d *Document) PageAt(offset int) int {
	for _, ps := range d.PageMap {
		if offset >= ps.Start && offset < ps.End {
			return ps.Page
		}
	}
	return 0
}

// Validate checks the offset invariants: every page span and every bbox
// token span must satisfy 0 <= start <= end <= len(text), and page spans
// must be strictly increasing and non-overlapping.
func (d *Document) Validate() error {
	n := len(d.Text)
	prevEnd := 0
	for i, ps := range d.PageSpans() {
		if ps.Start < 0 || ps.End < ps.Start || ps.End > n {
			return fmt.Errorf("page %d span [%d,%d) out of range [0,%d)", ps.Page, ps.Start, ps.End, n)
		}
		if i > 0 && ps.Start < prevEnd {
			return fmt.Errorf("page %d span overlaps previous page", ps.Page)
		}
		prevEnd = ps.End
	}
	for page, geom := range d.BBoxMap {
		for _, tok := range geom.Tokens {
			if tok.Start < 0 || tok.End < tok.Start || tok.End > n {
				return fmt.Errorf("page %d token %q span [%d,%d) out of range", page, tok.Text, tok.Start, tok.End)
			}
		}
		for _, line := range geom.Lines {
			if line.Start < 0 || line.End < line.Start || line.End > n {
				return fmt.Errorf("page %d line span [%d,%d) out of range", page, line.Start, line.End)
			}
		}
	}
	return nil
}

// PageSpans returns the page map, never nil.
func (d *Document) PageSpans() []PageSpan {
	if d.PageMap == nil {
		return []PageSpan{}
	}
	return d.PageMap
}

// SinglePage builds the page map for a document whose entire text is one
// logical page. Most non-paginated adapters use it.
func SinglePage(text string) []PageSpan {
	return []PageSpan{{Page: 1, Start: 0, End: len(text)}}
}

// Chunk is a bounded substring of a document submitted to an extraction
// backend. Start and End are absolute offsets into the source Document's
// Text and Text == document.Text[Start:End]. Chunks may overlap so that a
// value straddling a boundary appears whole in at least one chunk.
type Chunk struct {
	ID    string `json:"id"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}
