package ingest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/docsift/docsift/pkg/doctext"
)

// Geometry thresholds for reassembling reading order from positioned text
// runs, in PDF points. Lines are clustered by vertical position; within a
// line, a horizontal gap wider than the word threshold becomes a space and
// one wider than the column threshold becomes a tab, preserving tabular
// structure for downstream table heuristics.
const (
	lineTolerance  = 3.0
	wordGapFloor   = 2.5
	columnGapFloor = 12.0
)

// textRun is one positioned run of text on a page.
type textRun struct {
	x, y, w, size float64
	s             string
}

// ingestPDF extracts selectable text from a PDF, reconstructing reading
// order per page and tracking a bbox token for every emitted run. A PDF
// with no selectable text on any page produces a warning and zero pages
// (the scanned case; OCR fallback is the host's concern).
func ingestPDF(data []byte, opts Options) doctext.Document {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return doctext.Document{
			Text:     "",
			PageMap:  []doctext.PageSpan{},
			Warnings: []string{"not readable as PDF: " + err.Error()},
			Meta:     doctext.Meta{Adapter: string(KindPDF), MIME: opts.MIME, Filename: opts.Filename, Bytes: len(data)},
		}
	}

	var (
		text     strings.Builder
		pageMap  []doctext.PageSpan
		bboxMap  = map[int]doctext.PageGeometry{}
		warnings []string
	)

	numPages := reader.NumPage()
	for p := 1; p <= numPages; p++ {
		runs, pageErr := pageRuns(reader, p)
		if pageErr != nil {
			warnings = append(warnings, fmt.Sprintf("page %d unreadable: %v", p, pageErr))
			continue
		}
		pageText, tokens := layoutPage(runs)
		if strings.TrimSpace(pageText) == "" {
			continue
		}

		// The page break separator belongs to the span of the page that
		// follows it, so page spans stay contiguous.
		start := text.Len()
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		base := text.Len()
		text.WriteString(pageText)
		pageMap = append(pageMap, doctext.PageSpan{Page: p, Start: start, End: text.Len()})

		for i := range tokens {
			tokens[i].Start += base
			tokens[i].End += base
		}
		bboxMap[p] = doctext.PageGeometry{Tokens: tokens}
	}

	if len(pageMap) == 0 {
		return doctext.Document{
			Text:     "",
			PageMap:  []doctext.PageSpan{},
			Warnings: append(warnings, "no selectable text found in PDF; document may be scanned"),
			Meta:     doctext.Meta{Adapter: string(KindPDF), MIME: opts.MIME, Filename: opts.Filename, Bytes: len(data)},
		}
	}

	if warnings == nil {
		warnings = []string{}
	}
	return doctext.Document{
		Text:     text.String(),
		PageMap:  pageMap,
		BBoxMap:  bboxMap,
		Warnings: warnings,
		Meta:     doctext.Meta{Adapter: string(KindPDF), MIME: opts.MIME, Filename: opts.Filename, Bytes: len(data)},
	}
}

// pageRuns pulls positioned text runs off one page. The underlying parser
// panics on some malformed content streams, so recover into an error.
func pageRuns(reader *pdf.Reader, pageNum int) (runs []textRun, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf content stream: %v", r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, nil
	}
	content := page.Content()
	runs = make([]textRun, 0, len(content.Text))
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		runs = append(runs, textRun{x: t.X, y: t.Y, w: t.W, size: t.FontSize, s: t.S})
	}
	return runs, nil
}

// layoutPage rebuilds reading order for one page: cluster runs into lines
// by vertical coordinate, sort lines top to bottom and runs left to right,
// and choose the separator between adjacent runs from the horizontal gap.
// Returned token offsets are relative to the returned page text.
func layoutPage(runs []textRun) (string, []doctext.Token) {
	if len(runs) == 0 {
		return "", nil
	}
	lines := clusterLines(runs)

	var b strings.Builder
	var tokens []doctext.Token
	for li, line := range lines {
		if li > 0 {
			b.WriteByte('\n')
		}
		wordGap, columnGap := lineGaps(line)
		var prev *textRun
		for i := range line {
			run := line[i]
			if prev != nil {
				gap := run.x - (prev.x + prev.w)
				switch {
				case gap > columnGap:
					b.WriteByte('\t')
				case gap > wordGap:
					b.WriteByte(' ')
				}
			}
			start := b.Len()
			b.WriteString(run.s)
			tokens = append(tokens, doctext.Token{
				Text:  run.s,
				Start: start,
				End:   b.Len(),
				BBox:  doctext.BBox{X0: run.x, Y0: run.y, X1: run.x + run.w, Y1: run.y + run.size},
			})
			prev = &line[i]
		}
	}
	return b.String(), tokens
}

// clusterLines groups runs whose vertical positions agree within the line
// tolerance, returning lines top to bottom with runs left to right. PDF
// coordinates grow upward, so top to bottom means descending y.
func clusterLines(runs []textRun) [][]textRun {
	sorted := make([]textRun, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].y > sorted[j].y })

	var lines [][]textRun
	for _, run := range sorted {
		if n := len(lines); n > 0 {
			last := lines[n-1]
			if last[0].y-run.y <= lineTolerance {
				lines[n-1] = append(last, run)
				continue
			}
		}
		lines = append(lines, []textRun{run})
	}
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].x < line[j].x })
	}
	return lines
}

// lineGaps derives the word and column gap thresholds for a line from its
// average character width, with fixed floors.
func lineGaps(line []textRun) (word, column float64) {
	var width float64
	var chars int
	for _, run := range line {
		width += run.w
		chars += utf8.RuneCountInString(run.s)
	}
	avg := 0.0
	if chars > 0 {
		avg = width / float64(chars)
	}
	word = avg * 0.3
	if word < wordGapFloor {
		word = wordGapFloor
	}
	column = avg * 2
	if column < columnGapFloor {
		column = columnGapFloor
	}
	return word, column
}
