package ingest

import (
	"strings"
	"testing"
)

// run builds a positioned text run; width is approximated from the text
// length at 5pt per character.
func run(s string, x, y float64) textRun {
	return textRun{x: x, y: y, w: float64(len(s)) * 5, size: 10, s: s}
}

func TestClusterLinesGroupsByVerticalPosition(t *testing.T) {
	runs := []textRun{
		run("bottom", 10, 100),
		run("top-right", 200, 700),
		run("top-left", 10, 702), // within tolerance of 700
		run("middle", 10, 400),
	}

	lines := clusterLines(runs)
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if lines[0][0].s != "top-left" || lines[0][1].s != "top-right" {
		t.Errorf("top line = %v, want left-to-right order", lineTexts(lines[0]))
	}
	if lines[1][0].s != "middle" {
		t.Errorf("middle line = %v", lineTexts(lines[1]))
	}
	if lines[2][0].s != "bottom" {
		t.Errorf("bottom line = %v", lineTexts(lines[2]))
	}
}

func lineTexts(line []textRun) []string {
	out := make([]string, len(line))
	for i, r := range line {
		out[i] = r.s
	}
	return out
}

func TestLayoutPageSeparators(t *testing.T) {
	// "Total" and "due" sit a word-gap apart; "120.00" is across a column
	// gap. Word gap threshold for 5pt chars is max(5*0.3, 2.5) = 2.5 and
	// column is max(5*2, 12) = 12.
	runs := []textRun{
		run("Total", 10, 500),   // ends at x=35
		run("due", 40, 500),     // gap 5 -> space
		run("120.00", 150, 500), // gap 95 -> tab
	}

	text, tokens := layoutPage(runs)
	if text != "Total due\t120.00" {
		t.Fatalf("text = %q, want %q", text, "Total due\t120.00")
	}
	if len(tokens) != 3 {
		t.Fatalf("tokens = %d, want 3", len(tokens))
	}
	for _, tok := range tokens {
		if text[tok.Start:tok.End] != tok.Text {
			t.Errorf("token %q offsets [%d,%d) do not slice the page text", tok.Text, tok.Start, tok.End)
		}
	}
	if tokens[2].BBox.X0 != 150 {
		t.Errorf("token bbox X0 = %v, want 150", tokens[2].BBox.X0)
	}
}

func TestLayoutPageMultipleLines(t *testing.T) {
	runs := []textRun{
		run("second line", 10, 480),
		run("first line", 10, 500),
	}
	text, _ := layoutPage(runs)
	if text != "first line\nsecond line" {
		t.Errorf("text = %q, want two newline-separated lines", text)
	}
}

func TestLayoutPageAdjacentRunsNoSeparator(t *testing.T) {
	// Runs that touch (kerned fragments of one word) join without a space.
	runs := []textRun{
		run("Inv", 10, 500),  // ends at 25
		run("oice", 25, 500), // gap 0
	}
	text, _ := layoutPage(runs)
	if text != "Invoice" {
		t.Errorf("text = %q, want fragments joined", text)
	}
}

func TestLayoutPageEmpty(t *testing.T) {
	text, tokens := layoutPage(nil)
	if text != "" || tokens != nil {
		t.Errorf("layoutPage(nil) = %q, %v, want empty", text, tokens)
	}
}

func TestLineGapsFloors(t *testing.T) {
	// Tiny glyphs still get the fixed floors.
	word, column := lineGaps([]textRun{{w: 1, s: "abcdefghij"}})
	if word != wordGapFloor {
		t.Errorf("word gap = %v, want floor %v", word, wordGapFloor)
	}
	if column != columnGapFloor {
		t.Errorf("column gap = %v, want floor %v", column, columnGapFloor)
	}
}

func TestIngestPDFGarbageInput(t *testing.T) {
	doc := ingestPDF([]byte("certainly not a pdf"), Options{Filename: "x.pdf"})
	if doc.Text != "" {
		t.Errorf("text = %q, want empty", doc.Text)
	}
	if len(doc.Warnings) == 0 || !strings.Contains(doc.Warnings[0], "not readable as PDF") {
		t.Errorf("warnings = %v, want unreadable warning", doc.Warnings)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
