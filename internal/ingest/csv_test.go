package ingest

import (
	"strings"
	"testing"
)

func TestIngestCSVTabJoinsFields(t *testing.T) {
	data := []byte("name,qty,price\nWidget,2,10.50\n\"Gadget, large\",1,99.00\n")
	doc := ingestCSV(data, Options{Filename: "items.csv"})

	lines := strings.Split(doc.Text, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3: %q", len(lines), doc.Text)
	}
	if lines[0] != "name\tqty\tprice" {
		t.Errorf("header = %q, want tab-joined", lines[0])
	}
	if lines[2] != "Gadget, large\t1\t99.00" {
		t.Errorf("quoted field = %q, want comma preserved inside field", lines[2])
	}
	if len(doc.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", doc.Warnings)
	}
}

func TestIngestCSVCRLF(t *testing.T) {
	doc := ingestCSV([]byte("a,b\r\n1,2\r\n"), Options{})
	if doc.Text != "a\tb\n1\t2" {
		t.Errorf("text = %q, want CRLF handled", doc.Text)
	}
}

func TestIngestCSVRaggedRows(t *testing.T) {
	doc := ingestCSV([]byte("a,b,c\n1,2\n"), Options{})
	if !strings.Contains(doc.Text, "1\t2") {
		t.Errorf("text = %q, want ragged row kept", doc.Text)
	}
}

func TestIngestCSVMalformedFallsBackToRaw(t *testing.T) {
	raw := "a,\"unterminated\nrow2"
	doc := ingestCSV([]byte(raw), Options{})

	if doc.Text == "" {
		t.Error("text is empty, want raw fallback or partial parse")
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
