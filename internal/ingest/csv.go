package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/docsift/docsift/pkg/doctext"
)

// ingestCSV parses RFC-4180 CSV (quoted fields, doubled-quote escaping,
// CRLF and LF line endings) and renders each record as a tab-joined line.
// Tabs keep column structure visible to downstream table heuristics.
func ingestCSV(data []byte, opts Options) doctext.Document {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var warnings []string
	records, err := r.ReadAll()
	if err != nil {
		// Keep whatever parsed plus the raw remainder rather than failing.
		warnings = append(warnings, fmt.Sprintf("csv parse error: %v", err))
	}

	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, strings.Join(rec, "\t"))
	}
	text := strings.Join(lines, "\n")
	if text == "" && err != nil {
		text = strings.ReplaceAll(string(data), "\r", "")
	}
	return newDocument(KindCSV, text, data, opts, warnings)
}
