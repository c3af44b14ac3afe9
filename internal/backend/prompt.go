package backend

import (
	"strings"

	"github.com/docsift/docsift/pkg/doctext"
	"github.com/docsift/docsift/pkg/schema"
)

const extractionSystemPrompt = `You are a document field extraction engine. You read a document excerpt and extract the requested fields exactly as evidenced by the text.

Rules:
1. Respond with a single JSON object and nothing else
2. Every extracted value must cite the character span it was read from
3. Spans are character offsets relative to the start of the provided excerpt, end exclusive
4. If a field is not evidenced in the excerpt, use value null, confidence 0, and an empty spans list
5. Confidence is a number between 0 and 1
6. For numeric fields, extract the numeric value only (no currency symbols or separators)`

// buildPrompt constructs the strict instruction prompt for a remote
// backend: it names every schema field, pins the required JSON shape, and
// states that spans are chunk-relative.
func buildPrompt(wf schema.Workflow, chunk doctext.Chunk) string {
	var b strings.Builder
	b.WriteString("Extract the following fields from the document excerpt.\n\n## Fields\n")
	for _, f := range wf.Fields {
		b.WriteString("- ")
		b.WriteString(f.Name)
		b.WriteString(" (")
		b.WriteString(string(f.Type))
		b.WriteString(")")
		if f.Description != "" {
			b.WriteString(": ")
			b.WriteString(f.Description)
		}
		if len(f.Enum) > 0 {
			b.WriteString(" [one of: ")
			b.WriteString(strings.Join(f.Enum, ", "))
			b.WriteString("]")
		}
		if f.Format != "" {
			b.WriteString(" [format: ")
			b.WriteString(f.Format)
			b.WriteString("]")
		}
		b.WriteString("\n")
	}

	b.WriteString(`
## Output format
Return exactly this JSON structure:
{"fields": {"<field name>": {"value": <value or null>, "confidence": <0..1>, "spans": [{"start": <int>, "end": <int>}]}}, "warnings": []}

Span offsets are relative to the excerpt below, zero-based, end exclusive.

## Document excerpt
`)
	b.WriteString("```\n")
	b.WriteString(chunk.Text)
	b.WriteString("\n```\n")
	return b.String()
}
