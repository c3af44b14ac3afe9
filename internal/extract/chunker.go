// Package extract drives the chunk/route/merge pipeline: a document's
// text is split into overlapping chunks, each chunk runs through an
// extraction backend, and the per-chunk envelopes merge into one result
// with an optional low-confidence escalation pass.
package extract

import (
	"strconv"

	"github.com/docsift/docsift/pkg/doctext"
)

const (
	defaultMaxTokens  = 3000
	defaultOverlapPct = 0.12
)

// ChunkOptions tune the splitter. Zero values take the defaults.
type ChunkOptions struct {
	MaxTokens  int
	OverlapPct float64
}

// EstimateTokens approximates the token count of text at ~4 chars per
// token, rounding up.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// ChunkText splits text into chunks of at most MaxTokens estimated
// tokens, each overlapping the previous by OverlapPct so facts sitting
// on a boundary appear whole in at least one chunk. Text within budget
// comes back as a single chunk; empty text yields none.
func ChunkText(text string, opts ChunkOptions) []doctext.Chunk {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	overlapPct := opts.OverlapPct
	if overlapPct <= 0 {
		overlapPct = defaultOverlapPct
	}
	if text == "" {
		return nil
	}

	if EstimateTokens(text) <= maxTokens {
		return []doctext.Chunk{{ID: "0", Start: 0, End: len(text), Text: text}}
	}

	chunkChars := maxTokens * 4
	overlapChars := int(float64(chunkChars) * overlapPct)

	var chunks []doctext.Chunk
	start := 0
	for idx := 0; start < len(text); idx++ {
		end := start + chunkChars
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, doctext.Chunk{
			ID:    strconv.Itoa(idx),
			Start: start,
			End:   end,
			Text:  text[start:end],
		})
		if end == len(text) {
			break
		}
		start = end - overlapChars
	}
	return chunks
}
