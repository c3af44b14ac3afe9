package ingest

import (
	"bytes"

	"github.com/docsift/docsift/pkg/doctext"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ingestText is the plain-text adapter and the fallback for anything the
// dispatcher cannot classify.
func ingestText(data []byte, opts Options) doctext.Document {
	text := string(bytes.TrimPrefix(data, utf8BOM))
	return newDocument(KindText, text, data, opts, nil)
}
