package ingest

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"

	"github.com/docsift/docsift/pkg/doctext"
)

// Outlook MSG property streams inside the compound-file container. The
// suffix encodes the property type: 001F is UTF-16LE, 001E is 8-bit.
const (
	msgBodyUnicode = "__substg1.0_1000001F"
	msgBodyANSI    = "__substg1.0_1000001E"
	msgHTMLBody    = "__substg1.0_10130102"
)

// ingestMSG reads the message body out of an Outlook .msg compound file.
// Preference order mirrors the email adapter: plain body first, HTML body
// converted to Markdown second.
func ingestMSG(data []byte, opts Options) doctext.Document {
	reader, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return newDocument(KindMSG, "", data, opts,
			[]string{"not a valid MSG compound file: " + err.Error()})
	}

	var plain, ansi string
	var htmlBody []byte
	for entry, err := reader.Next(); err == nil; entry, err = reader.Next() {
		switch entry.Name {
		case msgBodyUnicode:
			raw, _ := io.ReadAll(entry)
			plain = decodeUTF16LE(raw)
		case msgBodyANSI:
			raw, _ := io.ReadAll(entry)
			ansi = string(raw)
		case msgHTMLBody:
			htmlBody, _ = io.ReadAll(entry)
		}
	}

	var warnings []string
	var text string
	switch {
	case plain != "":
		text = strings.ReplaceAll(plain, "\r", "")
	case ansi != "":
		text = strings.ReplaceAll(ansi, "\r", "")
	case len(htmlBody) > 0:
		var w []string
		text, w = htmlToMarkdown(string(htmlBody))
		warnings = append(warnings, "MSG had only HTML body; converted to Markdown")
		warnings = append(warnings, w...)
	default:
		warnings = append(warnings, "MSG contained no readable body stream")
	}

	return newDocument(KindMSG, text, data, opts, warnings)
}

// decodeUTF16LE converts little-endian UTF-16 bytes to a string, dropping
// a trailing NUL if present.
func decodeUTF16LE(b []byte) string {
	if len(b) < 2 {
		return ""
	}
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])|uint16(b[i+1])<<8)
	}
	for len(units) > 0 && units[len(units)-1] == 0 {
		units = units[:len(units)-1]
	}
	return string(utf16.Decode(units))
}
