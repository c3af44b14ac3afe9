package ingest

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/docsift/docsift/pkg/doctext"
)

// bodyPart is one decoded MIME part of a message.
type bodyPart struct {
	contentType string
	content     string
}

// ingestEML parses an RFC-822 message: folded headers, MIME multipart
// boundaries, and transfer-encoding decoding. Body preference order is
// text/plain, then text/html (converted through the HTML adapter), then a
// raw concatenation of all parts; each fallback appends a warning.
func ingestEML(data []byte, opts Options) doctext.Document {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		doc := newDocument(KindEML, strings.ReplaceAll(string(data), "\r", ""), data, opts,
			[]string{"not parseable as RFC-822 message; keeping raw content"})
		return doc
	}

	var warnings []string
	contentType := msg.Header.Get("Content-Type")
	parts, multipartErr := collectParts(msg.Body, contentType, msg.Header.Get("Content-Transfer-Encoding"))
	if multipartErr != nil {
		warnings = append(warnings, "multipart parse error: "+multipartErr.Error())
	}

	var text string
	if plain := findPart(parts, "text/plain"); plain != nil {
		text = strings.ReplaceAll(plain.content, "\r", "")
	} else if htmlPart := findPart(parts, "text/html"); htmlPart != nil {
		var w []string
		text, w = htmlToMarkdown(htmlPart.content)
		warnings = append(warnings, "email had only HTML body; converted to Markdown")
		warnings = append(warnings, w...)
	} else if len(parts) > 0 {
		raw := make([]string, 0, len(parts))
		for _, p := range parts {
			raw = append(raw, p.content)
		}
		text = strings.Join(raw, "\n\n")
		warnings = append(warnings, "email body parts were non-text; concatenated raw")
	}

	return newDocument(KindEML, text, data, opts, warnings)
}

// ingestMHTML handles multipart/related web archives by reusing the email
// multipart machinery and preferring the text/html part.
func ingestMHTML(data []byte, opts Options) doctext.Document {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		text, warnings := htmlToMarkdown(string(data))
		return newDocument(KindMHTML, text, data, opts, warnings)
	}

	var warnings []string
	parts, multipartErr := collectParts(msg.Body, msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"))
	if multipartErr != nil {
		warnings = append(warnings, "multipart parse error: "+multipartErr.Error())
	}

	var text string
	htmlPart := findPart(parts, "text/html")
	if htmlPart == nil && len(parts) > 0 {
		htmlPart = &parts[0]
	}
	if htmlPart != nil {
		var w []string
		text, w = htmlToMarkdown(htmlPart.content)
		warnings = append(warnings, w...)
	} else {
		body, _ := io.ReadAll(msg.Body)
		var w []string
		text, w = htmlToMarkdown(string(body))
		warnings = append(warnings, "no text/html part found in MHTML")
		warnings = append(warnings, w...)
	}
	return newDocument(KindMHTML, text, data, opts, warnings)
}

// collectParts flattens a message body into decoded parts. Single-part
// messages yield exactly one part carrying the top-level content type.
// Nested multiparts are walked recursively.
func collectParts(body io.Reader, contentType, transferEncoding string) ([]bodyPart, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		content, readErr := io.ReadAll(decodeTransfer(body, transferEncoding))
		if readErr != nil {
			return nil, readErr
		}
		if mediaType == "" {
			// Headerless bodies: sniff HTML, otherwise treat as plain.
			if strings.Contains(strings.ToLower(string(content)), "<html") {
				mediaType = "text/html"
			} else {
				mediaType = "text/plain"
			}
		}
		return []bodyPart{{contentType: mediaType, content: string(content)}}, nil
	}

	boundary := params["boundary"]
	if boundary == "" {
		content, _ := io.ReadAll(body)
		return []bodyPart{{contentType: mediaType, content: string(content)}}, nil
	}

	var parts []bodyPart
	mr := multipart.NewReader(body, boundary)
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return parts, nil
		}
		if err != nil {
			return parts, err
		}
		partType := p.Header.Get("Content-Type")
		if nested, nestedErr := collectParts(
			decodeTransfer(p, p.Header.Get("Content-Transfer-Encoding")), partType, ""); nestedErr == nil {
			parts = append(parts, nested...)
		}
	}
}

// decodeTransfer unwraps quoted-printable and base64 transfer encodings.
func decodeTransfer(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	}
	return r
}

func findPart(parts []bodyPart, contentType string) *bodyPart {
	for i := range parts {
		if strings.HasPrefix(strings.ToLower(parts[i].contentType), contentType) {
			return &parts[i]
		}
	}
	return nil
}
