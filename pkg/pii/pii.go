// Package pii provides an optional post-ingestion masking transform.
//
// Masking is a host-application policy, not part of ingestion: adapters
// always preserve content exactly, and the host decides whether to apply
// Mask before storing or displaying a document. Replacements are
// length-preserving so page maps, bbox tokens, and downstream spans stay
// valid.
package pii

import (
	"regexp"
	"strings"

	"github.com/docsift/docsift/pkg/doctext"
)

var (
	emailRx = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
	phoneRx = regexp.MustCompile(`(?:\+?\d[\s\-()]*){7,}`)
	ibanRx  = regexp.MustCompile(`(?i)[A-Z]{2}\d{2}[A-Z0-9]{10,30}`)
)

// Mask returns a copy of the document with emails, phone-number runs, and
// IBAN-like strings masked in the text. All offsets are unchanged.
func Mask(doc doctext.Document) doctext.Document {
	doc.Text = MaskText(doc.Text)
	return doc
}

// MaskText masks PII occurrences in a plain string.
func MaskText(text string) string {
	out := emailRx.ReplaceAllStringFunc(text, maskCenter)
	out = phoneRx.ReplaceAllStringFunc(out, maskDigits)
	out = ibanRx.ReplaceAllStringFunc(out, maskCenter)
	return out
}

// maskCenter keeps a short head and tail and stars out the middle.
func maskCenter(s string) string {
	if len(s) <= 6 {
		return strings.Repeat("*", len(s))
	}
	head := s[:len(s)*3/10]
	tail := s[len(s)-len(s)*2/10:]
	return head + strings.Repeat("*", len(s)-len(head)-len(tail)) + tail
}

// maskDigits keeps the first three and last two digits of a number run.
func maskDigits(s string) string {
	total := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			total++
		}
	}
	keepTail := total - 2
	if keepTail < 3 {
		keepTail = 3
	}
	seen := 0
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			seen++
			if seen <= 3 || seen > keepTail {
				b.WriteRune(r)
			} else {
				b.WriteByte('*')
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
