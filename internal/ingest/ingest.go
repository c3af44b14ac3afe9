// Package ingest converts heterogeneous document bytes into the canonical
// doctext.Document representation. One adapter per input kind; the
// dispatcher selects the adapter from filename and MIME type.
package ingest

import (
	"context"
	"regexp"
	"strings"

	"github.com/docsift/docsift/internal/logger"
	"github.com/docsift/docsift/pkg/doctext"
	"github.com/docsift/docsift/pkg/ocr"
)

// Kind identifies a format adapter.
type Kind string

const (
	KindText         Kind = "text"
	KindHTML         Kind = "html"
	KindMHTML        Kind = "mhtml"
	KindEML          Kind = "eml"
	KindMSG          Kind = "msg"
	KindCSV          Kind = "csv"
	KindSpreadsheet  Kind = "spreadsheet"
	KindPDF          Kind = "pdf"
	KindDOCX         Kind = "docx"
	KindDOC          Kind = "doc"
	KindPresentation Kind = "presentation"
	KindImage        Kind = "image"
)

// Options configures a single ingestion.
type Options struct {
	Filename     string
	MIME         string
	LanguageHint string
	// OCR is the external recognition capability used by the image
	// adapter. When nil, image inputs degrade to a warning.
	OCR ocr.Engine
}

var imageExtRx = regexp.MustCompile(`(?i)\.(png|jpg|jpeg|tif|tiff|bmp|gif|webp|heic)$`)

// Detect selects the adapter for a file. The checks form a fixed priority
// table: the first matching row wins, ties always resolve to the
// earliest-listed adapter, and unknown inputs default to plain text.
func Detect(filename, mime string) Kind {
	ext := strings.ToLower(filename)
	m := strings.ToLower(mime)
	switch {
	case strings.Contains(m, "text/html") || strings.HasSuffix(ext, ".html") || strings.HasSuffix(ext, ".htm"):
		return KindHTML
	case strings.Contains(m, "multipart/related") || strings.HasSuffix(ext, ".mhtml") || strings.HasSuffix(ext, ".mht"):
		return KindMHTML
	case strings.Contains(m, "message/rfc822") || strings.HasSuffix(ext, ".eml"):
		return KindEML
	case strings.HasSuffix(ext, ".msg"):
		return KindMSG
	case strings.Contains(m, "text/csv") || strings.HasSuffix(ext, ".csv"):
		return KindCSV
	case strings.HasSuffix(ext, ".xlsx") || strings.HasSuffix(ext, ".xls") || strings.HasSuffix(ext, ".ods"):
		return KindSpreadsheet
	case strings.Contains(m, "text/plain") || strings.HasSuffix(ext, ".txt") || strings.HasSuffix(ext, ".log"):
		return KindText
	case strings.HasSuffix(ext, ".pdf") || strings.Contains(m, "application/pdf"):
		return KindPDF
	case strings.HasSuffix(ext, ".docx"):
		return KindDOCX
	case strings.HasSuffix(ext, ".doc") || strings.Contains(m, "application/msword"):
		return KindDOC
	case strings.HasSuffix(ext, ".pptx") || strings.HasSuffix(ext, ".odp") ||
		strings.Contains(m, "application/vnd.openxmlformats-officedocument.presentationml.presentation"):
		return KindPresentation
	case strings.HasPrefix(m, "image/") || imageExtRx.MatchString(ext):
		return KindImage
	}
	return KindText
}

// Ingest converts raw bytes to a Document using the detected adapter.
// Adapters never fail for malformed content of their own kind: problems
// become warnings on the returned document, and the pipeline always gets
// some result. The dispatcher attaches the language hint uniformly after
// the adapter runs.
func Ingest(ctx context.Context, data []byte, opts Options) doctext.Document {
	kind := Detect(opts.Filename, opts.MIME)

	var doc doctext.Document
	switch kind {
	case KindHTML:
		doc = ingestHTML(data, opts)
	case KindMHTML:
		doc = ingestMHTML(data, opts)
	case KindEML:
		doc = ingestEML(data, opts)
	case KindMSG:
		doc = ingestMSG(data, opts)
	case KindCSV:
		doc = ingestCSV(data, opts)
	case KindSpreadsheet:
		doc = ingestSpreadsheet(data, opts)
	case KindPDF:
		doc = ingestPDF(data, opts)
	case KindDOCX:
		doc = ingestDOCX(data, opts)
	case KindDOC:
		doc = ingestDOC(data, opts)
	case KindPresentation:
		doc = ingestPresentation(data, opts)
	case KindImage:
		doc = ingestImage(ctx, data, opts)
	default:
		doc = ingestText(data, opts)
	}

	if opts.LanguageHint != "" {
		doc.Language = opts.LanguageHint
	} else {
		doc.Language = DetectLanguage(doc.Text)
	}

	logger.Debug("ingest complete",
		"adapter", doc.Meta.Adapter,
		"filename", opts.Filename,
		"mime", opts.MIME,
		"bytes", len(data),
		"pages", doc.Pages(),
		"warnings", len(doc.Warnings),
		"language", doc.Language)
	return doc
}

// newDocument assembles a single-page document with common metadata. Most
// non-paginated adapters finish through here.
func newDocument(adapter Kind, text string, data []byte, opts Options, warnings []string) doctext.Document {
	if warnings == nil {
		warnings = []string{}
	}
	return doctext.Document{
		Text:     text,
		PageMap:  doctext.SinglePage(text),
		Warnings: warnings,
		Meta: doctext.Meta{
			Adapter:  string(adapter),
			MIME:     opts.MIME,
			Filename: opts.Filename,
			Bytes:    len(data),
		},
	}
}
