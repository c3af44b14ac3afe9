package ingest

import "strings"

// DetectLanguage is a lightweight script-based language hint, sampled from
// the first ~2000 characters only. It exists so downstream consumers (OCR
// language selection, display) get a usable default; callers with real
// knowledge pass a hint instead.
func DetectLanguage(text string) string {
	sample := text
	if len(sample) > 2000 {
		sample = sample[:2000]
	}
	var hasCyrillic, hasArabic, hasAccents bool
	for _, r := range sample {
		switch {
		case r >= 0x0400 && r <= 0x04FF:
			hasCyrillic = true
		case r >= 0x0600 && r <= 0x06FF:
			hasArabic = true
		case strings.ContainsRune("àâäéèêëïîôöùûüçñÀÂÄÉÈÊËÏÎÔÖÙÛÜÇÑ", r):
			hasAccents = true
		}
	}
	switch {
	case hasCyrillic:
		return "russian"
	case hasArabic:
		return "arabic"
	case hasAccents:
		return "french"
	}
	return "english"
}

// tesseract language codes per detected language name or ISO 639-1 hint.
var ocrLangCodes = map[string]string{
	"english": "eng", "en": "eng",
	"french": "fra", "fr": "fra",
	"german": "deu", "de": "deu",
	"spanish": "spa", "es": "spa",
	"italian": "ita", "it": "ita",
	"arabic": "ara", "ar": "ara",
	"russian": "rus", "ru": "rus",
}

// ocrLanguage maps a language name or ISO 639-1 code to its tesseract
// code, passing through anything already tesseract-shaped.
func ocrLanguage(name string) string {
	if code, ok := ocrLangCodes[strings.ToLower(name)]; ok {
		return code
	}
	if name == "" {
		return "eng"
	}
	return name
}
