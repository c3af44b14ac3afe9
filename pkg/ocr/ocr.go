// Package ocr defines the narrow boundary to an external OCR capability.
// The image adapter consumes recognized text plus per-word boxes through
// this interface; docsift itself is not an OCR engine.
package ocr

import "context"

// Word is a single recognized word with its pixel-space bounding box.
type Word struct {
	Text       string
	Confidence float64
	X0, Y0     float64
	X1, Y1     float64
}

// Result is the output of recognizing one image.
type Result struct {
	Text  string // full recognized text, newline-separated
	Words []Word // per-word boxes, in recognition order
}

// Engine recognizes text in raw image bytes. The language code is a
// tesseract-style code such as "eng" or "fra"; implementations may ignore
// it.
type Engine interface {
	Recognize(ctx context.Context, image []byte, language string) (Result, error)
}
