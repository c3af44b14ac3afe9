package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract is an Engine backed by a local tesseract installation via
// gosseract. A new client is created per call; gosseract clients are not
// safe for concurrent use.
type Tesseract struct {
	// LangPath optionally points at a directory of traineddata files.
	LangPath string
}

// Recognize runs tesseract over the image bytes.
func (t *Tesseract) Recognize(ctx context.Context, image []byte, language string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			return Result{}, fmt.Errorf("set ocr language %q: %w", language, err)
		}
	}
	if t.LangPath != "" {
		if err := client.SetTessdataPrefix(t.LangPath); err != nil {
			return Result{}, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return Result{}, fmt.Errorf("load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Result{}, fmt.Errorf("word boxes: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{
			Text:       b.Word,
			Confidence: b.Confidence,
			X0:         float64(b.Box.Min.X),
			Y0:         float64(b.Box.Min.Y),
			X1:         float64(b.Box.Max.X),
			Y1:         float64(b.Box.Max.Y),
		})
	}
	return Result{Text: text, Words: words}, nil
}
