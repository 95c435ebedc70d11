package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes text locally through the gosseract client. It needs
// the heb traineddata installed; accuracy on Rashi script is well below the
// hosted engine, so it serves as the offline fallback.
type Tesseract struct {
	Languages []string

	clientFactory func() *gosseract.Client
}

func NewTesseract(languages ...string) *Tesseract {
	if len(languages) == 0 {
		languages = []string{"heb"}
	}
	return &Tesseract{
		Languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

func (t *Tesseract) Name() string { return "tesseract" }

func (t *Tesseract) Recognize(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	client := t.clientFactory()
	defer client.Close()

	if err := client.SetImageFromBytes(in.Image); err != nil {
		return Result{}, fmt.Errorf("tesseract: set image: %w", err)
	}

	languages := in.Languages
	if len(languages) == 0 {
		languages = t.Languages
	}
	if err := client.SetLanguage(languages...); err != nil {
		return Result{}, fmt.Errorf("tesseract: set languages: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("tesseract: %w", err)
	}
	return Result{Text: text}, nil
}
