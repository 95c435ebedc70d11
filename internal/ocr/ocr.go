// Package ocr provides optional transcription assistance. Engines take a
// scanned page image and return recognized text; the editor treats the result
// as a draft for the human transcriber, never as authoritative content.
package ocr

import "context"

// Input is one page image submitted for recognition.
type Input struct {
	// Image is the raw encoded image payload.
	Image []byte
	// MIMEType declares the image content type, e.g. image/jpeg.
	MIMEType string
	// Model optionally overrides the engine's default model, where the
	// engine has one.
	Model string
	// APIKey optionally overrides the server-configured key for hosted
	// engines, letting users bring their own quota.
	APIKey string
	// Prompt optionally replaces the default transcription instructions.
	Prompt string
	// Languages is a list of language hints for local engines.
	Languages []string
}

type Result struct {
	Text string
}

type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}
