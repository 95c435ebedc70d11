package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultGeminiModel balances cost against Rashi-script accuracy.
	DefaultGeminiModel = "gemini-2.5-flash"

	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// defaultPrompt instructs the model to transcribe Rashi-script Hebrew
// faithfully instead of normalizing it.
const defaultPrompt = `The text is in Hebrew, written in Rashi script (traditional Hebrew font).

Transcription guidelines:
- Transcribe exactly what you see, letter by letter
- Do NOT add nikud (vowel points) unless they appear in the image
- Do NOT correct or "fix" words to make them more meaningful
- Preserve the exact spelling, even if words seem unusual or abbreviated
- In Rashi script: Final Mem (ם) looks like Samekh (ס), and Alef (א) looks like Het (ח) - be careful
- Preserve all line breaks and spacing
- Return only the Hebrew text without explanations`

// Gemini recognizes text through the Gemini generateContent REST API.
type Gemini struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewGemini(apiKey string) *Gemini {
	return &Gemini{
		APIKey:  apiKey,
		BaseURL: defaultGeminiBaseURL,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (g *Gemini) Name() string { return "gemini" }

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Gemini) Recognize(ctx context.Context, in Input) (Result, error) {
	apiKey := in.APIKey
	if apiKey == "" {
		apiKey = g.APIKey
	}
	if apiKey == "" {
		return Result{}, errors.New("gemini: no API key configured")
	}
	model := in.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	prompt := in.Prompt
	if prompt == "" {
		prompt = defaultPrompt
	}
	mimeType := in.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	payload := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: prompt},
				{InlineData: &geminiInlineData{
					MIMEType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(in.Image),
				}},
			},
		}},
		GenerationConfig: geminiGenConfig{Temperature: 0.1, MaxOutputTokens: 8192},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.BaseURL, model, apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("gemini: %w", err)
	}
	defer resp.Body.Close()

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("gemini: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return Result{}, fmt.Errorf("gemini: %s", parsed.Error.Message)
		}
		return Result{}, fmt.Errorf("gemini: status %d", resp.StatusCode)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return Result{}, errors.New("gemini: empty response")
	}
	return Result{Text: parsed.Candidates[0].Content.Parts[0].Text}, nil
}
