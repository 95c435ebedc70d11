package api

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/sofrim/sofrim-server/internal/ocr"
)

type OCRHandler struct {
	Engine ocr.Engine
}

type ocrRequest struct {
	ImageBase64  string `json:"imageBase64"`
	MIMEType     string `json:"mimeType"`
	Model        string `json:"model"`
	UserAPIKey   string `json:"userApiKey"`
	CustomPrompt string `json:"customPrompt"`
}

type ocrResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
}

// Recognize proxies a page image to the configured OCR engine. Data URL
// prefixes are tolerated because the scan view sends the canvas as-is.
func (h *OCRHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	var req ocrRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageBase64 == "" {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}

	payload := req.ImageBase64
	mimeType := req.MIMEType
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ","); idx >= 0 {
			header := payload[:idx]
			if start := strings.Index(header, ":"); start >= 0 {
				mimeType = strings.TrimSuffix(header[start+1:], ";base64")
			}
			payload = payload[idx+1:]
		}
	}

	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		JSONError(w, "תמונה לא תקינה", http.StatusBadRequest)
		return
	}

	result, err := h.Engine.Recognize(r.Context(), ocr.Input{
		Image:    image,
		MIMEType: mimeType,
		Model:    req.Model,
		APIKey:   req.UserAPIKey,
		Prompt:   req.CustomPrompt,
	})
	if err != nil {
		log.Printf("ocr: %s engine failed: %v", h.Engine.Name(), err)
		JSONError(w, "זיהוי הטקסט נכשל", http.StatusBadGateway)
		return
	}

	WriteJSON(w, http.StatusOK, ocrResponse{Success: true, Text: result.Text})
}
