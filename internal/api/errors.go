package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/sofrim/sofrim-server/internal/lifecycle"
)

// User-facing error strings, in the UI language.
const (
	msgUnauthorized  = "לא מחובר"
	msgForbidden     = "אין הרשאה"
	msgNotFound      = "העמוד לא נמצא"
	msgConflict      = "העמוד כבר תפוס"
	msgBadRequest    = "חסרים פרמטרים"
	msgInternalError = "שגיאת שרת"
)

// ErrorResponse is the JSON failure envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// JSONError writes a JSON error response.
func JSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// WriteJSON writes a success response.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// LifecycleError maps the lifecycle error taxonomy onto HTTP statuses. Every
// failure is scoped to the request; nothing here is fatal to the process.
func LifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		JSONError(w, msgNotFound, http.StatusNotFound)
	case errors.Is(err, lifecycle.ErrConflict):
		JSONError(w, msgConflict, http.StatusConflict)
	case errors.Is(err, lifecycle.ErrForbidden):
		JSONError(w, msgForbidden, http.StatusForbidden)
	case errors.Is(err, lifecycle.ErrValidation):
		JSONError(w, msgBadRequest, http.StatusBadRequest)
	default:
		log.Printf("lifecycle storage error: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
	}
}
