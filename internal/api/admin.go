package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/sofrim/sofrim-server/internal/db"
	"github.com/sofrim/sofrim-server/internal/lifecycle"
	"github.com/sofrim/sofrim-server/internal/model"
)

type AdminHandler struct {
	DB        *db.DB
	Lifecycle *lifecycle.Service
}

// ListPages serves the admin review table with optional filters.
func (h *AdminHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pages, err := h.DB.ListPages(db.PageFilter{
		Status:   q.Get("status"),
		BookID:   q.Get("book"),
		EditorID: q.Get("userId"),
	})
	if err != nil {
		log.Printf("admin list pages: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "pages": pages})
}

// PageUpdateRequest is a tagged request: each supported mutation is named
// explicitly instead of accepting a generic field patch.
type PageUpdateRequest struct {
	BookID     string `json:"bookId"`
	PageNumber int    `json:"pageNumber"`
	Action     string `json:"action"`
}

// UpdatePage handles admin page mutations. The only supported action is
// "reset", which forces the page back to available and clears the editor
// fields together.
func (h *AdminHandler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSession(r)
	if !ok {
		JSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}
	var req PageUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}

	switch req.Action {
	case "reset":
		page, err := h.Lifecycle.AdminReset(r.Context(), req.BookID, req.PageNumber, sess.UserID)
		if err != nil {
			LifecycleError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"success": true, "page": page})
	default:
		JSONError(w, "פעולה לא מוכרת", http.StatusBadRequest)
	}
}

// BookHistory exposes the append-only audit trail for a book.
func (h *AdminHandler) BookHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.DB.BookHistory(r.PathValue("id"))
	if err != nil {
		log.Printf("book history: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "history": entries})
}

// ListUsers returns full user records, email included, for the admin table.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.DB.ListUsers()
	if err != nil {
		log.Printf("admin list users: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "users": users})
}

type UserUpdateRequest struct {
	UserID string  `json:"userId"`
	Role   *string `json:"role"`
	Points *int    `json:"points"`
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UserUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}
	if req.UserID == "" || (req.Role == nil && req.Points == nil) {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}
	if req.Role != nil && *req.Role != model.RoleUser && *req.Role != model.RoleAdmin {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}

	if req.Role != nil {
		if err := h.DB.UpdateUserRole(req.UserID, *req.Role); err != nil {
			log.Printf("update user role: %v", err)
			JSONError(w, msgInternalError, http.StatusInternalServerError)
			return
		}
	}
	if req.Points != nil {
		if err := h.DB.SetUserPoints(req.UserID, *req.Points); err != nil {
			log.Printf("update user points: %v", err)
			JSONError(w, msgInternalError, http.StatusInternalServerError)
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSession(r)
	if !ok {
		JSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}
	id := r.PathValue("id")
	if id == sess.UserID {
		JSONError(w, "לא ניתן למחוק את המשתמש שלך", http.StatusBadRequest)
		return
	}
	if err := h.DB.DeleteUser(id); err != nil {
		log.Printf("delete user %s: %v", id, err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

type BroadcastRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Broadcast sends an admin message to every registered user.
func (h *AdminHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSession(r)
	if !ok {
		JSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}
	var req BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}
	if req.Subject == "" || req.Body == "" {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}

	users, err := h.DB.ListUsers()
	if err != nil {
		log.Printf("broadcast list users: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		if u.ID != sess.UserID {
			ids = append(ids, u.ID)
		}
	}
	if err := h.DB.BroadcastMessage(sess.UserID, sess.Name, req.Subject, req.Body, ids); err != nil {
		log.Printf("broadcast: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "sent": len(ids)})
}
