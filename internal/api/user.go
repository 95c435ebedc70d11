package api

import (
	"log"
	"net/http"

	"github.com/sofrim/sofrim-server/internal/db"
)

type UserHandler struct {
	DB *db.DB
}

// PublicUser is the profile shape exposed to other users: no email.
type PublicUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSession(r)
	if !ok {
		JSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}

	user, err := h.DB.GetUserByID(sess.UserID)
	if err != nil || user == nil {
		JSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (h *UserHandler) MyStats(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSession(r)
	if !ok {
		JSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}

	stats, err := h.DB.GetUserStats(sess.UserID)
	if err != nil {
		log.Printf("user stats: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

func (h *UserHandler) MyActivity(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSession(r)
	if !ok {
		JSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}

	items, err := h.DB.RecentActivity(sess.UserID, 10)
	if err != nil {
		log.Printf("recent activity: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "activity": items})
}

// ListUsers returns public profiles for the contributors page.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.DB.ListUsers()
	if err != nil {
		log.Printf("list users: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}

	public := make([]PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, PublicUser{ID: u.ID, Name: u.Name, Points: u.Points})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "users": public})
}
