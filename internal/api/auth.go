package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sofrim/sofrim-server/internal/auth"
	"github.com/sofrim/sofrim-server/internal/db"
	"github.com/sofrim/sofrim-server/internal/model"
)

// Health is the liveness probe.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

type AuthHandler struct {
	DB *db.DB
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type AuthResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Name == "" || len(req.Password) < 6 {
		JSONError(w, "חסרים פרטי הרשמה או שהסיסמה קצרה מדי", http.StatusBadRequest)
		return
	}

	existing, err := h.DB.GetUserByIdentifier(req.Email)
	if err == nil && existing == nil {
		existing, err = h.DB.GetUserByIdentifier(req.Name)
	}
	if err != nil {
		log.Printf("register: lookup failed: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	if existing != nil {
		JSONError(w, "משתמש עם שם או אימייל זה כבר קיים", http.StatusConflict)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         model.RoleUser,
		CreatedAt:    time.Now().UnixMilli(),
	}
	if err := h.DB.CreateUser(user); err != nil {
		log.Printf("register: insert failed: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Name, user.Role)
	if err != nil {
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusCreated, AuthResponse{Success: true, Token: token, User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}

	user, err := h.DB.GetUserByIdentifier(req.Identifier)
	if err != nil {
		log.Printf("login: lookup failed: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	if user == nil {
		JSONError(w, "שם משתמש או סיסמה שגויים", http.StatusUnauthorized)
		return
	}

	match, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		log.Printf("login: verify failed for %s: %v", user.ID, err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	if !match {
		JSONError(w, "שם משתמש או סיסמה שגויים", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Name, user.Role)
	if err != nil {
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, AuthResponse{Success: true, Token: token, User: user})
}
