package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/sofrim/sofrim-server/internal/db"
	"github.com/sofrim/sofrim-server/internal/model"
)

type MessageHandler struct {
	DB *db.DB
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSession(r)
	if !ok {
		JSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}

	messages, err := h.DB.MessagesForUser(sess.UserID, sess.Role == model.RoleAdmin)
	if err != nil {
		log.Printf("list messages: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "messages": messages})
}

type SendMessageRequest struct {
	RecipientID *string `json:"recipientId"`
	Subject     string  `json:"subject"`
	Body        string  `json:"body"`
}

// Send creates a message. A nil recipient addresses the staff: it shows up
// for every admin.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSession(r)
	if !ok {
		JSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}
	if req.Subject == "" || req.Body == "" {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}

	msg := &model.Message{
		SenderID:       sess.UserID,
		SenderName:     sess.Name,
		RecipientID:    req.RecipientID,
		Subject:        req.Subject,
		Body:           req.Body,
		IsAdminMessage: sess.Role == model.RoleAdmin,
	}
	if err := h.DB.CreateMessage(msg); err != nil {
		log.Printf("create message: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "message": msg})
}

type ReplyRequest struct {
	Body string `json:"body"`
}

func (h *MessageHandler) Reply(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSession(r)
	if !ok {
		JSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}
	parentID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}
	var req ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Body == "" {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}

	parent, err := h.DB.GetMessage(parentID)
	if err != nil {
		log.Printf("reply lookup: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	if parent == nil {
		JSONError(w, "ההודעה לא נמצאה", http.StatusNotFound)
		return
	}

	// Replies go back to the original sender.
	recipient := parent.SenderID
	reply := &model.Message{
		SenderID:       sess.UserID,
		SenderName:     sess.Name,
		RecipientID:    &recipient,
		ParentID:       &parent.ID,
		Subject:        parent.Subject,
		Body:           req.Body,
		IsAdminMessage: sess.Role == model.RoleAdmin,
	}
	if err := h.DB.CreateMessage(reply); err != nil {
		log.Printf("create reply: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	if err := h.DB.MarkMessageRead(parent.ID); err != nil {
		log.Printf("mark read: %v", err)
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "message": reply})
}
