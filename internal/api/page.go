package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/sofrim/sofrim-server/internal/db"
	"github.com/sofrim/sofrim-server/internal/lifecycle"
	"github.com/sofrim/sofrim-server/internal/model"
)

type PageHandler struct {
	DB        *db.DB
	Lifecycle *lifecycle.Service
}

type pageActionRequest struct {
	PageNumber int     `json:"pageNumber"`
	Content    *string `json:"content"`
}

// Claim assigns an available page to the caller. Losing a race against
// another claimant yields 409; the client re-fetches and re-decides.
func (h *PageHandler) Claim(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSession(r)
	if !ok {
		JSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}
	var req pageActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}

	page, err := h.Lifecycle.Claim(r.Context(), r.PathValue("id"), req.PageNumber, sess.UserID, sess.Name)
	if err != nil {
		LifecycleError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "page": page})
}

func (h *PageHandler) Release(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSession(r)
	if !ok {
		JSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}
	var req pageActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}

	page, err := h.Lifecycle.Release(r.Context(), r.PathValue("id"), req.PageNumber, sess.UserID, sess.Role)
	if err != nil {
		LifecycleError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "page": page})
}

func (h *PageHandler) Complete(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSession(r)
	if !ok {
		JSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}
	var req pageActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}

	page, err := h.Lifecycle.Complete(r.Context(), r.PathValue("id"), req.PageNumber, sess.UserID, req.Content)
	if err != nil {
		LifecycleError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "page": page})
}

// History returns the audit trail for one page.
func (h *PageHandler) History(w http.ResponseWriter, r *http.Request) {
	page, ok := h.lookupPage(w, r.URL.Query().Get("bookId"), r.URL.Query().Get("pageNumber"))
	if !ok {
		return
	}
	entries, err := h.DB.PageHistory(page.ID)
	if err != nil {
		log.Printf("page history: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "history": entries})
}

// GetContent loads the dual-layout editor state for a page.
func (h *PageHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	page, ok := h.lookupPage(w, r.URL.Query().Get("bookId"), r.URL.Query().Get("pageNumber"))
	if !ok {
		return
	}

	content, err := h.DB.GetPageContent(page.ID)
	if err != nil {
		log.Printf("get page content: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": content})
}

type saveContentRequest struct {
	BookID          string `json:"bookId"`
	PageNumber      int    `json:"pageNumber"`
	Content         string `json:"content"`
	LeftColumn      string `json:"leftColumn"`
	RightColumn     string `json:"rightColumn"`
	TwoColumns      bool   `json:"twoColumns"`
	IsContentSplit  bool   `json:"isContentSplit"`
	RightColumnName string `json:"rightColumnName"`
	LeftColumnName  string `json:"leftColumnName"`
}

// SaveContent autosaves editor state. This is working state, not a lifecycle
// transition; status and editor fields are untouched.
func (h *PageHandler) SaveContent(w http.ResponseWriter, r *http.Request) {
	var req saveContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}
	if req.BookID == "" || req.PageNumber < 1 {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}

	page, err := h.DB.GetPage(req.BookID, req.PageNumber)
	if err != nil {
		log.Printf("save content lookup: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	if page == nil {
		JSONError(w, msgNotFound, http.StatusNotFound)
		return
	}

	pc := &model.PageContent{
		PageID:          page.ID,
		Content:         req.Content,
		LeftColumn:      req.LeftColumn,
		RightColumn:     req.RightColumn,
		TwoColumns:      req.TwoColumns,
		IsContentSplit:  req.IsContentSplit,
		RightColumnName: req.RightColumnName,
		LeftColumnName:  req.LeftColumnName,
	}
	if err := h.DB.SavePageContent(r.Context(), pc); err != nil {
		log.Printf("save page content: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *PageHandler) lookupPage(w http.ResponseWriter, bookID, pageNumberRaw string) (*model.Page, bool) {
	pageNumber, err := strconv.Atoi(pageNumberRaw)
	if bookID == "" || err != nil || pageNumber < 1 {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return nil, false
	}

	page, err := h.DB.GetPage(bookID, pageNumber)
	if err != nil {
		log.Printf("page lookup: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return nil, false
	}
	if page == nil {
		JSONError(w, msgNotFound, http.StatusNotFound)
		return nil, false
	}
	return page, true
}
