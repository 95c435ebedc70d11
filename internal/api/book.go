package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/sofrim/sofrim-server/internal/db"
	"github.com/sofrim/sofrim-server/internal/model"
)

type BookHandler struct {
	DB *db.DB
}

// Library returns the category tree with derived progress counts.
func (h *BookHandler) Library(w http.ResponseWriter, r *http.Request) {
	if term := r.URL.Query().Get("q"); term != "" {
		books, err := h.DB.SearchBooks(term)
		if err != nil {
			log.Printf("search books: %v", err)
			JSONError(w, msgInternalError, http.StatusInternalServerError)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"success": true, "books": books})
		return
	}

	folders, err := h.DB.LibraryStructure()
	if err != nil {
		log.Printf("library structure: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": folders})
}

// pageSummary is the page-board shape the book view renders.
type pageSummary struct {
	Number    int     `json:"number"`
	Status    string  `json:"status"`
	ClaimedBy *string `json:"claimedBy"`
	Thumbnail *string `json:"thumbnail"`
	Content   *string `json:"content"`
}

func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.DB.GetBook(r.PathValue("id"))
	if err != nil {
		log.Printf("get book: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	if book == nil {
		JSONError(w, "הספר לא נמצא", http.StatusNotFound)
		return
	}

	pages, err := h.DB.ListBookPages(book.ID)
	if err != nil {
		log.Printf("list book pages: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}

	summaries := make([]pageSummary, 0, len(pages))
	for _, p := range pages {
		summaries = append(summaries, pageSummary{
			Number:    p.PageNumber,
			Status:    p.Status,
			ClaimedBy: p.EditorName,
			Thumbnail: p.ThumbnailPath,
			Content:   p.Content,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"book":    book,
		"pages":   summaries,
	})
}

type CreateBookRequest struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      *string `json:"category"`
	Description   *string `json:"description"`
	ThumbnailPath *string `json:"thumbnailPath"`
	TotalPages    int     `json:"totalPages"`
	SourceURL     *string `json:"sourceUrl"`
}

// CreateBook registers a book and bulk-creates its pages, all available.
// totalPages comes from the external book registry at registration time.
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.TotalPages < 1 {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = req.Name
	}

	book := &model.Book{
		ID:            req.ID,
		Name:          req.Name,
		Category:      req.Category,
		Description:   req.Description,
		ThumbnailPath: req.ThumbnailPath,
		TotalPages:    req.TotalPages,
		SourceURL:     req.SourceURL,
	}
	if err := h.DB.CreateBookWithPages(r.Context(), book); err != nil {
		log.Printf("create book %q: %v", req.ID, err)
		JSONError(w, "שגיאה ביצירת הספר", http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "book": book})
}

func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	book, err := h.DB.GetBook(id)
	if err != nil {
		log.Printf("delete book lookup: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	if book == nil {
		JSONError(w, "הספר לא נמצא", http.StatusNotFound)
		return
	}
	if err := h.DB.DeleteBook(book.ID); err != nil {
		log.Printf("delete book %q: %v", id, err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// WeeklyStats reports pages completed per day over the last week.
func (h *BookHandler) WeeklyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.DB.WeeklyProgress()
	if err != nil {
		log.Printf("weekly stats: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": stats.Data, "total": stats.Total})
}
