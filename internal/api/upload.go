package api

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/sofrim/sofrim-server/internal/db"
	"github.com/sofrim/sofrim-server/internal/model"
	"github.com/sofrim/sofrim-server/internal/storage"
)

// maxUploadBytes caps the size of an uploaded source file.
const maxUploadBytes = 10 << 20

type UploadHandler struct {
	DB    *db.DB
	Store *storage.Store
}

func (h *UploadHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSession(r)
	if !ok {
		JSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}

	uploads, err := h.DB.UploadsForUser(sess.UserID)
	if err != nil {
		log.Printf("list uploads: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "uploads": uploads})
}

// Upload accepts a plain-text source file for a book. Only .txt is allowed.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSession(r)
	if !ok {
		JSONError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		JSONError(w, msgBadRequest, http.StatusBadRequest)
		return
	}

	bookName := r.FormValue("bookName")
	file, header, err := r.FormFile("file")
	if err != nil || bookName == "" {
		JSONError(w, "נא לבחור קובץ ושם ספר", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".txt") {
		JSONError(w, "רק קבצי TXT מותרים", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}

	path, err := h.Store.SaveUpload(data, header.Filename, "books")
	if err != nil {
		log.Printf("save upload: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}

	upload := &model.Upload{
		UserID:   sess.UserID,
		UserName: sess.Name,
		BookName: bookName,
		FileName: header.Filename,
		FilePath: path,
		FileSize: int64(len(data)),
	}
	if err := h.DB.CreateUpload(upload); err != nil {
		log.Printf("record upload: %v", err)
		JSONError(w, msgInternalError, http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "upload": upload})
}
