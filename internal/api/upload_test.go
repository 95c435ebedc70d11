package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sofrim/sofrim-server/internal/model"
	"github.com/sofrim/sofrim-server/internal/storage"
	"github.com/sofrim/sofrim-server/internal/testutil"
)

func multipartUpload(t *testing.T, user *model.User, bookName, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if bookName != "" {
		if err := mw.WriteField("bookName", bookName); err != nil {
			t.Fatalf("WriteField failed: %v", err)
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		part.Write(content)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req.WithContext(WithSession(req.Context(), Session{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
	}))
}

func TestUpload(t *testing.T) {
	database := testutil.SetupTestDB(t)
	store := &storage.Store{UploadDir: t.TempDir(), ThumbnailsDir: t.TempDir()}
	handler := &UploadHandler{DB: database, Store: store}

	user := testutil.CreateTestUser(t, database, "uploader", model.RoleUser)

	// 1. A .txt upload is stored and recorded
	req := multipartUpload(t, user, "שיטה מקובצת", "source.txt", []byte("שורה ראשונה"))
	rr := httptest.NewRecorder()
	handler.Upload(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Upload failed, got %v body: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Success bool         `json:"success"`
		Upload  model.Upload `json:"upload"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if !store.Exists(resp.Upload.FilePath) {
		t.Error("Uploaded file missing on disk")
	}
	if resp.Upload.FileSize == 0 {
		t.Error("Expected recorded file size")
	}

	// 2. Non-txt files are rejected
	req = multipartUpload(t, user, "ספר", "scan.pdf", []byte("%PDF"))
	rr = httptest.NewRecorder()
	handler.Upload(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Non-txt upload should be 400, got %v", rr.Code)
	}

	// 3. Missing book name is rejected
	req = multipartUpload(t, user, "", "source.txt", []byte("x"))
	rr = httptest.NewRecorder()
	handler.Upload(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Missing book name should be 400, got %v", rr.Code)
	}

	// 4. The user's listing shows the stored upload
	req = jsonRequest("GET", "/uploads", nil, user)
	rr = httptest.NewRecorder()
	handler.List(rr, req)
	var listResp struct {
		Success bool           `json:"success"`
		Uploads []model.Upload `json:"uploads"`
	}
	json.NewDecoder(rr.Body).Decode(&listResp)
	if len(listResp.Uploads) != 1 {
		t.Errorf("Expected 1 upload listed, got %d", len(listResp.Uploads))
	}
}
