// Package storage keeps uploaded source files and page thumbnails on local
// disk. Only the path contract matters to the rest of the server: SaveUpload
// returns the stored path, SaveThumbnail returns the public URL path.
package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Store struct {
	UploadDir     string
	ThumbnailsDir string
}

func NewFromEnv() *Store {
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "data/uploads"
	}
	thumbnailsDir := os.Getenv("THUMBNAILS_DIR")
	if thumbnailsDir == "" {
		thumbnailsDir = "data/thumbnails"
	}
	return &Store{UploadDir: uploadDir, ThumbnailsDir: thumbnailsDir}
}

// SaveUpload writes an uploaded file under subdir and returns the stored
// path. The stored name is prefixed with a UUID so repeated uploads of the
// same file never collide.
func (s *Store) SaveUpload(data []byte, filename, subdir string) (string, error) {
	dir := filepath.Join(s.UploadDir, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	stored := uuid.NewString() + "_" + SanitizeFilename(filename)
	path := filepath.Join(dir, stored)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// SaveThumbnail writes a page thumbnail and returns its public URL path.
func (s *Store) SaveThumbnail(data []byte, filename, bookID string) (string, error) {
	dir := filepath.Join(s.ThumbnailsDir, bookID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	name := SanitizeFilename(filename)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return "", err
	}
	return "/thumbnails/" + bookID + "/" + name, nil
}

func (s *Store) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (s *Store) Delete(path string) error {
	return os.Remove(path)
}

func (s *Store) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SanitizeFilename strips any path components and replaces characters that
// are unsafe in file names. Hebrew letters pass through untouched.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|' || r < 0x20:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" || out == "." || out == ".." {
		return "file"
	}
	return out
}
