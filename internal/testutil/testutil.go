package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sofrim/sofrim-server/internal/db"
	"github.com/sofrim/sofrim-server/internal/model"
)

// SetupTestDB creates a throwaway SQLite DB with the schema applied. The
// database lives in the test's temp dir so WAL and the busy timeout behave
// exactly as they do against a real file, which the concurrent lifecycle
// tests rely on.
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

// CreateTestUser inserts a user with a throwaway password hash and returns it.
func CreateTestUser(t *testing.T, database *db.DB, name, role string) *model.User {
	t.Helper()

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        name + "@example.com",
		Name:         name,
		PasswordHash: "x",
		Role:         role,
		CreatedAt:    time.Now().UnixMilli(),
	}
	if err := database.CreateUser(user); err != nil {
		t.Fatalf("failed to create test user %s: %v", name, err)
	}
	return user
}

// CreateTestBook inserts a book with the given number of pages, all available.
func CreateTestBook(t *testing.T, database *db.DB, id, name string, totalPages int) *model.Book {
	t.Helper()

	category := "אחר"
	book := &model.Book{
		ID:         id,
		Name:       name,
		Category:   &category,
		TotalPages: totalPages,
		CreatedAt:  time.Now().UnixMilli(),
	}
	if err := database.CreateBookWithPages(context.Background(), book); err != nil {
		t.Fatalf("failed to create test book %s: %v", name, err)
	}
	return book
}
