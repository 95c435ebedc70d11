package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/sofrim/sofrim-server/internal/model"
	"github.com/sofrim/sofrim-server/internal/testutil"
)

func TestCreateBookWithPages(t *testing.T) {
	database := testutil.SetupTestDB(t)

	testutil.CreateTestBook(t, database, "shita", "שיטה מקובצת", 40)

	// Lookup by id and by name resolve the same book
	byID, err := database.GetBook("shita")
	if err != nil || byID == nil {
		t.Fatalf("GetBook by id failed: %v", err)
	}
	byName, err := database.GetBook("שיטה מקובצת")
	if err != nil || byName == nil {
		t.Fatalf("GetBook by name failed: %v", err)
	}
	if byID.ID != byName.ID {
		t.Error("Expected id and name lookups to resolve the same book")
	}

	// All pages created available, numbered 1..N
	pages, err := database.ListBookPages("shita")
	if err != nil {
		t.Fatalf("ListBookPages failed: %v", err)
	}
	if len(pages) != 40 {
		t.Fatalf("Expected 40 pages, got %d", len(pages))
	}
	for i, p := range pages {
		if p.PageNumber != i+1 {
			t.Fatalf("Expected page %d at index %d, got %d", i+1, i, p.PageNumber)
		}
		if p.Status != model.PageAvailable {
			t.Errorf("Page %d should be available, got %s", p.PageNumber, p.Status)
		}
	}

	// Duplicate id is rejected
	book := &model.Book{ID: "shita", Name: "אחר לגמרי", TotalPages: 1}
	if err := database.CreateBookWithPages(context.Background(), book); err == nil {
		t.Error("Expected duplicate book id to fail")
	}
}

func TestLibraryStructure(t *testing.T) {
	database := testutil.SetupTestDB(t)

	user := testutil.CreateTestUser(t, database, "editor", model.RoleUser)
	testutil.CreateTestBook(t, database, "one", "ספר אחד", 2)

	cat := "ראשונים"
	book := &model.Book{ID: "two", Name: "ספר שני", Category: &cat, TotalPages: 1}
	if err := database.CreateBookWithPages(context.Background(), book); err != nil {
		t.Fatalf("CreateBookWithPages failed: %v", err)
	}

	// Complete the single page of book two directly
	now := time.Now().UnixMilli()
	if _, err := database.Exec(
		`UPDATE pages SET status = 'completed', editor_id = ?, completed_at = ? WHERE book_id = 'two'`,
		user.ID, now); err != nil {
		t.Fatalf("seed complete failed: %v", err)
	}

	folders, err := database.LibraryStructure()
	if err != nil {
		t.Fatalf("LibraryStructure failed: %v", err)
	}
	if len(folders) != 2 {
		t.Fatalf("Expected 2 category folders, got %d", len(folders))
	}

	byName := map[string]model.LibraryFolder{}
	for _, f := range folders {
		byName[f.Name] = f
	}

	other, ok := byName["אחר"]
	if !ok || len(other.Children) != 1 {
		t.Fatal("Expected the default category to hold book one")
	}
	if other.Children[0].Status != model.PageAvailable || other.Children[0].AvailablePages != 2 {
		t.Errorf("Unexpected book one summary: %+v", other.Children[0])
	}

	rishonim, ok := byName["ראשונים"]
	if !ok || len(rishonim.Children) != 1 {
		t.Fatal("Expected the named category to hold book two")
	}
	if rishonim.Children[0].Status != model.PageCompleted || rishonim.Children[0].CompletedPages != 1 {
		t.Errorf("Fully completed book should be marked completed: %+v", rishonim.Children[0])
	}
}

func TestSearchBooksAndCategories(t *testing.T) {
	database := testutil.SetupTestDB(t)

	testutil.CreateTestBook(t, database, "tanya", "תניא", 1)
	cat := "חסידות"
	book := &model.Book{ID: "likutei", Name: "ליקוטי תורה", Category: &cat, TotalPages: 1}
	if err := database.CreateBookWithPages(context.Background(), book); err != nil {
		t.Fatalf("CreateBookWithPages failed: %v", err)
	}

	// Match by name
	books, err := database.SearchBooks("תניא")
	if err != nil {
		t.Fatalf("SearchBooks failed: %v", err)
	}
	if len(books) != 1 || books[0].ID != "tanya" {
		t.Errorf("Expected tanya by name, got %d books", len(books))
	}

	// Match by category
	books, err = database.SearchBooks("חסידות")
	if err != nil {
		t.Fatalf("SearchBooks failed: %v", err)
	}
	if len(books) != 1 || books[0].ID != "likutei" {
		t.Errorf("Expected likutei by category, got %d books", len(books))
	}

	cats, err := database.Categories()
	if err != nil {
		t.Fatalf("Categories failed: %v", err)
	}
	if len(cats) != 2 {
		t.Errorf("Expected 2 categories, got %v", cats)
	}
}

func TestWeeklyProgress(t *testing.T) {
	database := testutil.SetupTestDB(t)

	user := testutil.CreateTestUser(t, database, "editor", model.RoleUser)
	testutil.CreateTestBook(t, database, "book", "ספר", 5)

	// Two pages completed today, one three days ago, one outside the window
	today := time.Now()
	seedComplete := func(pageNumber int, at time.Time) {
		if _, err := database.Exec(
			`UPDATE pages SET status = 'completed', editor_id = ?, completed_at = ? WHERE book_id = 'book' AND page_number = ?`,
			user.ID, at.UnixMilli(), pageNumber); err != nil {
			t.Fatalf("seed complete failed: %v", err)
		}
	}
	seedComplete(1, today)
	seedComplete(2, today)
	seedComplete(3, today.AddDate(0, 0, -3))
	seedComplete(4, today.AddDate(0, 0, -30))

	stats, err := database.WeeklyProgress()
	if err != nil {
		t.Fatalf("WeeklyProgress failed: %v", err)
	}
	if len(stats.Data) != 7 {
		t.Fatalf("Expected 7 day buckets, got %d", len(stats.Data))
	}
	if stats.Total != 3 {
		t.Errorf("Expected 3 pages inside the window, got %d", stats.Total)
	}
	if stats.Data[6].Pages != 2 {
		t.Errorf("Expected 2 pages today, got %d", stats.Data[6].Pages)
	}
	if stats.Data[3].Pages != 1 {
		t.Errorf("Expected 1 page three days ago, got %d", stats.Data[3].Pages)
	}
}
