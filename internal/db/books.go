package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/sofrim/sofrim-server/internal/model"
)

// uncategorized is the library tree bucket for books without a category.
const uncategorized = "אחר"

func scanBook(row *sql.Row) (*model.Book, error) {
	var b model.Book
	err := row.Scan(&b.ID, &b.Name, &b.Category, &b.Description, &b.ThumbnailPath,
		&b.TotalPages, &b.SourceURL, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBook looks a book up by id, falling back to the display name so that
// both path-style ids and human names resolve.
func (db *DB) GetBook(idOrName string) (*model.Book, error) {
	book, err := scanBook(db.QueryRow(
		`SELECT id, name, category, description, thumbnail_path, total_pages, source_url, created_at
		 FROM books WHERE id = ?`, idOrName))
	if err != nil || book != nil {
		return book, err
	}
	return scanBook(db.QueryRow(
		`SELECT id, name, category, description, thumbnail_path, total_pages, source_url, created_at
		 FROM books WHERE name = ?`, idOrName))
}

// CreateBookWithPages registers a book and bulk-creates its page rows
// (1..TotalPages, all available) in one transaction.
func (db *DB) CreateBookWithPages(ctx context.Context, book *model.Book) error {
	now := time.Now().UnixMilli()
	book.CreatedAt = now
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO books (id, name, category, description, thumbnail_path, total_pages, source_url, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			book.ID, book.Name, book.Category, book.Description, book.ThumbnailPath,
			book.TotalPages, book.SourceURL, now,
		)
		if err != nil {
			return err
		}
		return bulkCreatePages(tx, book.ID, book.TotalPages, now)
	})
}

func (db *DB) DeleteBook(id string) error {
	// Page, content and history rows go with it via ON DELETE CASCADE.
	_, err := db.Exec(`DELETE FROM books WHERE id = ?`, id)
	return err
}

// ListBooks returns all books with page counts derived from pages rows.
func (db *DB) ListBooks() ([]model.Book, error) {
	rows, err := db.Query(`
		SELECT b.id, b.name, b.category, b.description, b.thumbnail_path, b.total_pages, b.source_url, b.created_at,
			COALESCE(SUM(CASE WHEN p.status = 'available' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN p.status = 'in-progress' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN p.status = 'completed' THEN 1 ELSE 0 END), 0)
		FROM books b
		LEFT JOIN pages p ON b.id = p.book_id
		GROUP BY b.id, b.name, b.category, b.description, b.thumbnail_path, b.total_pages, b.source_url, b.created_at
		ORDER BY b.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Name, &b.Category, &b.Description, &b.ThumbnailPath,
			&b.TotalPages, &b.SourceURL, &b.CreatedAt,
			&b.AvailablePages, &b.InProgressPages, &b.CompletedPages); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// SearchBooks matches the term against book name and category.
func (db *DB) SearchBooks(term string) ([]model.Book, error) {
	like := "%" + term + "%"
	rows, err := db.Query(`
		SELECT b.id, b.name, b.category, b.description, b.thumbnail_path, b.total_pages, b.source_url, b.created_at,
			COALESCE(SUM(CASE WHEN p.status = 'available' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN p.status = 'in-progress' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN p.status = 'completed' THEN 1 ELSE 0 END), 0)
		FROM books b
		LEFT JOIN pages p ON b.id = p.book_id
		WHERE b.name LIKE ? OR b.category LIKE ?
		GROUP BY b.id, b.name, b.category, b.description, b.thumbnail_path, b.total_pages, b.source_url, b.created_at
		ORDER BY b.name`, like, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Name, &b.Category, &b.Description, &b.ThumbnailPath,
			&b.TotalPages, &b.SourceURL, &b.CreatedAt,
			&b.AvailablePages, &b.InProgressPages, &b.CompletedPages); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// Categories lists all distinct book categories.
func (db *DB) Categories() ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT category FROM books WHERE category IS NOT NULL ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// LibraryStructure groups books by category for the tree view. The counts are
// convenience caches derived from pages and may lag a concurrent transition.
func (db *DB) LibraryStructure() ([]model.LibraryFolder, error) {
	books, err := db.ListBooks()
	if err != nil {
		return nil, err
	}

	var folders []model.LibraryFolder
	index := map[string]int{}
	for _, b := range books {
		cat := uncategorized
		if b.Category != nil && *b.Category != "" {
			cat = *b.Category
		}
		i, ok := index[cat]
		if !ok {
			i = len(folders)
			index[cat] = i
			folders = append(folders, model.LibraryFolder{ID: cat, Name: cat, Type: "folder"})
		}

		status := model.PageAvailable
		switch {
		case b.TotalPages > 0 && b.CompletedPages == b.TotalPages:
			status = model.PageCompleted
		case b.InProgressPages > 0:
			status = model.PageInProgress
		}
		folders[i].Children = append(folders[i].Children, model.LibraryBook{
			ID:              b.ID,
			Name:            b.Name,
			Type:            "file",
			TotalPages:      b.TotalPages,
			AvailablePages:  b.AvailablePages,
			InProgressPages: b.InProgressPages,
			CompletedPages:  b.CompletedPages,
			Status:          status,
		})
	}
	return folders, nil
}
