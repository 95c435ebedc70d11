package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/sofrim/sofrim-server/internal/model"
)

const pageColumns = `id, book_id, page_number, status, editor_id, editor_name, claimed_at, completed_at, content, thumbnail_path, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (*model.Page, error) {
	var p model.Page
	err := row.Scan(&p.ID, &p.BookID, &p.PageNumber, &p.Status, &p.EditorID, &p.EditorName,
		&p.ClaimedAt, &p.CompletedAt, &p.Content, &p.ThumbnailPath, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPage returns the page or nil when no such page exists.
func (db *DB) GetPage(bookID string, pageNumber int) (*model.Page, error) {
	return scanPage(db.QueryRow(
		`SELECT `+pageColumns+` FROM pages WHERE book_id = ? AND page_number = ?`,
		bookID, pageNumber))
}

// GetPageTx is the transaction-scoped variant used by the lifecycle service.
func GetPageTx(tx *sql.Tx, bookID string, pageNumber int) (*model.Page, error) {
	return scanPage(tx.QueryRow(
		`SELECT `+pageColumns+` FROM pages WHERE book_id = ? AND page_number = ?`,
		bookID, pageNumber))
}

// ListBookPages returns all pages of a book ordered by page number.
func (db *DB) ListBookPages(bookID string) ([]model.Page, error) {
	rows, err := db.Query(
		`SELECT `+pageColumns+` FROM pages WHERE book_id = ? ORDER BY page_number`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

// PageFilter narrows the admin listing. Empty fields are ignored.
type PageFilter struct {
	Status   string
	BookID   string
	EditorID string
}

// adminPageLimit caps the admin review listing.
const adminPageLimit = 500

// ListPages returns pages matching the filter, joined with the book name,
// for administrative review.
func (db *DB) ListPages(filter PageFilter) ([]model.Page, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT p.id, p.book_id, p.page_number, p.status, p.editor_id, p.editor_name,
		p.claimed_at, p.completed_at, p.content, p.thumbnail_path, p.created_at, p.updated_at, b.name
		FROM pages p
		JOIN books b ON p.book_id = b.id
		WHERE 1=1`)
	var args []any
	if filter.Status != "" {
		sb.WriteString(" AND p.status = ?")
		args = append(args, filter.Status)
	}
	if filter.BookID != "" {
		sb.WriteString(" AND p.book_id = ?")
		args = append(args, filter.BookID)
	}
	if filter.EditorID != "" {
		sb.WriteString(" AND p.editor_id = ?")
		args = append(args, filter.EditorID)
	}
	sb.WriteString(" ORDER BY b.name, p.page_number LIMIT ?")
	args = append(args, adminPageLimit)

	rows, err := db.Query(sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		var p model.Page
		if err := rows.Scan(&p.ID, &p.BookID, &p.PageNumber, &p.Status, &p.EditorID, &p.EditorName,
			&p.ClaimedAt, &p.CompletedAt, &p.Content, &p.ThumbnailPath, &p.CreatedAt, &p.UpdatedAt,
			&p.BookName); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// bulkCreatePages inserts page rows 1..total for a freshly registered book.
func bulkCreatePages(tx *sql.Tx, bookID string, total int, now int64) error {
	if total <= 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO pages (book_id, page_number, status, created_at, updated_at) VALUES `)
	args := make([]any, 0, total*5)
	for n := 1; n <= total; n++ {
		if n > 1 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, bookID, n, model.PageAvailable, now, now)
	}
	_, err := tx.Exec(sb.String(), args...)
	return err
}

// GetPageContent loads the editor state for a page; defaults when absent.
func (db *DB) GetPageContent(pageID int64) (*model.PageContent, error) {
	var pc model.PageContent
	err := db.QueryRow(`
		SELECT page_id, content, left_column, right_column, two_columns, is_content_split,
			right_column_name, left_column_name, updated_at
		FROM page_content WHERE page_id = ?`, pageID).Scan(
		&pc.PageID, &pc.Content, &pc.LeftColumn, &pc.RightColumn, &pc.TwoColumns,
		&pc.IsContentSplit, &pc.RightColumnName, &pc.LeftColumnName, &pc.UpdatedAt)
	if err == sql.ErrNoRows {
		return &model.PageContent{PageID: pageID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &pc, nil
}

// SavePageContent upserts the editor state. Update-then-insert keeps the
// statement portable across both backends.
func (db *DB) SavePageContent(ctx context.Context, pc *model.PageContent) error {
	pc.UpdatedAt = time.Now().UnixMilli()
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE page_content SET content = ?, left_column = ?, right_column = ?,
				two_columns = ?, is_content_split = ?, right_column_name = ?, left_column_name = ?,
				updated_at = ?
			WHERE page_id = ?`,
			pc.Content, pc.LeftColumn, pc.RightColumn, pc.TwoColumns, pc.IsContentSplit,
			pc.RightColumnName, pc.LeftColumnName, pc.UpdatedAt, pc.PageID)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected > 0 {
			return nil
		}
		_, err = tx.Exec(`
			INSERT INTO page_content (page_id, content, left_column, right_column, two_columns,
				is_content_split, right_column_name, left_column_name, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pc.PageID, pc.Content, pc.LeftColumn, pc.RightColumn, pc.TwoColumns,
			pc.IsContentSplit, pc.RightColumnName, pc.LeftColumnName, pc.UpdatedAt)
		return err
	})
}

// Hebrew day letters indexed by time.Weekday (Sunday first).
var weekdayLetters = [7]string{"א", "ב", "ג", "ד", "ה", "ו", "ש"}

// WeeklyProgress buckets pages completed in the last 7 days by day. Bucketing
// happens here rather than in SQL so both backends share one query.
func (db *DB) WeeklyProgress() (*model.WeeklyStats, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := today.AddDate(0, 0, -6)

	rows, err := db.Query(`
		SELECT completed_at FROM pages
		WHERE status = 'completed' AND completed_at >= ?`, start.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var completedAt int64
		if err := rows.Scan(&completedAt); err != nil {
			return nil, err
		}
		day := time.UnixMilli(completedAt).Format("2006-01-02")
		counts[day]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats := &model.WeeklyStats{}
	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i)
		n := counts[date.Format("2006-01-02")]
		stats.Data = append(stats.Data, model.DayCount{
			Day:   weekdayLetters[int(date.Weekday())],
			Pages: n,
		})
		stats.Total += n
	}
	return stats, nil
}
