package db

import (
	"database/sql"

	"github.com/sofrim/sofrim-server/internal/model"
)

// AppendHistoryTx records one lifecycle transition. It runs inside the same
// transaction as the status write so the trail never drifts from the state.
// Rows are append-only; nothing in this package updates or deletes them.
func AppendHistoryTx(tx *sql.Tx, pageID int64, userID, action string, now int64) error {
	_, err := tx.Exec(
		`INSERT INTO page_history (page_id, user_id, action, created_at) VALUES (?, ?, ?, ?)`,
		pageID, userID, action, now)
	return err
}

// PageHistory returns the audit trail for one page, newest first, with the
// actor's display name joined in when the account still exists.
func (db *DB) PageHistory(pageID int64) ([]model.HistoryEntry, error) {
	rows, err := db.Query(`
		SELECT h.id, h.page_id, h.user_id, h.action, h.created_at, u.name
		FROM page_history h
		LEFT JOIN users u ON h.user_id = u.id
		WHERE h.page_id = ?
		ORDER BY h.created_at DESC, h.id DESC`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHistory(rows)
}

// BookHistory returns the audit trail across all pages of a book.
func (db *DB) BookHistory(bookID string) ([]model.HistoryEntry, error) {
	rows, err := db.Query(`
		SELECT h.id, h.page_id, h.user_id, h.action, h.created_at, u.name
		FROM page_history h
		JOIN pages p ON h.page_id = p.id
		LEFT JOIN users u ON h.user_id = u.id
		WHERE p.book_id = ?
		ORDER BY h.created_at DESC, h.id DESC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHistory(rows)
}

func collectHistory(rows *sql.Rows) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.ID, &e.PageID, &e.UserID, &e.Action, &e.CreatedAt, &e.UserName); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
