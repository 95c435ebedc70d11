package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/sofrim/sofrim-server/internal/model"
)

const messageColumns = `id, sender_id, sender_name, recipient_id, parent_id, subject, body, is_admin_message, is_read, created_at`

func (db *DB) CreateMessage(m *model.Message) error {
	m.CreatedAt = time.Now().UnixMilli()
	res, err := db.Exec(`
		INSERT INTO messages (sender_id, sender_name, recipient_id, parent_id, subject, body, is_admin_message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		m.SenderID, m.SenderName, m.RecipientID, m.ParentID, m.Subject, m.Body,
		m.IsAdminMessage, m.CreatedAt)
	if err != nil {
		return err
	}
	m.ID, err = res.LastInsertId()
	return err
}

// BroadcastMessage sends one admin message to every listed recipient.
func (db *DB) BroadcastMessage(senderID, senderName, subject, body string, recipientIDs []string) error {
	if len(recipientIDs) == 0 {
		return nil
	}
	now := time.Now().UnixMilli()
	var sb strings.Builder
	sb.WriteString(`INSERT INTO messages (sender_id, sender_name, recipient_id, subject, body, is_admin_message, is_read, created_at) VALUES `)
	args := make([]any, 0, len(recipientIDs)*6)
	for i, id := range recipientIDs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, 1, 0, ?)")
		args = append(args, senderID, senderName, id, subject, body, now)
	}
	_, err := db.Exec(sb.String(), args...)
	return err
}

// MessagesForUser lists top-level messages visible to the user, newest first,
// with replies attached. Admins additionally see messages addressed to no one
// in particular (user -> staff mail).
func (db *DB) MessagesForUser(userID string, isAdmin bool) ([]model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE parent_id IS NULL AND (sender_id = ? OR recipient_id = ?`
	if isAdmin {
		query += ` OR recipient_id IS NULL`
	}
	query += `) ORDER BY created_at DESC`

	rows, err := db.Query(query, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.RecipientID, &m.ParentID,
			&m.Subject, &m.Body, &m.IsAdminMessage, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range messages {
		replies, err := db.Replies(messages[i].ID)
		if err != nil {
			return nil, err
		}
		messages[i].Replies = replies
	}
	return messages, nil
}

func (db *DB) GetMessage(id int64) (*model.Message, error) {
	row := db.QueryRow(`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	var m model.Message
	err := row.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.RecipientID, &m.ParentID,
		&m.Subject, &m.Body, &m.IsAdminMessage, &m.IsRead, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Replies lists the thread under a message, oldest first.
func (db *DB) Replies(parentID int64) ([]model.Message, error) {
	rows, err := db.Query(
		`SELECT `+messageColumns+` FROM messages WHERE parent_id = ? ORDER BY created_at`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var replies []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.RecipientID, &m.ParentID,
			&m.Subject, &m.Body, &m.IsAdminMessage, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		replies = append(replies, m)
	}
	return replies, rows.Err()
}

func (db *DB) MarkMessageRead(id int64) error {
	_, err := db.Exec(`UPDATE messages SET is_read = 1 WHERE id = ?`, id)
	return err
}
