package db

import (
	"time"

	"github.com/sofrim/sofrim-server/internal/model"
)

func (db *DB) CreateUpload(u *model.Upload) error {
	u.CreatedAt = time.Now().UnixMilli()
	res, err := db.Exec(`
		INSERT INTO uploads (user_id, user_name, book_name, file_name, file_path, file_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.UserID, u.UserName, u.BookName, u.FileName, u.FilePath, u.FileSize, u.CreatedAt)
	if err != nil {
		return err
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (db *DB) UploadsForUser(userID string) ([]model.Upload, error) {
	rows, err := db.Query(`
		SELECT id, user_id, user_name, book_name, file_name, file_path, file_size, created_at
		FROM uploads WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []model.Upload
	for rows.Next() {
		var u model.Upload
		if err := rows.Scan(&u.ID, &u.UserID, &u.UserName, &u.BookName, &u.FileName,
			&u.FilePath, &u.FileSize, &u.CreatedAt); err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}
