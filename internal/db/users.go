package db

import (
	"database/sql"

	"github.com/sofrim/sofrim-server/internal/model"
)

const userColumns = `id, email, name, password_hash, role, points, created_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Points, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) CreateUser(u *model.User) error {
	_, err := db.Exec(
		`INSERT INTO users (id, email, name, password_hash, role, points, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.Points, u.CreatedAt,
	)
	return err
}

func (db *DB) GetUserByID(id string) (*model.User, error) {
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (db *DB) GetUserByEmail(email string) (*model.User, error) {
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// GetUserByIdentifier resolves a login identifier, which may be either the
// email address or the display name.
func (db *DB) GetUserByIdentifier(identifier string) (*model.User, error) {
	return scanUser(db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = ? OR name = ?`, identifier, identifier))
}

func (db *DB) UserExists(id string) (bool, error) {
	var exists bool
	err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

func (db *DB) ListUsers() ([]model.User, error) {
	rows, err := db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Points, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (db *DB) UpdateUserRole(id, role string) error {
	_, err := db.Exec(`UPDATE users SET role = ? WHERE id = ?`, role, id)
	return err
}

// SetUserPoints overwrites the points balance. Normal point grants go through
// the lifecycle service; this exists for explicit admin correction only.
func (db *DB) SetUserPoints(id string, points int) error {
	_, err := db.Exec(`UPDATE users SET points = ? WHERE id = ?`, points, id)
	return err
}

func (db *DB) DeleteUser(id string) error {
	_, err := db.Exec(`DELETE FROM users WHERE id = ?`, id)
	return err
}

// GetUserStats aggregates a user's page counts and points.
func (db *DB) GetUserStats(userID string) (*model.UserStats, error) {
	var stats model.UserStats
	err := db.QueryRow(`
		SELECT
			COUNT(CASE WHEN status = 'in-progress' THEN 1 END),
			COUNT(CASE WHEN status = 'completed' THEN 1 END)
		FROM pages
		WHERE editor_id = ?`, userID).Scan(&stats.InProgressPages, &stats.CompletedPages)
	if err != nil {
		return nil, err
	}
	stats.MyPages = stats.InProgressPages + stats.CompletedPages

	user, err := db.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		stats.Points = user.Points
	}
	return &stats, nil
}

// RecentActivity lists the user's most recently touched pages.
func (db *DB) RecentActivity(userID string, limit int) ([]model.ActivityItem, error) {
	rows, err := db.Query(`
		SELECT p.page_number, p.status, p.updated_at, b.id, b.name
		FROM pages p
		JOIN books b ON p.book_id = b.id
		WHERE p.editor_id = ?
		ORDER BY p.updated_at DESC, p.id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.ActivityItem
	for rows.Next() {
		var it model.ActivityItem
		if err := rows.Scan(&it.PageNumber, &it.Status, &it.Date, &it.BookID, &it.BookName); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
