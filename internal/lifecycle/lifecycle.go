// Package lifecycle enforces the page claim/release/complete state machine.
// It is the only component allowed to mutate a page's status and editor
// fields, and every successful transition appends a page_history entry in the
// same transaction.
//
// Each transition is a single guarded UPDATE whose WHERE clause re-checks the
// expected prior state. The write itself decides the race: of two concurrent
// claimants exactly one statement matches the row, the other sees zero rows
// affected and fails with ErrConflict. State is never decided by reading a
// row first and writing in a second unguarded statement.
package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sofrim/sofrim-server/internal/db"
	"github.com/sofrim/sofrim-server/internal/model"
)

// PointsPerCompletedPage is awarded to the editor when a page is completed,
// inside the same transaction as the status write.
const PointsPerCompletedPage = 10

var (
	// ErrNotFound means no such page exists.
	ErrNotFound = errors.New("page not found")
	// ErrConflict means the page was not in the status the transition
	// requires, typically because a concurrent editor won the race.
	ErrConflict = errors.New("page status conflict")
	// ErrForbidden means the actor does not own the page and lacks the role
	// needed for the transition.
	ErrForbidden = errors.New("actor may not perform this transition")
	// ErrValidation means the request identifies no page or actor.
	ErrValidation = errors.New("invalid lifecycle request")
)

type Service struct {
	DB *db.DB
}

func NewService(database *db.DB) *Service {
	return &Service{DB: database}
}

// Claim moves an available page to in-progress and assigns it to the caller.
// At most one of any number of concurrent claims on the same page succeeds.
func (s *Service) Claim(ctx context.Context, bookID string, pageNumber int, userID, userName string) (*model.Page, error) {
	if bookID == "" || pageNumber < 1 || userID == "" {
		return nil, ErrValidation
	}
	now := time.Now().UnixMilli()
	err := s.DB.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE pages
			SET status = ?, editor_id = ?, editor_name = ?, claimed_at = ?, updated_at = ?
			WHERE book_id = ? AND page_number = ? AND status = ?`,
			model.PageInProgress, userID, userName, now, now,
			bookID, pageNumber, model.PageAvailable)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			page, err := db.GetPageTx(tx, bookID, pageNumber)
			if err != nil {
				return err
			}
			if page == nil {
				return ErrNotFound
			}
			return ErrConflict
		}
		return s.appendHistory(tx, bookID, pageNumber, userID, model.ActionClaimed, now)
	})
	if err != nil {
		return nil, err
	}
	return s.DB.GetPage(bookID, pageNumber)
}

// Release moves an in-progress page back to available, clearing the editor
// fields together. Only the owning editor or an admin may release.
func (s *Service) Release(ctx context.Context, bookID string, pageNumber int, actorID, actorRole string) (*model.Page, error) {
	if bookID == "" || pageNumber < 1 || actorID == "" {
		return nil, ErrValidation
	}
	admin := actorRole == model.RoleAdmin
	now := time.Now().UnixMilli()
	err := s.DB.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE pages
			SET status = ?, editor_id = NULL, editor_name = NULL, claimed_at = NULL, updated_at = ?
			WHERE book_id = ? AND page_number = ? AND status = ?`
		args := []any{model.PageAvailable, now, bookID, pageNumber, model.PageInProgress}
		if !admin {
			query += ` AND editor_id = ?`
			args = append(args, actorID)
		}
		res, err := tx.Exec(query, args...)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return classifyFailure(tx, bookID, pageNumber)
		}
		return s.appendHistory(tx, bookID, pageNumber, actorID, model.ActionReleased, now)
	})
	if err != nil {
		return nil, err
	}
	return s.DB.GetPage(bookID, pageNumber)
}

// Complete moves an in-progress page to completed, persists the transcription
// when supplied, and awards points to the editor in the same transaction, so
// a crash can never leave a completed page without its award or vice versa.
// Only the owning editor may complete; admins cannot complete on behalf of a
// user.
func (s *Service) Complete(ctx context.Context, bookID string, pageNumber int, actorID string, content *string) (*model.Page, error) {
	if bookID == "" || pageNumber < 1 || actorID == "" {
		return nil, ErrValidation
	}
	now := time.Now().UnixMilli()
	err := s.DB.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE pages
			SET status = ?, completed_at = ?, updated_at = ?`
		args := []any{model.PageCompleted, now, now}
		if content != nil {
			query += `, content = ?`
			args = append(args, *content)
		}
		query += ` WHERE book_id = ? AND page_number = ? AND status = ? AND editor_id = ?`
		args = append(args, bookID, pageNumber, model.PageInProgress, actorID)

		res, err := tx.Exec(query, args...)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return classifyFailure(tx, bookID, pageNumber)
		}
		if err := s.appendHistory(tx, bookID, pageNumber, actorID, model.ActionCompleted, now); err != nil {
			return err
		}
		_, err = tx.Exec(`UPDATE users SET points = points + ? WHERE id = ?`,
			PointsPerCompletedPage, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.DB.GetPage(bookID, pageNumber)
}

// AdminReset forces a page back to available from any status. It is the
// deliberate escape hatch that reopens completed pages; role enforcement
// happens at the API layer, so adminID must belong to an admin.
func (s *Service) AdminReset(ctx context.Context, bookID string, pageNumber int, adminID string) (*model.Page, error) {
	if bookID == "" || pageNumber < 1 || adminID == "" {
		return nil, ErrValidation
	}
	now := time.Now().UnixMilli()
	err := s.DB.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE pages
			SET status = ?, editor_id = NULL, editor_name = NULL, claimed_at = NULL, updated_at = ?
			WHERE book_id = ? AND page_number = ?`,
			model.PageAvailable, now, bookID, pageNumber)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return s.appendHistory(tx, bookID, pageNumber, adminID, model.ActionReleased, now)
	})
	if err != nil {
		return nil, err
	}
	return s.DB.GetPage(bookID, pageNumber)
}

func (s *Service) appendHistory(tx *sql.Tx, bookID string, pageNumber int, userID, action string, now int64) error {
	page, err := db.GetPageTx(tx, bookID, pageNumber)
	if err != nil {
		return err
	}
	if page == nil {
		return ErrNotFound
	}
	return db.AppendHistoryTx(tx, page.ID, userID, action, now)
}

// classifyFailure names the reason a guarded update matched no row. The
// re-read is purely diagnostic; the update above already decided the outcome.
func classifyFailure(tx *sql.Tx, bookID string, pageNumber int) error {
	page, err := db.GetPageTx(tx, bookID, pageNumber)
	if err != nil {
		return err
	}
	if page == nil {
		return ErrNotFound
	}
	if page.Status != model.PageInProgress {
		return ErrConflict
	}
	return ErrForbidden
}
