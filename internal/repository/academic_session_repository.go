package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

const sessionColumns = "id, name, start_date, end_date, is_current, created_at, updated_at"

// AcademicSessionRepository handles persistence for academic sessions.
type AcademicSessionRepository struct {
	db *sqlx.DB
}

// NewAcademicSessionRepository instantiates the repository.
func NewAcademicSessionRepository(db *sqlx.DB) *AcademicSessionRepository {
	return &AcademicSessionRepository{db: db}
}

// List returns sessions, newest first.
func (r *AcademicSessionRepository) List(ctx context.Context) ([]models.AcademicSession, error) {
	var sessions []models.AcademicSession
	if err := r.db.SelectContext(ctx, &sessions, `SELECT `+sessionColumns+` FROM academic_sessions ORDER BY start_date DESC`); err != nil {
		return nil, fmt.Errorf("list academic sessions: %w", err)
	}
	return sessions, nil
}

// FindByID fetches a session.
func (r *AcademicSessionRepository) FindByID(ctx context.Context, id string) (*models.AcademicSession, error) {
	var session models.AcademicSession
	if err := r.db.GetContext(ctx, &session, `SELECT `+sessionColumns+` FROM academic_sessions WHERE id = $1`, id); err != nil {
		return nil, translateError(err)
	}
	return &session, nil
}

// FindCurrent returns the session flagged current.
func (r *AcademicSessionRepository) FindCurrent(ctx context.Context) (*models.AcademicSession, error) {
	var session models.AcademicSession
	if err := r.db.GetContext(ctx, &session, `SELECT `+sessionColumns+` FROM academic_sessions WHERE is_current = TRUE LIMIT 1`); err != nil {
		return nil, translateError(err)
	}
	return &session, nil
}

// ExistsByName checks whether another session uses the name.
func (r *AcademicSessionRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := "SELECT 1 FROM academic_sessions WHERE LOWER(name) = LOWER($1)"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check session name: %w", err)
	}
	return true, nil
}

// Save inserts or updates the session. When it is flagged current every other
// session is cleared first in the same transaction.
func (r *AcademicSessionRepository) Save(ctx context.Context, session *models.AcademicSession) (err error) {
	now := time.Now().UTC()
	insert := session.ID == ""
	if insert {
		session.ID = uuid.NewString()
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save session: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if session.IsCurrent {
		if _, err = tx.ExecContext(ctx, `UPDATE academic_sessions SET is_current = FALSE, updated_at = $2 WHERE is_current = TRUE AND id <> $1`, session.ID, now); err != nil {
			return fmt.Errorf("clear current sessions: %w", err)
		}
	}

	if insert {
		const query = `INSERT INTO academic_sessions (` + sessionColumns + `) VALUES (:id, :name, :start_date, :end_date, :is_current, :created_at, :updated_at)`
		if _, err = tx.NamedExecContext(ctx, query, session); err != nil {
			return fmt.Errorf("create session: %w", translateError(err))
		}
	} else {
		const query = `UPDATE academic_sessions SET name = :name, start_date = :start_date, end_date = :end_date, is_current = :is_current, updated_at = :updated_at WHERE id = :id`
		if _, err = tx.NamedExecContext(ctx, query, session); err != nil {
			return fmt.Errorf("update session: %w", translateError(err))
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save session: %w", err)
	}
	return nil
}

// Delete removes a session. Students still enrolled in it surface as ErrForeignKey.
func (r *AcademicSessionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM academic_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", translateError(err))
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
