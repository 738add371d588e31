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

const periodColumns = "id, class_id, course_id, day_of_week, start_time, end_time, period_number, created_at, updated_at"

// PeriodRepository manages scheduled period slots.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs a PeriodRepository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// List returns periods ordered by day and sequence.
func (r *PeriodRepository) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, error) {
	query := "SELECT " + periodColumns + " FROM periods WHERE 1=1"
	var args []interface{}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		query += fmt.Sprintf(" AND class_id = $%d", len(args))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		query += fmt.Sprintf(" AND course_id = $%d", len(args))
	}
	if filter.DayOfWeek != "" {
		args = append(args, filter.DayOfWeek)
		query += fmt.Sprintf(" AND day_of_week = $%d", len(args))
	}
	query += " ORDER BY day_of_week, period_number"

	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, query, args...); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

// FindByID fetches a period.
func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*models.Period, error) {
	var period models.Period
	if err := r.db.GetContext(ctx, &period, `SELECT `+periodColumns+` FROM periods WHERE id = $1`, id); err != nil {
		return nil, translateError(err)
	}
	return &period, nil
}

// Create inserts a period; the (class, day, period_number) slot is unique.
func (r *PeriodRepository) Create(ctx context.Context, period *models.Period) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	period.CreatedAt = now
	period.UpdatedAt = now
	const query = `INSERT INTO periods (` + periodColumns + `) VALUES (:id, :class_id, :course_id, :day_of_week, :start_time, :end_time, :period_number, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create period: %w", translateError(err))
	}
	return nil
}

// Update modifies a period.
func (r *PeriodRepository) Update(ctx context.Context, period *models.Period) error {
	period.UpdatedAt = time.Now().UTC()
	const query = `UPDATE periods SET class_id = :class_id, course_id = :course_id, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, period_number = :period_number, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("update period: %w", translateError(err))
	}
	return nil
}

// Delete removes a period.
func (r *PeriodRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM periods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete period: %w", translateError(err))
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
