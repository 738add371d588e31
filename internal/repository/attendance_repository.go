package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// UpsertOutcome counts how an attendance batch landed.
type UpsertOutcome struct {
	Inserted int
	Updated  int
}

// AttendanceRepository persists attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// UpsertBatch writes every mark in one transaction keyed by
// (student, class, course, period, date). An existing row keeps its id and
// takes the new present/remarks/marked_by values. Ids and timestamps are
// written back into marks.
func (r *AttendanceRepository) UpsertBatch(ctx context.Context, marks []*models.Attendance) (outcome UpsertOutcome, err error) {
	if len(marks) == 0 {
		return outcome, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return outcome, fmt.Errorf("begin attendance upsert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO attendance (id, student_id, class_id, course_id, period_id, attendance_date, present, remarks, marked_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
ON CONFLICT ON CONSTRAINT attendance_natural_key DO UPDATE
SET present = EXCLUDED.present, remarks = EXCLUDED.remarks, marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at
RETURNING id, created_at, updated_at, (xmax = 0) AS inserted`

	now := time.Now().UTC()
	for _, mark := range marks {
		if mark.ID == "" {
			mark.ID = uuid.NewString()
		}
		var row struct {
			ID        string    `db:"id"`
			CreatedAt time.Time `db:"created_at"`
			UpdatedAt time.Time `db:"updated_at"`
			Inserted  bool      `db:"inserted"`
		}
		err = tx.QueryRowxContext(ctx, query,
			mark.ID, mark.StudentID, mark.ClassID, mark.CourseID, mark.PeriodID,
			mark.AttendanceDate, mark.Present, mark.Remarks, mark.MarkedBy, now,
		).StructScan(&row)
		if err != nil {
			return outcome, fmt.Errorf("upsert attendance for student %s: %w", mark.StudentID, translateError(err))
		}
		mark.ID = row.ID
		mark.CreatedAt = row.CreatedAt
		mark.UpdatedAt = row.UpdatedAt
		if row.Inserted {
			outcome.Inserted++
		} else {
			outcome.Updated++
		}
	}

	if err = tx.Commit(); err != nil {
		return outcome, fmt.Errorf("commit attendance upsert: %w", err)
	}
	return outcome, nil
}

// List returns attendance rows with display names resolved.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, error) {
	var conditions []string
	var args []interface{}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.ClassID != "" {
		add("a.class_id = $%d", filter.ClassID)
	}
	if filter.CourseID != "" {
		add("a.course_id = $%d", filter.CourseID)
	}
	if filter.PeriodID != "" {
		add("a.period_id = $%d", filter.PeriodID)
	}
	if filter.StudentID != "" {
		add("a.student_id = $%d", filter.StudentID)
	}
	if filter.Date != nil {
		add("a.attendance_date = $%d", *filter.Date)
	}
	if filter.DateFrom != nil {
		add("a.attendance_date >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("a.attendance_date <= $%d", *filter.DateTo)
	}

	query := `SELECT a.id, a.student_id, a.class_id, a.course_id, a.period_id, a.attendance_date, a.present, a.remarks, a.marked_by, a.created_at, a.updated_at,
       s.first_name || ' ' || s.last_name AS student_name, c.name AS class_name, co.name AS course_name, p.period_number,
       t.first_name || ' ' || t.last_name AS marked_by_name
FROM attendance a
JOIN students s ON s.id = a.student_id
JOIN classes c ON c.id = a.class_id
JOIN courses co ON co.id = a.course_id
JOIN periods p ON p.id = a.period_id
LEFT JOIN teachers t ON t.id = a.marked_by`
	if len(conditions) > 0 {
		query += "\nWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\nORDER BY a.attendance_date DESC, p.period_number ASC, s.last_name ASC, s.first_name ASC"

	var rows []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return rows, nil
}

// Summary aggregates a student's marks in the optional date window.
func (r *AttendanceRepository) Summary(ctx context.Context, studentID string, from, to *time.Time) (*models.AttendanceSummary, error) {
	query := `SELECT COUNT(*) FILTER (WHERE present) AS present, COUNT(*) FILTER (WHERE NOT present) AS absent, COUNT(*) AS total FROM attendance WHERE student_id = $1`
	args := []interface{}{studentID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND attendance_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND attendance_date <= $%d", len(args))
	}

	var summary models.AttendanceSummary
	if err := r.db.GetContext(ctx, &summary, query, args...); err != nil {
		return nil, fmt.Errorf("summarise attendance: %w", err)
	}
	if summary.Total > 0 {
		summary.Percent = float64(summary.Present) / float64(summary.Total) * 100
	}
	return &summary, nil
}
