package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// DashboardRepository exposes read-only aggregate queries for dashboards.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository instantiates the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// AdminTotals counts every entity in one round trip.
func (r *DashboardRepository) AdminTotals(ctx context.Context) (*models.AdminDashboard, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM classes) AS classes,
        (SELECT COUNT(*) FROM teachers) AS teachers,
        (SELECT COUNT(*) FROM students) AS students,
        (SELECT COUNT(*) FROM courses) AS courses,
        (SELECT COUNT(*) FROM exam_results) AS exam_results,
        (SELECT COUNT(*) FROM attendance) AS attendance_marks`
	var totals models.AdminDashboard
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("query admin totals: %w", err)
	}
	return &totals, nil
}

// TeacherTotals counts classes, students and results reachable from the
// teacher's class assignments.
func (r *DashboardRepository) TeacherTotals(ctx context.Context, teacherID string) (*models.TeacherDashboard, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM class_teachers ct WHERE ct.teacher_id = $1) AS classes,
        (SELECT COUNT(*) FROM students s JOIN class_teachers ct ON ct.class_id = s.class_id WHERE ct.teacher_id = $1) AS students,
        (SELECT COUNT(*) FROM exam_results er JOIN class_teachers ct ON ct.class_id = er.class_id WHERE ct.teacher_id = $1) AS exam_results`
	var totals models.TeacherDashboard
	if err := r.db.GetContext(ctx, &totals, query, teacherID); err != nil {
		return nil, fmt.Errorf("query teacher totals: %w", err)
	}
	totals.TeacherID = teacherID
	return &totals, nil
}
