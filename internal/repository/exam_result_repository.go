package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academic-records-api/internal/models"
)

const examResultColumns = "id, student_id, class_id, course_id, exam_type, exam_date, score, grade, remarks, created_at, updated_at"

const examResultDetailSelect = `SELECT r.id, r.student_id, r.class_id, r.course_id, r.exam_type, r.exam_date, r.score, r.grade, r.remarks, r.created_at, r.updated_at,
       s.first_name || ' ' || s.last_name AS student_name, c.name AS class_name, co.name AS course_name
FROM exam_results r
JOIN students s ON s.id = r.student_id
JOIN classes c ON c.id = r.class_id
JOIN courses co ON co.id = r.course_id`

// ExamResultRepository persists graded exam results.
type ExamResultRepository struct {
	db *sqlx.DB
}

// NewExamResultRepository constructs an ExamResultRepository.
func NewExamResultRepository(db *sqlx.DB) *ExamResultRepository {
	return &ExamResultRepository{db: db}
}

// FindByID fetches the bare result row.
func (r *ExamResultRepository) FindByID(ctx context.Context, id string) (*models.ExamResult, error) {
	var result models.ExamResult
	if err := r.db.GetContext(ctx, &result, `SELECT `+examResultColumns+` FROM exam_results WHERE id = $1`, id); err != nil {
		return nil, translateError(err)
	}
	return &result, nil
}

// FindDetailByID fetches a result with display names.
func (r *ExamResultRepository) FindDetailByID(ctx context.Context, id string) (*models.ExamResultDetail, error) {
	var detail models.ExamResultDetail
	if err := r.db.GetContext(ctx, &detail, examResultDetailSelect+` WHERE r.id = $1`, id); err != nil {
		return nil, translateError(err)
	}
	return &detail, nil
}

// ExistsByNaturalKey reports whether another result already records the
// same (student, course, exam type, exam date).
func (r *ExamResultRepository) ExistsByNaturalKey(ctx context.Context, studentID, courseID, examType string, examDate time.Time, excludeID string) (bool, error) {
	query := `SELECT 1 FROM exam_results WHERE student_id = $1 AND course_id = $2 AND exam_type = $3 AND exam_date = $4`
	args := []interface{}{studentID, courseID, examType, examDate}
	if excludeID != "" {
		query += " AND id <> $5"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check exam result key: %w", err)
	}
	return true, nil
}

// Create inserts a result. A concurrent writer that wins the natural key
// surfaces as ErrDuplicate.
func (r *ExamResultRepository) Create(ctx context.Context, result *models.ExamResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	result.CreatedAt = now
	result.UpdatedAt = now
	const query = `INSERT INTO exam_results (` + examResultColumns + `) VALUES (:id, :student_id, :class_id, :course_id, :exam_type, :exam_date, :score, :grade, :remarks, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create exam result: %w", translateError(err))
	}
	return nil
}

// Update overwrites a result's editable fields.
func (r *ExamResultRepository) Update(ctx context.Context, result *models.ExamResult) error {
	result.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exam_results SET student_id = :student_id, class_id = :class_id, course_id = :course_id, exam_type = :exam_type, exam_date = :exam_date, score = :score, grade = :grade, remarks = :remarks, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, result)
	if err != nil {
		return fmt.Errorf("update exam result: %w", translateError(err))
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a result.
func (r *ExamResultRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM exam_results WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exam result: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns a page of results plus the total count. ClassIDs restricts
// the listing to a set of classes; an empty non-nil slice matches nothing.
func (r *ExamResultRepository) List(ctx context.Context, filter models.ExamResultFilter) ([]models.ExamResultDetail, int, error) {
	if filter.ClassIDs != nil && len(filter.ClassIDs) == 0 {
		return []models.ExamResultDetail{}, 0, nil
	}

	var conditions []string
	var args []interface{}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	if filter.ClassID != "" {
		add("r.class_id = $%d", filter.ClassID)
	}
	if len(filter.ClassIDs) > 0 {
		add("r.class_id = ANY($%d)", pq.Array(filter.ClassIDs))
	}
	if filter.CourseID != "" {
		add("r.course_id = $%d", filter.CourseID)
	}
	if filter.StudentID != "" {
		add("r.student_id = $%d", filter.StudentID)
	}
	if filter.ExamType != "" {
		add("r.exam_type = $%d", filter.ExamType)
	}
	if filter.ExamDate != nil {
		add("r.exam_date = $%d", *filter.ExamDate)
	}

	where := ""
	if len(conditions) > 0 {
		where = "\nWHERE " + strings.Join(conditions, " AND ")
	}

	page, size := normalisePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("%s%s\nORDER BY r.exam_date DESC, s.last_name ASC, s.first_name ASC LIMIT %d OFFSET %d", examResultDetailSelect, where, size, (page-1)*size)
	var results []models.ExamResultDetail
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list exam results: %w", err)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM exam_results r JOIN students s ON s.id = r.student_id" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count exam results: %w", err)
	}
	return results, total, nil
}

// AveragesByStudent returns per-course mean scores for a student.
func (r *ExamResultRepository) AveragesByStudent(ctx context.Context, studentID string) ([]models.CourseAverage, error) {
	const query = `SELECT r.course_id, co.name AS course_name, ROUND(AVG(r.score)::numeric, 2)::float8 AS average, COUNT(*) AS exams
FROM exam_results r
JOIN courses co ON co.id = r.course_id
WHERE r.student_id = $1
GROUP BY r.course_id, co.name
ORDER BY co.name`
	var averages []models.CourseAverage
	if err := r.db.SelectContext(ctx, &averages, query, studentID); err != nil {
		return nil, fmt.Errorf("average exam results: %w", err)
	}
	return averages, nil
}
