package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// TeacherDiff lists the edges changed by ReplaceTeachers.
type TeacherDiff struct {
	Added   []string
	Removed []string
}

// ClassUnlink reports what was detached from a class.
type ClassUnlink struct {
	StudentsUnassigned int64
	TeachersUnlinked   int64
	CoursesUnlinked    int64
}

// ClassMembershipRepository owns the class_teachers and class_courses edges and
// the ordered cascades that keep them consistent with students and classes.
// Both "class.teachers" and "teacher.classes" are read from class_teachers.
type ClassMembershipRepository struct {
	db *sqlx.DB
}

// NewClassMembershipRepository constructs the repository.
func NewClassMembershipRepository(db *sqlx.DB) *ClassMembershipRepository {
	return &ClassMembershipRepository{db: db}
}

// CreateClass inserts the class together with its initial teacher edges.
func (r *ClassMembershipRepository) CreateClass(ctx context.Context, class *models.Class, teacherIDs []string) (err error) {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create class: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertClass = `INSERT INTO classes (id, name, created_at, updated_at) VALUES (:id, :name, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertClass, class); err != nil {
		return fmt.Errorf("create class: %w", translateError(err))
	}

	if ids := uniqueSorted(teacherIDs); len(ids) > 0 {
		if err = insertTeacherEdges(ctx, tx, class.ID, ids, now); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create class: %w", err)
	}
	return nil
}

// ReplaceTeachers makes teacherIDs the full teacher set of the class. The class
// row is locked so concurrent replacements serialize.
func (r *ClassMembershipRepository) ReplaceTeachers(ctx context.Context, classID string, teacherIDs []string) (diff TeacherDiff, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return diff, fmt.Errorf("begin replace class teachers: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockClass(ctx, tx, classID); err != nil {
		return diff, err
	}

	var current []string
	if err = tx.SelectContext(ctx, &current, `SELECT teacher_id FROM class_teachers WHERE class_id = $1`, classID); err != nil {
		return diff, fmt.Errorf("load class teachers: %w", err)
	}

	diff = diffSets(current, teacherIDs)
	now := time.Now().UTC()

	if len(diff.Removed) > 0 {
		if _, err = tx.ExecContext(ctx, `DELETE FROM class_teachers WHERE class_id = $1 AND teacher_id = ANY($2)`, classID, pq.Array(diff.Removed)); err != nil {
			return diff, fmt.Errorf("remove class teachers: %w", err)
		}
	}
	if len(diff.Added) > 0 {
		if err = insertTeacherEdges(ctx, tx, classID, diff.Added, now); err != nil {
			return diff, err
		}
	}
	if _, err = tx.ExecContext(ctx, `UPDATE classes SET updated_at = $2 WHERE id = $1`, classID, now); err != nil {
		return diff, fmt.Errorf("touch class: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return diff, fmt.Errorf("commit replace class teachers: %w", err)
	}
	return diff, nil
}

// ReplaceCourses makes courseIDs the full course set offered to the class.
func (r *ClassMembershipRepository) ReplaceCourses(ctx context.Context, classID string, courseIDs []string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace class courses: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockClass(ctx, tx, classID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM class_courses WHERE class_id = $1`, classID); err != nil {
		return fmt.Errorf("clear class courses: %w", err)
	}
	if ids := uniqueSorted(courseIDs); len(ids) > 0 {
		const insert = `INSERT INTO class_courses (class_id, course_id) SELECT $1, unnest($2::uuid[]) ON CONFLICT (class_id, course_id) DO NOTHING`
		if _, err = tx.ExecContext(ctx, insert, classID, pq.Array(ids)); err != nil {
			return fmt.Errorf("insert class courses: %w", translateError(err))
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace class courses: %w", err)
	}
	return nil
}

// UnassignClass detaches every teacher and student from the class without
// deleting either side.
func (r *ClassMembershipRepository) UnassignClass(ctx context.Context, classID string) (result ClassUnlink, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin unassign class: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockClass(ctx, tx, classID); err != nil {
		return result, err
	}
	if result, err = unlinkClass(ctx, tx, classID, false); err != nil {
		return result, err
	}

	if err = tx.Commit(); err != nil {
		return result, fmt.Errorf("commit unassign class: %w", err)
	}
	return result, nil
}

// DeleteClass clears student references and every edge of the class before
// removing the row. Periods, attendance or results that still reference the
// class surface as ErrForeignKey.
func (r *ClassMembershipRepository) DeleteClass(ctx context.Context, classID string) (result ClassUnlink, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin delete class: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockClass(ctx, tx, classID); err != nil {
		return result, err
	}
	if result, err = unlinkClass(ctx, tx, classID, true); err != nil {
		return result, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, classID); err != nil {
		return result, fmt.Errorf("delete class: %w", translateError(err))
	}

	if err = tx.Commit(); err != nil {
		return result, fmt.Errorf("commit delete class: %w", err)
	}
	return result, nil
}

// DeleteTeacher removes the teacher's class edges and nulls its optional
// references before deleting the row.
func (r *ClassMembershipRepository) DeleteTeacher(ctx context.Context, teacherID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete teacher: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	steps := []struct {
		label string
		query string
	}{
		{"remove teacher classes", `DELETE FROM class_teachers WHERE teacher_id = $1`},
		{"release owned courses", `UPDATE courses SET teacher_id = NULL WHERE teacher_id = $1`},
		{"clear attendance markers", `UPDATE attendance SET marked_by = NULL WHERE marked_by = $1`},
	}
	for _, step := range steps {
		if _, err = tx.ExecContext(ctx, step.query, teacherID); err != nil {
			return fmt.Errorf("%s: %w", step.label, err)
		}
	}

	if err = deleteOne(ctx, tx, `DELETE FROM teachers WHERE id = $1`, teacherID, "delete teacher"); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete teacher: %w", err)
	}
	return nil
}

// DeleteStudent removes the student's exam results and attendance marks
// before deleting the row.
func (r *ClassMembershipRepository) DeleteStudent(ctx context.Context, studentID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete student: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM exam_results WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("delete student results: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM attendance WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("delete student attendance: %w", err)
	}
	if err = deleteOne(ctx, tx, `DELETE FROM students WHERE id = $1`, studentID, "delete student"); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete student: %w", err)
	}
	return nil
}

// ListTeachersByClass returns the teachers assigned to a class.
func (r *ClassMembershipRepository) ListTeachersByClass(ctx context.Context, classID string) ([]models.TeacherSummary, error) {
	const query = `SELECT t.id, t.first_name || ' ' || t.last_name AS full_name
FROM class_teachers ct
JOIN teachers t ON t.id = ct.teacher_id
WHERE ct.class_id = $1
ORDER BY t.last_name, t.first_name`
	var teachers []models.TeacherSummary
	if err := r.db.SelectContext(ctx, &teachers, query, classID); err != nil {
		return nil, fmt.Errorf("list class teachers: %w", err)
	}
	return teachers, nil
}

// ListClassesByTeacher returns the classes a teacher is assigned to.
func (r *ClassMembershipRepository) ListClassesByTeacher(ctx context.Context, teacherID string) ([]models.ClassSummary, error) {
	const query = `SELECT c.id, c.name
FROM class_teachers ct
JOIN classes c ON c.id = ct.class_id
WHERE ct.teacher_id = $1
ORDER BY c.name`
	var classes []models.ClassSummary
	if err := r.db.SelectContext(ctx, &classes, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher classes: %w", err)
	}
	return classes, nil
}

// ClassIDsByTeacher returns the ids of the classes a teacher is assigned to.
func (r *ClassMembershipRepository) ClassIDsByTeacher(ctx context.Context, teacherID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT class_id FROM class_teachers WHERE teacher_id = $1`, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher class ids: %w", err)
	}
	return ids, nil
}

// IsTeacherAssigned probes the junction primary key.
func (r *ClassMembershipRepository) IsTeacherAssigned(ctx context.Context, teacherID, classID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM class_teachers WHERE class_id = $1 AND teacher_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, classID, teacherID); err != nil {
		return false, fmt.Errorf("check teacher assignment: %w", err)
	}
	return exists, nil
}

func lockClass(ctx context.Context, tx *sqlx.Tx, classID string) error {
	var id string
	if err := tx.GetContext(ctx, &id, `SELECT id FROM classes WHERE id = $1 FOR UPDATE`, classID); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock class: %w", err)
	}
	return nil
}

func insertTeacherEdges(ctx context.Context, tx *sqlx.Tx, classID string, teacherIDs []string, at time.Time) error {
	const insert = `INSERT INTO class_teachers (class_id, teacher_id, created_at) SELECT $1, unnest($2::uuid[]), $3 ON CONFLICT (class_id, teacher_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, insert, classID, pq.Array(teacherIDs), at); err != nil {
		return fmt.Errorf("insert class teachers: %w", translateError(err))
	}
	return nil
}

func unlinkClass(ctx context.Context, tx *sqlx.Tx, classID string, withCourses bool) (ClassUnlink, error) {
	var result ClassUnlink
	res, err := tx.ExecContext(ctx, `UPDATE students SET class_id = NULL, updated_at = $2 WHERE class_id = $1`, classID, time.Now().UTC())
	if err != nil {
		return result, fmt.Errorf("unassign class students: %w", err)
	}
	result.StudentsUnassigned, _ = res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM class_teachers WHERE class_id = $1`, classID)
	if err != nil {
		return result, fmt.Errorf("remove class teachers: %w", err)
	}
	result.TeachersUnlinked, _ = res.RowsAffected()

	if withCourses {
		res, err = tx.ExecContext(ctx, `DELETE FROM class_courses WHERE class_id = $1`, classID)
		if err != nil {
			return result, fmt.Errorf("remove class courses: %w", err)
		}
		result.CoursesUnlinked, _ = res.RowsAffected()
	}
	return result, nil
}

func deleteOne(ctx context.Context, tx *sqlx.Tx, query, id, label string) error {
	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", label, translateError(err))
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func diffSets(current, target []string) TeacherDiff {
	have := make(map[string]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
	}
	want := make(map[string]struct{}, len(target))
	for _, id := range target {
		want[id] = struct{}{}
	}

	var diff TeacherDiff
	for id := range want {
		if _, ok := have[id]; !ok {
			diff.Added = append(diff.Added, id)
		}
	}
	for id := range have {
		if _, ok := want[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	return diff
}

func uniqueSorted(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
