package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
)

func expectClassLock(mock sqlmock.Sqlmock, classID string) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM classes WHERE id = $1 FOR UPDATE")).
		WithArgs(classID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(classID))
}

func TestClassMembershipCreateClassWithTeachers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassMembershipRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO classes").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_teachers (class_id, teacher_id, created_at) SELECT $1, unnest($2::uuid[]), $3")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	class := &models.Class{Name: "10-A"}
	require.NoError(t, repo.CreateClass(context.Background(), class, []string{"t2", "t1", "t2"}))
	assert.NotEmpty(t, class.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassMembershipCreateClassDuplicateName(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassMembershipRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO classes").WillReturnError(&pq.Error{Code: "23505", Constraint: "classes_name_unique"})
	mock.ExpectRollback()

	err := repo.CreateClass(context.Background(), &models.Class{Name: "10-A"}, nil)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// {A,B} -> {B} removes A and keeps B in the same transaction.
func TestClassMembershipReplaceTeachersDiff(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassMembershipRepository(db)

	mock.ExpectBegin()
	expectClassLock(mock, "class-c")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT teacher_id FROM class_teachers WHERE class_id = $1")).
		WithArgs("class-c").
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id"}).AddRow("teacher-a").AddRow("teacher-b"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_teachers WHERE class_id = $1 AND teacher_id = ANY($2)")).
		WithArgs("class-c", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET updated_at = $2 WHERE id = $1")).
		WithArgs("class-c", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	diff, err := repo.ReplaceTeachers(context.Background(), "class-c", []string{"teacher-b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"teacher-a"}, diff.Removed)
	assert.Empty(t, diff.Added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassMembershipReplaceTeachersRollsBackOnUnknownTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassMembershipRepository(db)

	mock.ExpectBegin()
	expectClassLock(mock, "class-c")
	mock.ExpectQuery("SELECT teacher_id FROM class_teachers").
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id"}))
	mock.ExpectExec("INSERT INTO class_teachers").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "class_teachers_teacher_id_fkey"})
	mock.ExpectRollback()

	_, err := repo.ReplaceTeachers(context.Background(), "class-c", []string{"ghost"})
	assert.ErrorIs(t, err, ErrForeignKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassMembershipReplaceTeachersMissingClass(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassMembershipRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("missing").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.ReplaceTeachers(context.Background(), "missing", []string{"t1"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassMembershipDeleteClassOrdersCascade(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassMembershipRepository(db)

	mock.ExpectBegin()
	expectClassLock(mock, "class-c")
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET class_id = NULL")).
		WithArgs("class-c", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_teachers WHERE class_id = $1")).
		WithArgs("class-c").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_courses WHERE class_id = $1")).
		WithArgs("class-c").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM classes WHERE id = $1")).
		WithArgs("class-c").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.DeleteClass(context.Background(), "class-c")
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.StudentsUnassigned)
	assert.Equal(t, int64(1), result.TeachersUnlinked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassMembershipDeleteClassStillReferenced(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassMembershipRepository(db)

	mock.ExpectBegin()
	expectClassLock(mock, "class-c")
	mock.ExpectExec("UPDATE students SET class_id = NULL").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM class_teachers").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM class_courses").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM classes").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "periods_class_id_fkey"})
	mock.ExpectRollback()

	_, err := repo.DeleteClass(context.Background(), "class-c")
	assert.ErrorIs(t, err, ErrForeignKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassMembershipUnassignClassKeepsCourses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassMembershipRepository(db)

	mock.ExpectBegin()
	expectClassLock(mock, "class-c")
	mock.ExpectExec("UPDATE students SET class_id = NULL").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM class_teachers").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	result, err := repo.UnassignClass(context.Background(), "class-c")
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.StudentsUnassigned)
	assert.Equal(t, int64(2), result.TeachersUnlinked)
	assert.Zero(t, result.CoursesUnlinked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassMembershipDeleteStudentCascade(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassMembershipRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exam_results WHERE student_id = $1")).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance WHERE student_id = $1")).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 9))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteStudent(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassMembershipDeleteTeacherMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassMembershipRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM class_teachers WHERE teacher_id").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE courses SET teacher_id = NULL").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE attendance SET marked_by = NULL").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM teachers").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteTeacher(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassMembershipIsTeacherAssigned(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassMembershipRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM class_teachers WHERE class_id = $1 AND teacher_id = $2)")).
		WithArgs("class-10", "teacher-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.IsTeacherAssigned(context.Background(), "teacher-1", "class-10")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDiffSets(t *testing.T) {
	diff := diffSets([]string{"a", "b", "c"}, []string{"c", "d", "d", "b"})
	assert.Equal(t, []string{"d"}, diff.Added)
	assert.Equal(t, []string{"a"}, diff.Removed)

	none := diffSets([]string{"a"}, []string{"a"})
	assert.Empty(t, none.Added)
	assert.Empty(t, none.Removed)
}
