package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
)

func TestExamResultExistsByNaturalKeyExcludesSelf(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamResultRepository(db)

	date := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("AND id <> $5 LIMIT 1")).
		WithArgs("s1", "c1", "MIDTERM", date, "r1").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByNaturalKey(context.Background(), "s1", "c1", "MIDTERM", date, "r1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamResultCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamResultRepository(db)

	mock.ExpectExec("INSERT INTO exam_results").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "exam_results_natural_key"})

	err := repo.Create(context.Background(), &models.ExamResult{StudentID: "s1", Score: 80, Grade: "A"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamResultUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamResultRepository(db)

	mock.ExpectExec("UPDATE exam_results").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.ExamResult{ID: "missing"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestExamResultDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamResultRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exam_results WHERE id = $1")).WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exam_results WHERE id = $1")).WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "r1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "r1"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamResultListByClassSet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamResultRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "class_id", "course_id", "exam_type", "exam_date", "score", "grade", "remarks", "created_at", "updated_at", "student_name", "class_name", "course_name"}).
		AddRow("r1", "s1", "class-1", "c1", "FINAL", now, "91.50", "A+", nil, now, now, "Ada Lovelace", "10-A", "Mathematics")

	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.class_id = ANY($1) AND r.exam_type = $2")).
		WithArgs(sqlmock.AnyArg(), "FINAL").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM exam_results r")).
		WithArgs(sqlmock.AnyArg(), "FINAL").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	results, total, err := repo.List(context.Background(), models.ExamResultFilter{ClassIDs: []string{"class-1", "class-2"}, ExamType: "FINAL"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	assert.InDelta(t, 91.5, results[0].Score, 0.001)
	assert.Equal(t, "Mathematics", results[0].CourseName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamResultListEmptyClassSetSkipsQuery(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	results, total, err := NewExamResultRepository(db).List(context.Background(), models.ExamResultFilter{ClassIDs: []string{}})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamResultAveragesByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectQuery("GROUP BY r.course_id").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "course_name", "average", "exams"}).AddRow("c1", "Mathematics", 84.25, 2))

	averages, err := NewExamResultRepository(db).AveragesByStudent(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, averages, 1)
	assert.Equal(t, 2, averages[0].Exams)
	assert.NoError(t, mock.ExpectationsWereMet())
}
