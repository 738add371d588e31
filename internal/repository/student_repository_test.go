package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
)

var studentRowColumns = []string{"id", "user_id", "first_name", "last_name", "gender", "date_of_birth", "admission_date", "address", "phone", "class_id", "session_id", "active", "created_at", "updated_at"}

func TestStudentRepositoryListByClass(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(studentRowColumns).
		AddRow("s1", nil, "Ada", "Lovelace", "F", nil, nil, nil, nil, "class-1", nil, true, now, now).
		AddRow("s2", nil, "Alan", "Turing", "M", nil, nil, nil, nil, "class-1", nil, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + studentColumns + " FROM students WHERE 1=1 AND class_id = $1 ORDER BY last_name, first_name ASC LIMIT 50 OFFSET 50")).
		WithArgs("class-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE 1=1 AND class_id = $1")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(52))

	students, total, err := repo.List(context.Background(), models.StudentFilter{ClassID: "class-1", Page: 2, PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, 52, total)
	require.Len(t, students, 2)
	assert.True(t, students[0].InClass("class-1"))
	assert.Equal(t, "Alan Turing", students[1].FullName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	const known = "8f14e45f-ceea-467a-9575-7c2a1c1b2b11"
	const unknown = "c9f0f895-fb98-4b91-9a1e-3a9d0e1d7a22"
	now := time.Now()
	mock.ExpectQuery("FROM students WHERE id IN").
		WithArgs(known, unknown).
		WillReturnRows(sqlmock.NewRows(studentRowColumns).
			AddRow(known, nil, "Ada", "Lovelace", nil, nil, nil, nil, nil, "class-1", nil, true, now, now))

	students, err := repo.FindByIDs(context.Background(), []string{known, "S1", unknown})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, known, students[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDsSkipsMalformedIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	students, err := NewStudentRepository(db).FindByIDs(context.Background(), []string{"S1", "not-a-uuid"})
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDRejectedIDIsNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectQuery("FROM students WHERE id = \\$1").
		WithArgs("S1").
		WillReturnError(&pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "S1"`})

	_, err := NewStudentRepository(db).FindByID(context.Background(), "S1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCountByClass(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE class_id = $1")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByClass(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE students SET").WillReturnResult(sqlmock.NewResult(0, 1))

	student := &models.Student{FirstName: "Ada", LastName: "Lovelace", Active: true}
	require.NoError(t, repo.Create(context.Background(), student))
	classID := "class-1"
	student.ClassID = &classID
	require.NoError(t, repo.Update(context.Background(), student))
	assert.NoError(t, mock.ExpectationsWereMet())
}
