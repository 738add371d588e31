package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
)

var teacherRowColumns = []string{"id", "user_id", "first_name", "last_name", "email", "phone", "specialization", "active", "created_at", "updated_at"}

func TestTeacherRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(teacherRowColumns).
		AddRow("t1", "u1", "Grace", "Hopper", "grace@example.com", nil, "Computing", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + teacherColumns + " FROM teachers WHERE 1=1 AND (LOWER(first_name || ' ' || last_name) LIKE $1 OR LOWER(email) LIKE $1) ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("%grace%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers")).
		WithArgs("%grace%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	teachers, total, err := repo.List(context.Background(), models.TeacherFilter{Search: "Grace"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, teachers, 1)
	assert.Equal(t, "Grace Hopper", teachers[0].FullName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindByUserIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE user_id = $1")).
		WithArgs("u-missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUserID(context.Background(), "u-missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindByIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	now := time.Now()
	const t1 = "3c59dc04-8e55-4f3a-b2b5-1a6f0e0c1d01"
	const t2 = "b6d767d2-f8ed-4d2a-9e2b-0c4e5f6a7b02"
	mock.ExpectQuery("FROM teachers WHERE id IN").
		WithArgs(t1, t2).
		WillReturnRows(sqlmock.NewRows(teacherRowColumns).
			AddRow(t1, nil, "A", "One", "a@example.com", nil, nil, true, now, now))

	teachers, err := repo.FindByIDs(context.Background(), []string{t1, "t-legacy", t2})
	require.NoError(t, err)
	assert.Len(t, teachers, 1)

	empty, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teachers WHERE LOWER(email) = LOWER($1) AND id <> $2 LIMIT 1")).
		WithArgs("a@example.com", "t1").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByEmail(context.Background(), "a@example.com", "t1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec("INSERT INTO teachers").WillReturnResult(sqlmock.NewResult(1, 1))

	teacher := &models.Teacher{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Active: true}
	require.NoError(t, repo.Create(context.Background(), teacher))
	assert.NotEmpty(t, teacher.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
