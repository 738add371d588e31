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

func TestPeriodRepositoryListOrdersBySlot(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND class_id = $1 AND day_of_week = $2 ORDER BY day_of_week, period_number")).
		WithArgs("class-1", "MONDAY").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_id", "course_id", "day_of_week", "start_time", "end_time", "period_number", "created_at", "updated_at"}).
			AddRow("p1", "class-1", "c1", "MONDAY", "07:00", "07:45", 1, now, now))

	periods, err := NewPeriodRepository(db).List(context.Background(), models.PeriodFilter{ClassID: "class-1", DayOfWeek: "MONDAY"})
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, "Period 1 - Mathematics", periods[0].Label("Mathematics"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryCreateSlotTaken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO periods").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "periods_slot_unique"})

	err := NewPeriodRepository(db).Create(context.Background(), &models.Period{ClassID: "class-1", PeriodNumber: 1})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
