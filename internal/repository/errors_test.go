package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	dup := translateError(&pq.Error{Code: "23505", Constraint: "exam_results_natural_key"})
	assert.True(t, errors.Is(dup, ErrDuplicate))
	assert.Contains(t, dup.Error(), "exam_results_natural_key")

	fk := translateError(&pq.Error{Code: "23503", Constraint: "periods_class_id_fkey"})
	assert.True(t, errors.Is(fk, ErrForeignKey))

	invalid := translateError(&pq.Error{Code: "22P02", Message: "invalid input syntax for type uuid"})
	assert.True(t, errors.Is(invalid, ErrInvalidID))

	other := errors.New("boom")
	assert.Equal(t, other, translateError(other))
	assert.Nil(t, translateError(nil))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(sql.ErrNoRows))
	assert.True(t, IsNotFound(fmt.Errorf("find: %w", ErrInvalidID)))
	assert.False(t, IsNotFound(ErrDuplicate))
	assert.False(t, IsNotFound(errors.New("connection refused")))
}

func TestWellFormedIDs(t *testing.T) {
	ids := wellFormedIDs([]string{"8f14e45f-ceea-467a-9575-7c2a1c1b2b11", "S1", ""})
	assert.Equal(t, []string{"8f14e45f-ceea-467a-9575-7c2a1c1b2b11"}, ids)
}

func TestNormalisePage(t *testing.T) {
	page, size := normalisePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	page, size = normalisePage(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, 20, size)
}
