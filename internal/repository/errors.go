package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Constraint violations surfaced by Postgres, matched with errors.Is.
var (
	ErrDuplicate  = errors.New("duplicate key")
	ErrForeignKey = errors.New("foreign key violation")
	// ErrInvalidID marks an identifier Postgres refused to parse. No row can
	// carry such an id.
	ErrInvalidID = errors.New("invalid identifier")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqInvalidText         = "22P02"
)

func translateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return fmt.Errorf("%w on %s: %w", ErrDuplicate, pqErr.Constraint, err)
	case pqForeignKeyViolation:
		return fmt.Errorf("%w on %s: %w", ErrForeignKey, pqErr.Constraint, err)
	case pqInvalidText:
		return fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	return err
}

// IsNotFound reports whether a lookup matched no row, either because the id
// is absent or because it is not a well-formed identifier.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, ErrInvalidID)
}

// wellFormedIDs drops ids that cannot name a UUID primary key so batch
// lookups report them as missing instead of failing the whole query.
func wellFormedIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func normalisePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
