package models

import (
	"strings"
	"time"
)

// Student represents a learner registered in the institution.
type Student struct {
	ID            string     `db:"id" json:"id"`
	UserID        *string    `db:"user_id" json:"user_id,omitempty"`
	FirstName     string     `db:"first_name" json:"first_name"`
	LastName      string     `db:"last_name" json:"last_name"`
	Gender        *string    `db:"gender" json:"gender,omitempty"`
	DateOfBirth   *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	AdmissionDate *time.Time `db:"admission_date" json:"admission_date,omitempty"`
	Address       *string    `db:"address" json:"address,omitempty"`
	Phone         *string    `db:"phone" json:"phone,omitempty"`
	ClassID       *string    `db:"class_id" json:"class_id,omitempty"`
	SessionID     *string    `db:"session_id" json:"session_id,omitempty"`
	Active        bool       `db:"active" json:"active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name for display.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// InClass reports whether the student is currently enrolled in the class.
func (s Student) InClass(classID string) bool {
	return s.ClassID != nil && *s.ClassID == classID
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ClassID   string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
