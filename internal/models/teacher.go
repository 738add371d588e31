package models

import (
	"strings"
	"time"
)

// Teacher represents an instructor record.
type Teacher struct {
	ID             string    `db:"id" json:"id"`
	UserID         *string   `db:"user_id" json:"user_id,omitempty"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Email          string    `db:"email" json:"email"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	Specialization *string   `db:"specialization" json:"specialization,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name for display.
func (t Teacher) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// TeacherSummary is the compact projection used in class views.
type TeacherSummary struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
