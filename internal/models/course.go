package models

import "time"

// Course is a unit of study offered to classes.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseSummary is the compact projection used in class views.
type CourseSummary struct {
	ID   string `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// CourseFilter defines filter criteria for listing courses.
type CourseFilter struct {
	Search    string
	TeacherID string
	Page      int
	PageSize  int
}
