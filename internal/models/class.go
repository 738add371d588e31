package models

import "time"

// Class represents a cohort of students sharing a name.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with its relationship projections.
type ClassDetail struct {
	Class
	Teachers     []TeacherSummary `json:"teachers"`
	Courses      []CourseSummary  `json:"courses"`
	StudentCount int              `json:"student_count"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ClassTeacher is one edge of the teacher/class assignment graph.
type ClassTeacher struct {
	ClassID   string    `db:"class_id" json:"class_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClassSummary is the compact projection used in teacher views.
type ClassSummary struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
