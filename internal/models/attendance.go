package models

import "time"

// Attendance is one mark per (student, class, course, period, date).
type Attendance struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	ClassID        string    `db:"class_id" json:"class_id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	PeriodID       string    `db:"period_id" json:"period_id"`
	AttendanceDate time.Time `db:"attendance_date" json:"attendance_date"`
	Present        bool      `db:"present" json:"present"`
	Remarks        *string   `db:"remarks" json:"remarks,omitempty"`
	MarkedBy       *string   `db:"marked_by" json:"marked_by,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceDetail joins display names onto an attendance row.
type AttendanceDetail struct {
	Attendance
	StudentName  string  `db:"student_name" json:"student_name"`
	ClassName    string  `db:"class_name" json:"class_name"`
	CourseName   string  `db:"course_name" json:"course_name"`
	PeriodNumber int     `db:"period_number" json:"period_number"`
	MarkedByName *string `db:"marked_by_name" json:"marked_by_name,omitempty"`
}

// AttendanceFilter narrows attendance listings.
type AttendanceFilter struct {
	ClassID   string
	CourseID  string
	PeriodID  string
	StudentID string
	Date      *time.Time
	DateFrom  *time.Time
	DateTo    *time.Time
}

// AttendanceSummary aggregates marks for a student.
type AttendanceSummary struct {
	Present int     `db:"present" json:"present"`
	Absent  int     `db:"absent" json:"absent"`
	Total   int     `db:"total" json:"total"`
	Percent float64 `db:"-" json:"percent"`
}
