package models

import "time"

// ExamResult is a scored, graded record for one exam instance.
type ExamResult struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	ExamType  string    `db:"exam_type" json:"exam_type"`
	ExamDate  time.Time `db:"exam_date" json:"exam_date"`
	Score     float64   `db:"score" json:"score"`
	Grade     string    `db:"grade" json:"grade"`
	Remarks   *string   `db:"remarks" json:"remarks,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ExamResultDetail joins display names onto a result row.
type ExamResultDetail struct {
	ExamResult
	StudentName string `db:"student_name" json:"student_name"`
	ClassName   string `db:"class_name" json:"class_name"`
	CourseName  string `db:"course_name" json:"course_name"`
}

// ExamResultFilter narrows result listings.
type ExamResultFilter struct {
	ClassID   string
	ClassIDs  []string
	CourseID  string
	StudentID string
	ExamType  string
	ExamDate  *time.Time
	Page      int
	PageSize  int
}
