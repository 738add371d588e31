package models

import (
	"fmt"
	"time"
)

// Period is a scheduled slot pairing a class with a course.
type Period struct {
	ID           string    `db:"id" json:"id"`
	ClassID      string    `db:"class_id" json:"class_id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	DayOfWeek    string    `db:"day_of_week" json:"day_of_week"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	PeriodNumber int       `db:"period_number" json:"period_number"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// BelongsTo reports whether the period pairs the given class and course.
func (p Period) BelongsTo(classID, courseID string) bool {
	return p.ClassID == classID && p.CourseID == courseID
}

// Label renders the display name used in attendance views.
func (p Period) Label(courseName string) string {
	return fmt.Sprintf("Period %d - %s", p.PeriodNumber, courseName)
}

// PeriodFilter narrows period listings.
type PeriodFilter struct {
	ClassID   string
	CourseID  string
	DayOfWeek string
}
