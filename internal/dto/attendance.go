package dto

import "github.com/noah-isme/academic-records-api/internal/models"

// AttendanceEntry is one student line of a marking request.
type AttendanceEntry struct {
	StudentID string  `json:"studentId" validate:"required"`
	Present   bool    `json:"present"`
	Remarks   *string `json:"remarks,omitempty" validate:"omitempty,max=255"`
}

// MarkAttendanceRequest records a roster for one class, course, period and date.
type MarkAttendanceRequest struct {
	ClassID  string            `json:"classId" validate:"required"`
	CourseID string            `json:"courseId" validate:"required"`
	PeriodID string            `json:"periodId" validate:"required"`
	Date     string            `json:"date" validate:"required,datetime=2006-01-02"`
	Students []AttendanceEntry `json:"students" validate:"required,min=1,dive"`
}

// AttendanceQuery filters a session listing.
type AttendanceQuery struct {
	ClassID  string `form:"classId" validate:"required"`
	CourseID string `form:"courseId"`
	PeriodID string `form:"periodId"`
	Date     string `form:"date" validate:"omitempty,datetime=2006-01-02"`
}

// AttendanceHistoryQuery bounds a student history listing.
type AttendanceHistoryQuery struct {
	From string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

// AttendanceView is the display form of one stored mark.
type AttendanceView struct {
	ID           string  `json:"id"`
	StudentID    string  `json:"studentId"`
	StudentName  string  `json:"studentName"`
	ClassID      string  `json:"classId"`
	ClassName    string  `json:"className"`
	CourseID     string  `json:"courseId"`
	CourseName   string  `json:"courseName"`
	PeriodID     string  `json:"periodId"`
	PeriodName   string  `json:"periodName"`
	Date         string  `json:"date"`
	Present      bool    `json:"present"`
	Remarks      *string `json:"remarks,omitempty"`
	MarkedBy     *string `json:"markedBy,omitempty"`
	MarkedByName *string `json:"markedByName,omitempty"`
}

// StudentAttendanceHistory pairs a student's marks with their summary.
type StudentAttendanceHistory struct {
	StudentID string                   `json:"studentId"`
	Summary   models.AttendanceSummary `json:"summary"`
	Records   []AttendanceView         `json:"records"`
}
