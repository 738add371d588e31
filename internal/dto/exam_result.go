package dto

// ExamResultRequest creates or replaces an exam result.
type ExamResultRequest struct {
	StudentID string   `json:"studentId" validate:"required"`
	ClassID   string   `json:"classId" validate:"required"`
	CourseID  string   `json:"courseId" validate:"required"`
	ExamType  string   `json:"examType" validate:"required,max=50"`
	ExamDate  string   `json:"examDate" validate:"required,datetime=2006-01-02"`
	Score     *float64 `json:"score" validate:"required"`
	Remarks   *string  `json:"remarks,omitempty" validate:"omitempty,max=255"`
}

// ExamResultQuery filters result listings.
type ExamResultQuery struct {
	ClassID   string `form:"classId"`
	CourseID  string `form:"courseId"`
	StudentID string `form:"studentId"`
	ExamType  string `form:"examType"`
	ExamDate  string `form:"examDate" validate:"omitempty,datetime=2006-01-02"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// ExamResultView is the display form of a stored result.
type ExamResultView struct {
	ID          string  `json:"id"`
	StudentID   string  `json:"studentId"`
	StudentName string  `json:"studentName"`
	ClassID     string  `json:"classId"`
	ClassName   string  `json:"className"`
	CourseID    string  `json:"courseId"`
	CourseName  string  `json:"courseName"`
	ExamType    string  `json:"examType"`
	ExamDate    string  `json:"examDate"`
	Score       float64 `json:"score"`
	Grade       string  `json:"grade"`
	Remarks     *string `json:"remarks,omitempty"`
}
