package dto

// ResultReportQuery narrows a results report.
type ResultReportQuery struct {
	ExamType string `form:"examType" validate:"omitempty,max=50"`
	ExamDate string `form:"examDate" validate:"omitempty,datetime=2006-01-02"`
}

// ResultReport lists every matching result for a class or student with its average.
type ResultReport struct {
	SubjectID    string           `json:"subjectId"`
	SubjectName  string           `json:"subjectName"`
	Count        int              `json:"count"`
	AverageScore float64          `json:"averageScore"`
	AverageGrade string           `json:"averageGrade,omitempty"`
	Results      []ExamResultView `json:"results"`
}
