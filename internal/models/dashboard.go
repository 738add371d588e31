package models

// AdminDashboard holds entity totals.
type AdminDashboard struct {
	Classes         int `db:"classes" json:"classes"`
	Teachers        int `db:"teachers" json:"teachers"`
	Students        int `db:"students" json:"students"`
	Courses         int `db:"courses" json:"courses"`
	ExamResults     int `db:"exam_results" json:"exam_results"`
	AttendanceMarks int `db:"attendance_marks" json:"attendance_marks"`
}

// TeacherDashboard summarises the classes a teacher is assigned to.
type TeacherDashboard struct {
	TeacherID   string `db:"-" json:"teacher_id"`
	Classes     int    `db:"classes" json:"classes"`
	Students    int    `db:"students" json:"students"`
	ExamResults int    `db:"exam_results" json:"exam_results"`
}

// CourseAverage is the mean score of a student in one course.
type CourseAverage struct {
	CourseID   string  `db:"course_id" json:"course_id"`
	CourseName string  `db:"course_name" json:"course_name"`
	Average    float64 `db:"average" json:"average"`
	Exams      int     `db:"exams" json:"exams"`
}

// StudentDashboard is a student's own progress overview.
type StudentDashboard struct {
	StudentID         string          `json:"student_id"`
	ExamResults       int             `json:"exam_results"`
	AverageScore      float64         `json:"average_score"`
	AverageGrade      string          `json:"average_grade"`
	AttendancePercent float64         `json:"attendance_percent"`
	Courses           []CourseAverage `json:"courses"`
}
