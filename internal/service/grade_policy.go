package service

// gradeBands is ordered from the highest threshold down.
var gradeBands = []struct {
	min   float64
	grade string
}{
	{90, "A+"},
	{80, "A"},
	{70, "B"},
	{60, "C"},
	{50, "D"},
}

const failingGrade = "F"

// GradeOf maps a score in [0,100] to its letter grade.
func GradeOf(score float64) string {
	for _, band := range gradeBands {
		if score >= band.min {
			return band.grade
		}
	}
	return failingGrade
}

// GradeRank orders letters so that a higher rank is a better grade. Unknown
// letters rank below F.
func GradeRank(grade string) int {
	if grade == failingGrade {
		return 0
	}
	for i, band := range gradeBands {
		if band.grade == grade {
			return len(gradeBands) - i
		}
	}
	return -1
}
