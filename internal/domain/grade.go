package domain

// Grade is the qualitative rating of a finished session.
type Grade string

const (
	GradeMaster         Grade = "Master"
	GradeExcellent      Grade = "Excellent"
	GradeGreat          Grade = "Great"
	GradeGood           Grade = "Good"
	GradePracticeNeeded Grade = "Practice Needed"
)

// GradeFor maps a 0-100 percentage onto a grade.
func GradeFor(percentage float64) Grade {
	switch {
	case percentage >= 95:
		return GradeMaster
	case percentage >= 85:
		return GradeExcellent
	case percentage >= 75:
		return GradeGreat
	case percentage >= 60:
		return GradeGood
	default:
		return GradePracticeNeeded
	}
}

// Percentage returns correct/answered*100, or 0 when nothing was answered.
func Percentage(correct, answered int) float64 {
	if answered <= 0 {
		return 0
	}
	return float64(correct) / float64(answered) * 100
}
