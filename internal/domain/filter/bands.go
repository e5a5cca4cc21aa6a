package filter

// Performance band labels.
const (
	PerfExcellent        = "Excellent"
	PerfGood             = "Good"
	PerfAverage          = "Average"
	PerfNeedsImprovement = "Needs Improvement"
)

// Attendance band labels.
const (
	AttendanceExcellent = "Excellent"
	AttendanceGood      = "Good"
	AttendanceReview    = "Review"
	AttendanceAlert     = "Alert"
)

// band is a half-open lower bound; the last band of a scale catches the rest.
type band struct {
	label string
	min   float64
}

// Ordered top-down; first match wins.
var (
	performanceScale = []band{
		{PerfExcellent, 90},
		{PerfGood, 75},
		{PerfAverage, 60},
	}
	attendanceScale = []band{
		{AttendanceExcellent, 95},
		{AttendanceGood, 85},
		{AttendanceReview, 70},
	}
)

func classify(scale []band, fallback string, v float64) string {
	for _, b := range scale {
		if v >= b.min {
			return b.label
		}
	}
	return fallback
}

// PerformanceBand classifies an effective score.
func PerformanceBand(score float64) string {
	return classify(performanceScale, PerfNeedsImprovement, score)
}

// AttendanceBand classifies an attendance rate.
func AttendanceBand(rate float64) string {
	return classify(attendanceScale, AttendanceAlert, rate)
}

// PerformanceBands lists performance labels from best to worst.
func PerformanceBands() []string {
	return []string{PerfExcellent, PerfGood, PerfAverage, PerfNeedsImprovement}
}

// AttendanceBands lists attendance labels from best to worst.
func AttendanceBands() []string {
	return []string{AttendanceExcellent, AttendanceGood, AttendanceReview, AttendanceAlert}
}
