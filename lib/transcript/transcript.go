// Package transcript turns the raw per-attempt records harvested from
// the grades report into a normalized academic ledger.
package transcript

// NoValue is the sentinel the field extractors emit when a label
// string does not carry the expected marker.
const NoValue = "N/A"

// PassThreshold is the minimum grade counted as completing a course.
const PassThreshold = 60

// RawAttempt is one recorded instance of a student taking a course in
// one semester. A course retaken across semesters produces multiple
// attempts sharing a CourseID.
type RawAttempt struct {
	CourseID   string
	GradeText  string
	CreditText string
}

// CourseRecord is the single surviving record for a course after
// attempt deduplication. Grade is nil when the course is ungraded
// (in progress) or its grade text could not be parsed.
type CourseRecord struct {
	CourseID string
	Grade    *float64
	Credits  float64
}

type Summary struct {
	Records          []CourseRecord
	GPA              float64
	CompletedCredits float64
	TotalCredits     float64
}
