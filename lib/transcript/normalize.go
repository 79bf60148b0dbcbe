package transcript

import (
	"math"
	"strconv"
	"strings"
)

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == NoValue {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Normalize recomputes a whole Summary from a harvested attempt
// sequence. Attempts are deduplicated by course id with the attempt
// encountered last winning (a retake supersedes the original), except
// that attempts with blank credit text are dropped outright and can
// never win. The GPA is credit-weighted over passing grades only.
func Normalize(attempts []RawAttempt) Summary {
	byCourse := map[string]RawAttempt{}
	var order []string
	for _, attempt := range attempts {
		if isBlank(attempt.CreditText) {
			continue
		}
		if _, seen := byCourse[attempt.CourseID]; !seen {
			order = append(order, attempt.CourseID)
		}
		byCourse[attempt.CourseID] = attempt
	}

	var summary Summary
	var numerator float64

	for _, courseId := range order {
		attempt := byCourse[courseId]
		credits, _ := parseNumber(attempt.CreditText)

		record := CourseRecord{
			CourseID: courseId,
			Credits:  credits,
		}

		switch {
		case isBlank(attempt.GradeText) || attempt.GradeText == NoValue:
			// ungraded: in progress, counts toward the total load only
			summary.TotalCredits += credits
		default:
			grade, ok := parseNumber(attempt.GradeText)
			if !ok {
				// grade text present but not numeric: expected data
				// noise, keep the record but leave it out of every total
				break
			}
			record.Grade = &grade
			summary.TotalCredits += credits
			if grade >= PassThreshold {
				summary.CompletedCredits += credits
				numerator += grade * credits
			}
		}

		summary.Records = append(summary.Records, record)
	}

	if summary.CompletedCredits > 0 {
		summary.GPA = math.Round(numerator/summary.CompletedCredits*100) / 100
	}
	return summary
}
