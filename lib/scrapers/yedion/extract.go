package yedion

import (
	"regexp"

	"acadassist-backend/lib/transcript"
)

// The grades report renders course fields as free text labels, not
// structured markup. These extractors tolerate any input and fall
// back to the "N/A" sentinel when a marker is missing.

var gradePattern = regexp.MustCompile(`ציון:\s*(\d+)`)
var creditPattern = regexp.MustCompile(`נ"ז (\d+(\.\d+)?)`)
var courseIdPattern = regexp.MustCompile(`^(\d+)`)

// ExtractGrade pulls the numeric grade out of a "ציון: <n>" label.
func ExtractGrade(text string) string {
	match := gradePattern.FindStringSubmatch(text)
	if match == nil {
		return transcript.NoValue
	}
	return match[1]
}

// ExtractCreditWeight pulls the credit-unit weight out of a
// `נ"ז <n[.n]>` label.
func ExtractCreditWeight(text string) string {
	match := creditPattern.FindStringSubmatch(text)
	if match == nil {
		return transcript.NoValue
	}
	return match[1]
}

// ExtractCourseID returns the digit run a course title starts with,
// which is the course identifier on the report.
func ExtractCourseID(text string) string {
	match := courseIdPattern.FindStringSubmatch(text)
	if match == nil {
		return transcript.NoValue
	}
	return match[1]
}
