package catalog

import (
	"strconv"
	"strings"

	"acadassist-backend/lib/transcript"
)

type CompletedCourse struct {
	CourseID string  `json:"courseId"`
	Grade    float64 `json:"grade"`
}

type EnrolledCourse struct {
	CourseName   string  `json:"courseName"`
	CourseCredit float64 `json:"courseCredit"`
	CourseType   string  `json:"courseType"`
	CourseCode   string  `json:"courseCode"`
	Semester     string  `json:"semester"`
}

// CreditTotals buckets completed credit by course type. The buckets
// are not mutually exclusive, a type string carrying several tags
// counts its credit in each of them.
type CreditTotals struct {
	Mandatory float64 `json:"mandatory"`
	Elective  float64 `json:"elective"`
	General   float64 `json:"general"`
}

type Summary struct {
	Completed           []CompletedCourse `json:"completedCourses"`
	Enrolled            []EnrolledCourse  `json:"enrolledCourses"`
	CreditTotals        CreditTotals      `json:"creditTotals"`
	EnrolledCreditTotal float64           `json:"enrolledCreditTotal"`
}

func parseCredit(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// Categorize splits a normalized transcript into completed and
// currently-enrolled courses using the catalog snapshot. Records that
// match neither the catalog nor the legacy table are left out, they
// are not an error (external electives, administrative entries).
func Categorize(summary transcript.Summary, snap *Snapshot) Summary {
	var out Summary

	for _, record := range summary.Records {
		matched, ok := snap.Match(record.CourseID)
		if !ok {
			continue
		}
		credit := parseCredit(matched.CourseCredit)

		if record.Grade != nil {
			courseId := matched.RealCourseCode
			if courseId == "" {
				courseId = record.CourseID
			}
			out.Completed = append(out.Completed, CompletedCourse{
				CourseID: courseId,
				Grade:    *record.Grade,
			})

			if strings.Contains(matched.CourseType, TagMandatory) {
				out.CreditTotals.Mandatory += credit
			}
			if strings.Contains(matched.CourseType, TagElective) {
				out.CreditTotals.Elective += credit
			}
			if strings.Contains(matched.CourseType, TagGeneral) {
				out.CreditTotals.General += credit
			}
			continue
		}

		courseCode := matched.CourseCode
		if courseCode == "" {
			courseCode = matched.RealCourseCode
		}
		if courseCode == "" {
			courseCode = record.CourseID
		}
		out.Enrolled = append(out.Enrolled, EnrolledCourse{
			CourseName:   matched.CourseName,
			CourseCredit: credit,
			CourseType:   matched.CourseType,
			CourseCode:   courseCode,
			Semester:     matched.Semester,
		})
		out.EnrolledCreditTotal += credit
	}

	return out
}
