package catalog

import (
	"testing"

	"acadassist-backend/lib/transcript"

	"github.com/stretchr/testify/require"
)

func gradeOf(v float64) *float64 {
	return &v
}

func testSnapshot() *Snapshot {
	courses := []Course{
		{
			CourseCode:     "CS-101",
			RealCourseCode: "10101",
			CourseName:     "מבוא למדעי המחשב",
			CourseType:     "חובה",
			CourseCredit:   "5",
			Semester:       "א",
			Groups:         []Group{{GroupCode: "01", Lecturer: "דר כהן"}},
		},
		{
			CourseCode:     "CS-305",
			RealCourseCode: "10305",
			CourseName:     "למידת מכונה",
			CourseType:     "בחירה",
			CourseCredit:   "3",
			Semester:       "ב",
		},
		{
			CourseCode:     "HU-201",
			RealCourseCode: "80201",
			CourseName:     "פילוסופיה של המדע",
			CourseType:     "רוח בחירה",
			CourseCredit:   "2",
			Semester:       "ב",
		},
	}
	return NewSnapshot(courses, DefaultLegacyOverrides())
}

func TestCategorizeCompletedAndEnrolled(t *testing.T) {
	snap := testSnapshot()

	summary := transcript.Summary{
		Records: []transcript.CourseRecord{
			{CourseID: "10101", Grade: gradeOf(88), Credits: 5},
			{CourseID: "10305", Grade: nil, Credits: 3},
		},
	}

	out := Categorize(summary, snap)

	require.Len(t, out.Completed, 1)
	require.Equal(t, "10101", out.Completed[0].CourseID)
	require.Equal(t, 88.0, out.Completed[0].Grade)
	require.Equal(t, 5.0, out.CreditTotals.Mandatory)

	require.Len(t, out.Enrolled, 1)
	require.Equal(t, "למידת מכונה", out.Enrolled[0].CourseName)
	require.Equal(t, "CS-305", out.Enrolled[0].CourseCode)
	require.Equal(t, 3.0, out.EnrolledCreditTotal)
}

func TestCategorizeLegacyOverride(t *testing.T) {
	snap := testSnapshot()

	out := Categorize(transcript.Summary{
		Records: []transcript.CourseRecord{
			{CourseID: "10006", Grade: gradeOf(75), Credits: 5},
		},
	}, snap)

	require.Len(t, out.Completed, 1)
	require.Equal(t, "10006", out.Completed[0].CourseID)
	require.Equal(t, 5.0, out.CreditTotals.Mandatory)
	require.Equal(t, 0.0, out.CreditTotals.Elective)
}

func TestCategorizeLegacyOverrideUngraded(t *testing.T) {
	snap := testSnapshot()

	out := Categorize(transcript.Summary{
		Records: []transcript.CourseRecord{
			{CourseID: "10006", Credits: 5},
		},
	}, snap)

	require.Empty(t, out.Completed)
	require.Len(t, out.Enrolled, 1)
	require.Equal(t, "Unknown Course", out.Enrolled[0].CourseName)
	require.Equal(t, "10006", out.Enrolled[0].CourseCode)
	require.Equal(t, 5.0, out.EnrolledCreditTotal)
}

func TestCategorizeOverlappingBuckets(t *testing.T) {
	snap := testSnapshot()

	out := Categorize(transcript.Summary{
		Records: []transcript.CourseRecord{
			{CourseID: "80201", Grade: gradeOf(92), Credits: 2},
		},
	}, snap)

	// "רוח בחירה" carries both tags, the credit lands in both buckets
	require.Equal(t, 2.0, out.CreditTotals.General)
	require.Equal(t, 2.0, out.CreditTotals.Elective)
	require.Equal(t, 0.0, out.CreditTotals.Mandatory)
}

func TestCategorizeUnmatchedExcluded(t *testing.T) {
	snap := testSnapshot()

	out := Categorize(transcript.Summary{
		Records: []transcript.CourseRecord{
			{CourseID: "99999", Grade: gradeOf(100), Credits: 4},
		},
	}, snap)

	require.Empty(t, out.Completed)
	require.Empty(t, out.Enrolled)
	require.Equal(t, CreditTotals{}, out.CreditTotals)
}

func TestMatchDropsGroups(t *testing.T) {
	snap := testSnapshot()

	matched, ok := snap.Match("10101")
	require.True(t, ok)
	require.Nil(t, matched.Groups)
}

func TestResolveDepartment(t *testing.T) {
	got, ok := ResolveDepartment("מדעי המחשב")
	require.True(t, ok)
	require.Equal(t, "מדעי המחשב", got)

	got, ok = ResolveDepartment("מדעי  המחשב")
	require.True(t, ok)
	require.Equal(t, "מדעי המחשב", got)

	_, ok = ResolveDepartment("אדריכלות")
	require.False(t, ok)
}
