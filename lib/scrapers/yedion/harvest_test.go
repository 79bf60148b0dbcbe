package yedion

import (
	"bytes"
	"context"
	"testing"

	"acadassist-backend/lib/telemetry"
	"acadassist-backend/lib/transcript"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	_ "embed"
)

//go:embed testdata/grades_report.html
var gradesReportFixture []byte

func fixtureSource(t *testing.T) ReportSource {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(gradesReportFixture))
	if err != nil {
		t.Fatal(err)
	}
	return NewReportSource(doc)
}

func TestHarvestFixture(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/yedion")
	defer cleanup()

	attempts, err := Harvest(context.Background(), fixtureSource(t))
	require.NoError(t, err)

	expected := []transcript.RawAttempt{
		{CourseID: "10101", GradeText: "85", CreditText: "5"},
		{CourseID: "10102", GradeText: "N/A", CreditText: "4"},
		{CourseID: "10101", GradeText: "91", CreditText: "5"},
		{CourseID: "80946", GradeText: "70", CreditText: "2"},
	}
	require.Equal(t, expected, attempts)
}

func TestHarvestSkipsUnscorableBlocks(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/yedion")
	defer cleanup()

	attempts, err := Harvest(context.Background(), fixtureSource(t))
	require.NoError(t, err)

	// the lab-only sub-block carries no final-lecture marker, the
	// 10244 sub-block has the marker but no grade element, and the
	// section without a title is skipped wholesale
	for _, attempt := range attempts {
		require.NotEqual(t, "10244", attempt.CourseID)
		require.NotEqual(t, "99999", attempt.CourseID)
	}
}

func TestHarvestMissingRoot(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString("<html><body></body></html>"))
	require.NoError(t, err)

	_, err = Harvest(context.Background(), NewReportSource(doc))
	require.Error(t, err)
}

func TestHarvestThenNormalize(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/yedion")
	defer cleanup()

	attempts, err := Harvest(context.Background(), fixtureSource(t))
	require.NoError(t, err)

	summary := transcript.Normalize(attempts)

	// the retake of 10101 supersedes the first attempt
	require.Len(t, summary.Records, 3)
	require.Equal(t, 91.0, *summary.Records[0].Grade)
	// 10102 is ungraded: load only
	require.Nil(t, summary.Records[1].Grade)
	require.Equal(t, 11.0, summary.TotalCredits)
	require.Equal(t, 7.0, summary.CompletedCredits)
	// (91*5 + 70*2) / 7
	require.Equal(t, 85.0, summary.GPA)
}
