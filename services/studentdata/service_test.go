package studentdata

import (
	"context"
	"testing"
	"time"

	"acadassist-backend/lib/catalog"
	"acadassist-backend/lib/testutil"
	"acadassist-backend/lib/transcript"
	"acadassist-backend/services/studentdata/db"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	_ "modernc.org/sqlite"
)

func setupService(t *testing.T) (Service, func()) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/studentdata",
		DbSchema: db.Schema,
	})
	service := NewService(setup.DB, nil, Options{})
	return service, cleanup
}

func seedCatalog(t *testing.T, service Service, ctx context.Context) {
	err := service.SetDepartmentCourses(ctx, "מדעי המחשב", []catalog.Course{
		{
			CourseCode:     "CS101.1",
			RealCourseCode: "10101",
			CourseName:     "מבוא למדעי המחשב",
			CourseType:     "חובה",
			CourseCredit:   "5",
			Semester:       "א",
		},
		{
			CourseCode:     "CS205.1",
			RealCourseCode: "10205",
			CourseName:     "סמינר בחירה",
			CourseType:     "בחירה",
			CourseCredit:   "3",
			Semester:       "ב",
		},
	})
	require.NoError(t, err)
	err = service.SetDepartmentCourses(ctx, "אנגלית", []catalog.Course{
		{
			CourseCode:     "EN300.1",
			RealCourseCode: "80946",
			CourseName:     "אנגלית מתקדמים",
			CourseType:     "רוח",
			CourseCredit:   "2",
			Semester:       "א",
		},
	})
	require.NoError(t, err)
}

func TestValidUsername(t *testing.T) {
	require.True(t, validUsername("Israel.Israeli"))
	require.True(t, validUsername("Anna.Maria.Cohen"))
	require.False(t, validUsername("israel.israeli"))
	require.False(t, validUsername("Israel"))
	require.False(t, validUsername("Israel..Israeli"))
	require.False(t, validUsername("Israel.Israeli'; DROP TABLE students"))
	require.False(t, validUsername("Abcdefghijklmnop.Qrstuvwxyzabcde"))
}

func TestSignupRejectsBadInput(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, err := service.Signup(ctx, SignupRequest{
		Username:   "not a username",
		Password:   "pw",
		Department: "מדעי המחשב",
	})
	require.ErrorIs(t, err, ErrInvalidUsername)

	_, err = service.Signup(ctx, SignupRequest{
		Username:   "Israel.Israeli",
		Password:   "pw",
		Department: "לימודי חלל",
	})
	require.ErrorIs(t, err, ErrUnknownDepartment)
}

func TestLoginRoundTrip(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	seedCatalog(t, service, ctx)

	hash, err := bcrypt.GenerateFromPassword([]byte("sisma123"), bcrypt.MinCost)
	require.NoError(t, err)

	summary := transcript.Normalize([]transcript.RawAttempt{
		{CourseID: "10101", GradeText: "85", CreditText: "5"},
		{CourseID: "10205", GradeText: transcript.NoValue, CreditText: "3"},
		{CourseID: "80946", GradeText: "70", CreditText: "2"},
	})
	_, err = service.saveStudent(ctx, "Israel.Israeli", string(hash), "מדעי המחשב", summary)
	require.NoError(t, err)

	profile, err := service.Login(ctx, "Israel.Israeli", "sisma123")
	require.NoError(t, err)

	require.Equal(t, "Israel", profile.Name)
	require.Equal(t, "מדעי המחשב", profile.Department)
	require.False(t, profile.IsGuest)
	require.InDelta(t, 80.71, profile.GPA, 0.01)
	require.Equal(t, float64(7), profile.Credits.Completed)
	require.Equal(t, float64(120), profile.Credits.Required)
	require.Equal(t, float64(3), profile.Credits.Enrolled)

	require.Len(t, profile.CompletedCourses, 2)
	require.Len(t, profile.EnrolledCourses, 1)
	require.Equal(t, "CS205.1", profile.EnrolledCourses[0].CourseCode)
	require.Equal(t, float64(5), profile.RemainingRequirements.Mandatory)
	require.Equal(t, float64(2), profile.RemainingRequirements.General)

	_, err = service.Login(ctx, "Israel.Israeli", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = service.Login(ctx, "Nosuch.Student", "sisma123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshReplacesLedger(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	seedCatalog(t, service, ctx)
	hash, err := bcrypt.GenerateFromPassword([]byte("sisma123"), bcrypt.MinCost)
	require.NoError(t, err)

	stale := transcript.Normalize([]transcript.RawAttempt{
		{CourseID: "10999", GradeText: "70", CreditText: "4"},
	})
	student, err := service.saveStudent(ctx, "Israel.Israeli", string(hash), "מדעי המחשב", stale)
	require.NoError(t, err)

	fresh := transcript.Normalize([]transcript.RawAttempt{
		{CourseID: "10101", GradeText: "85", CreditText: "5"},
		{CourseID: "10205", GradeText: transcript.NoValue, CreditText: "3"},
	})
	updated, err := service.replaceLedger(ctx, student, fresh)
	require.NoError(t, err)
	require.Equal(t, 85.0, updated.Gpa)
	require.Equal(t, 5.0, updated.CompletedCredits)

	rows, err := service.qry.GetStudentCourses(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.NotEqual(t, "10999", row.CourseCode)
	}

	profile, err := service.Login(ctx, "Israel.Israeli", "sisma123")
	require.NoError(t, err)
	require.Equal(t, 85.0, profile.GPA)
	require.Len(t, profile.CompletedCourses, 1)
	require.Len(t, profile.EnrolledCourses, 1)

	// bad credentials are rejected before the portal is contacted
	_, err = service.Refresh(ctx, "Israel.Israeli", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = service.Refresh(ctx, "Nosuch.Student", "sisma123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGuest(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()

	profile, err := service.Guest(context.Background())
	require.NoError(t, err)
	require.True(t, profile.IsGuest)
	require.Equal(t, GuestDepartment, profile.Department)
	require.NotEmpty(t, profile.ID)
	require.Equal(t, catalog.RequiredCredits[GuestDepartment], profile.Credits.Required)

	other, err := service.Guest(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, profile.ID, other.ID)
}

func TestDepartmentCourses(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	seedCatalog(t, service, ctx)

	courses, err := service.DepartmentCourses(ctx, "מדעי המחשב", true)
	require.NoError(t, err)
	require.Len(t, courses, 3)

	courses, err = service.DepartmentCourses(ctx, "מדעי המחשב", false)
	require.NoError(t, err)
	require.Len(t, courses, 2)

	_, err = service.DepartmentCourses(ctx, "לימודי חלל", true)
	require.ErrorIs(t, err, ErrUnknownDepartment)

	err = service.SetDepartmentCourses(ctx, "לימודי חלל", nil)
	require.ErrorIs(t, err, ErrUnknownDepartment)
}

func TestCatalogRefreshInvalidatesSnapshot(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	seedCatalog(t, service, ctx)

	snap, err := service.snapshotFor(ctx, "מדעי המחשב")
	require.NoError(t, err)
	_, ok := snap.Match("10205")
	require.True(t, ok)

	err = service.SetDepartmentCourses(ctx, "מדעי המחשב", []catalog.Course{
		{
			CourseCode:     "CS101.1",
			RealCourseCode: "10101",
			CourseName:     "מבוא למדעי המחשב",
			CourseType:     "חובה",
			CourseCredit:   "5",
			Semester:       "א",
		},
	})
	require.NoError(t, err)

	snap, err = service.snapshotFor(ctx, "מדעי המחשב")
	require.NoError(t, err)
	_, ok = snap.Match("10205")
	require.False(t, ok)
	// general-studies rows survive a department refresh
	_, ok = snap.Match("80946")
	require.True(t, ok)
}

func TestSchedules(t *testing.T) {
	service, cleanup := setupService(t)
	defer cleanup()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	seedCatalog(t, service, ctx)
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	student, err := service.saveStudent(ctx, "Israel.Israeli", string(hash), "מדעי המחשב", transcript.Summary{})
	require.NoError(t, err)

	var firstId string
	for i := 0; i < MaxSavedSchedules; i++ {
		schedule, err := service.CreateSchedule(ctx, student.ID, "", []byte(`{"slots":[]}`))
		require.NoError(t, err)
		require.Equal(t, "Unnamed Schedule", schedule.Name)
		if i == 0 {
			firstId = schedule.ID
		}
	}

	_, err = service.CreateSchedule(ctx, student.ID, "one too many", []byte(`{}`))
	require.ErrorIs(t, err, ErrScheduleLimit)

	schedules, err := service.StudentSchedules(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, schedules, MaxSavedSchedules)

	loaded, err := service.Schedule(ctx, firstId)
	require.NoError(t, err)
	require.JSONEq(t, `{"slots":[]}`, string(loaded.Data))

	require.NoError(t, service.DeleteSchedule(ctx, firstId))
	require.ErrorIs(t, service.DeleteSchedule(ctx, firstId), ErrNotFound)
	_, err = service.Schedule(ctx, firstId)
	require.ErrorIs(t, err, ErrNotFound)

	// the freed slot can be reused
	_, err = service.CreateSchedule(ctx, student.ID, "replacement", []byte(`{}`))
	require.NoError(t, err)
}
