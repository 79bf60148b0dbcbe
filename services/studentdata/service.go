// Package studentdata owns student accounts: signing up against the
// live portal, logging in against stored records, and serving the
// categorized degree progress the frontend renders.
package studentdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"acadassist-backend/lib/catalog"
	"acadassist-backend/lib/notify"
	"acadassist-backend/lib/scrapers/yedion"
	"acadassist-backend/lib/timezone"
	"acadassist-backend/lib/transcript"
	"acadassist-backend/services/studentdata/db"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidUsername    = errors.New("username must be in the format Firstname.Lastname")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrUnknownDepartment  = errors.New("unknown department")
	ErrScheduleLimit      = errors.New("maximum saved schedules reached")
	ErrNotFound           = errors.New("not found")
)

// usernamePattern accepts dot-separated capitalized name segments,
// which is the only shape the portal issues.
var usernamePattern = regexp.MustCompile(`^([A-Z][a-z]+\.){1,4}[A-Z][a-z]+$`)

func validUsername(username string) bool {
	return len(username) <= 30 && usernamePattern.MatchString(username)
}

const defaultScrapeTimeout = time.Minute * 3

type Options struct {
	// ScrapeTimeout bounds one full portal scrape, login through
	// report harvest. Zero means defaultScrapeTimeout.
	ScrapeTimeout time.Duration
	Mailer        *notify.Mailer
}

type Service struct {
	db            *sql.DB
	qry           *db.Queries
	portal        *yedion.Client
	mailer        *notify.Mailer
	scrapeTimeout time.Duration
	snapshots     *snapshotCache
}

func NewService(database *sql.DB, portal *yedion.Client, opts Options) Service {
	if opts.ScrapeTimeout <= 0 {
		opts.ScrapeTimeout = defaultScrapeTimeout
	}
	return Service{
		db:            database,
		qry:           db.New(database),
		portal:        portal,
		mailer:        opts.Mailer,
		scrapeTimeout: opts.ScrapeTimeout,
		snapshots:     newSnapshotCache(),
	}
}

type Credits struct {
	Completed float64 `json:"completed"`
	Required  float64 `json:"required"`
	Enrolled  float64 `json:"enrolled"`
}

type Profile struct {
	ID                    string                    `json:"id"`
	Username              string                    `json:"username"`
	Name                  string                    `json:"name"`
	Department            string                    `json:"department"`
	IsGuest               bool                      `json:"isGuest,omitempty"`
	CompletedCourses      []catalog.CompletedCourse `json:"completedCourses"`
	EnrolledCourses       []catalog.EnrolledCourse  `json:"enrolledCourses"`
	Credits               Credits                   `json:"credits"`
	GPA                   float64                   `json:"gpa"`
	RemainingRequirements catalog.CreditTotals      `json:"remainingRequirements"`
}

// ScrapeTranscript runs a full portal session for the given
// credentials and returns the normalized ledger. The session runs on
// its own deadline detached from the caller, abandoning the request
// does not orphan a half-open portal session.
func (s Service) ScrapeTranscript(ctx context.Context, username, password string) (transcript.Summary, error) {
	ctx, span := tracer.Start(ctx, "ScrapeTranscript")
	defer span.End()
	span.SetAttributes(attribute.String("username", username))

	type result struct {
		summary transcript.Summary
		err     error
	}
	resultCh := make(chan result, 1)

	workerCtx, cancel := context.WithTimeout(
		context.WithoutCancel(ctx), s.scrapeTimeout,
	)
	go func() {
		defer cancel()
		summary, err := s.scrapeOnce(workerCtx, username, password)
		resultCh <- result{summary: summary, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			span.RecordError(res.err)
			span.SetStatus(codes.Error, res.err.Error())
		}
		return res.summary, res.err
	case <-ctx.Done():
		span.SetStatus(codes.Error, ctx.Err().Error())
		return transcript.Summary{}, ctx.Err()
	}
}

func (s Service) scrapeOnce(ctx context.Context, username, password string) (transcript.Summary, error) {
	session, err := s.portal.OpenSession(ctx)
	if err != nil {
		return transcript.Summary{}, err
	}
	defer session.Close()

	err = session.Login(ctx, username, password)
	if err != nil {
		return transcript.Summary{}, err
	}

	report, err := session.OpenGradesReport(ctx)
	if err != nil {
		if !errors.Is(err, yedion.ErrAuthenticationFailed) {
			s.mailer.ScrapeFailure(username, err)
		}
		return transcript.Summary{}, err
	}

	attempts, err := yedion.Harvest(ctx, yedion.NewReportSource(report))
	if err != nil {
		s.mailer.ScrapeFailure(username, err)
		return transcript.Summary{}, err
	}

	return transcript.Normalize(attempts), nil
}

type SignupRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Department string `json:"department"`
}

// Signup verifies the credentials against the live portal, persists
// the scraped ledger, and returns the same profile Login would.
func (s Service) Signup(ctx context.Context, req SignupRequest) (Profile, error) {
	ctx, span := tracer.Start(ctx, "Signup")
	defer span.End()
	span.SetAttributes(attribute.String("username", req.Username))

	if !validUsername(req.Username) {
		return Profile{}, ErrInvalidUsername
	}
	department, ok := catalog.ResolveDepartment(req.Department)
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownDepartment, req.Department)
	}

	exists, err := s.qry.StudentExists(ctx, req.Username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Profile{}, err
	}
	if exists {
		return Profile{}, ErrUsernameTaken
	}

	summary, err := s.ScrapeTranscript(ctx, req.Username, req.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Profile{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Profile{}, err
	}

	student, err := s.saveStudent(ctx, req.Username, string(hash), department, summary)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Profile{}, err
	}

	slog.InfoContext(ctx, "student signed up", "username", req.Username, "department", department)
	return s.buildProfile(ctx, student, summary.Records)
}

func (s Service) saveStudent(
	ctx context.Context,
	username, passwordHash, department string,
	summary transcript.Summary,
) (db.Student, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return db.Student{}, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	student := db.Student{
		Username:         username,
		PasswordHash:     passwordHash,
		Name:             displayName(username),
		Department:       department,
		Gpa:              summary.GPA,
		CompletedCredits: summary.CompletedCredits,
		TotalCredits:     summary.TotalCredits,
		CreatedAt:        timezone.Now().Unix(),
	}
	student.ID, err = txqry.CreateStudent(ctx, db.CreateStudentParams{
		Username:         student.Username,
		PasswordHash:     student.PasswordHash,
		Name:             student.Name,
		Department:       student.Department,
		Gpa:              student.Gpa,
		CompletedCredits: student.CompletedCredits,
		TotalCredits:     student.TotalCredits,
		CreatedAt:        student.CreatedAt,
	})
	if err != nil {
		return db.Student{}, err
	}

	err = insertCourseRecords(ctx, txqry, student.ID, summary.Records)
	if err != nil {
		return db.Student{}, err
	}

	err = tx.Commit()
	if err != nil {
		return db.Student{}, err
	}
	return student, nil
}

func insertCourseRecords(ctx context.Context, qry *db.Queries, studentId int64, records []transcript.CourseRecord) error {
	for _, record := range records {
		grade := sql.NullFloat64{}
		if record.Grade != nil {
			grade = sql.NullFloat64{Float64: *record.Grade, Valid: true}
		}
		err := qry.CreateStudentCourse(ctx, db.CreateStudentCourseParams{
			StudentID:  studentId,
			CourseCode: record.CourseID,
			Grade:      grade,
			Credits:    record.Credits,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Refresh re-runs the portal scrape for an existing student and
// replaces the stored ledger with the fresh one.
func (s Service) Refresh(ctx context.Context, username, password string) (Profile, error) {
	ctx, span := tracer.Start(ctx, "Refresh")
	defer span.End()
	span.SetAttributes(attribute.String("username", username))

	if !validUsername(username) {
		return Profile{}, ErrInvalidUsername
	}
	student, err := s.qry.GetStudentByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrInvalidCredentials
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Profile{}, err
	}
	err = bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(password))
	if err != nil {
		return Profile{}, ErrInvalidCredentials
	}

	summary, err := s.ScrapeTranscript(ctx, username, password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Profile{}, err
	}

	student, err = s.replaceLedger(ctx, student, summary)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Profile{}, err
	}

	slog.InfoContext(ctx, "student ledger refreshed", "username", username)
	return s.buildProfile(ctx, student, summary.Records)
}

// replaceLedger swaps out a student's stored course records and
// summary totals in one transaction.
func (s Service) replaceLedger(ctx context.Context, student db.Student, summary transcript.Summary) (db.Student, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return db.Student{}, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	err = txqry.DeleteStudentCourses(ctx, student.ID)
	if err != nil {
		return db.Student{}, err
	}
	err = insertCourseRecords(ctx, txqry, student.ID, summary.Records)
	if err != nil {
		return db.Student{}, err
	}

	student.Gpa = summary.GPA
	student.CompletedCredits = summary.CompletedCredits
	student.TotalCredits = summary.TotalCredits
	err = txqry.UpdateStudentSummary(ctx, db.UpdateStudentSummaryParams{
		ID:               student.ID,
		Gpa:              student.Gpa,
		CompletedCredits: student.CompletedCredits,
		TotalCredits:     student.TotalCredits,
	})
	if err != nil {
		return db.Student{}, err
	}

	err = tx.Commit()
	if err != nil {
		return db.Student{}, err
	}
	return student, nil
}

// Login authenticates against the stored hash only, the portal is
// never contacted again after signup.
func (s Service) Login(ctx context.Context, username, password string) (Profile, error) {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()
	span.SetAttributes(attribute.String("username", username))

	if !validUsername(username) {
		return Profile{}, ErrInvalidUsername
	}

	student, err := s.qry.GetStudentByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrInvalidCredentials
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Profile{}, err
	}
	err = bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(password))
	if err != nil {
		return Profile{}, ErrInvalidCredentials
	}

	rows, err := s.qry.GetStudentCourses(ctx, student.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Profile{}, err
	}
	records := make([]transcript.CourseRecord, 0, len(rows))
	for _, row := range rows {
		record := transcript.CourseRecord{
			CourseID: row.CourseCode,
			Credits:  row.Credits,
		}
		if row.Grade.Valid {
			grade := row.Grade.Float64
			record.Grade = &grade
		}
		records = append(records, record)
	}

	slog.InfoContext(ctx, "student logged in", "username", username)
	return s.buildProfile(ctx, student, records)
}

// GuestDepartment is the department a guest profile browses.
const GuestDepartment = "מדעי המחשב"

func (s Service) Guest(ctx context.Context) (Profile, error) {
	_, span := tracer.Start(ctx, "Guest")
	defer span.End()

	token, err := random.String(16)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Profile{}, err
	}
	return Profile{
		ID:         "guest-" + token,
		Name:       "Guest",
		Department: GuestDepartment,
		IsGuest:    true,
		Credits: Credits{
			Required: catalog.RequiredCredits[GuestDepartment],
		},
	}, nil
}

func (s Service) buildProfile(ctx context.Context, student db.Student, records []transcript.CourseRecord) (Profile, error) {
	snap, err := s.snapshotFor(ctx, student.Department)
	if err != nil {
		return Profile{}, err
	}
	categorized := catalog.Categorize(transcript.Summary{Records: records}, snap)

	return Profile{
		ID:               fmt.Sprint(student.ID),
		Username:         student.Username,
		Name:             student.Name,
		Department:       student.Department,
		CompletedCourses: categorized.Completed,
		EnrolledCourses:  categorized.Enrolled,
		Credits: Credits{
			Completed: student.CompletedCredits,
			Required:  catalog.RequiredCredits[student.Department],
			Enrolled:  categorized.EnrolledCreditTotal,
		},
		GPA:                   student.Gpa,
		RemainingRequirements: categorized.CreditTotals,
	}, nil
}

func displayName(username string) string {
	for i := 0; i < len(username); i++ {
		if username[i] == '.' {
			return username[:i]
		}
	}
	return username
}
