package db

import (
	"context"
	"database/sql"
)

type Queries struct {
	db DBTX
}

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Student struct {
	ID               int64
	Username         string
	PasswordHash     string
	Name             string
	Department       string
	Gpa              float64
	CompletedCredits float64
	TotalCredits     float64
	CreatedAt        int64
}

type CreateStudentParams struct {
	Username         string
	PasswordHash     string
	Name             string
	Department       string
	Gpa              float64
	CompletedCredits float64
	TotalCredits     float64
	CreatedAt        int64
}

func (q *Queries) CreateStudent(ctx context.Context, arg CreateStudentParams) (int64, error) {
	res, err := q.db.ExecContext(
		ctx,
		`INSERT INTO students
			(username, password_hash, name, department, gpa, completed_credits, total_credits, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Username,
		arg.PasswordHash,
		arg.Name,
		arg.Department,
		arg.Gpa,
		arg.CompletedCredits,
		arg.TotalCredits,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) GetStudentByUsername(ctx context.Context, username string) (Student, error) {
	row := q.db.QueryRowContext(
		ctx,
		`SELECT id, username, password_hash, name, department, gpa, completed_credits, total_credits, created_at
		FROM students WHERE username = ?`,
		username,
	)
	var s Student
	err := row.Scan(
		&s.ID,
		&s.Username,
		&s.PasswordHash,
		&s.Name,
		&s.Department,
		&s.Gpa,
		&s.CompletedCredits,
		&s.TotalCredits,
		&s.CreatedAt,
	)
	return s, err
}

type UpdateStudentSummaryParams struct {
	ID               int64
	Gpa              float64
	CompletedCredits float64
	TotalCredits     float64
}

func (q *Queries) UpdateStudentSummary(ctx context.Context, arg UpdateStudentSummaryParams) error {
	_, err := q.db.ExecContext(
		ctx,
		`UPDATE students SET gpa = ?, completed_credits = ?, total_credits = ?
		WHERE id = ?`,
		arg.Gpa,
		arg.CompletedCredits,
		arg.TotalCredits,
		arg.ID,
	)
	return err
}

func (q *Queries) StudentExists(ctx context.Context, username string) (bool, error) {
	row := q.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM students WHERE username = ?`,
		username,
	)
	var count int64
	err := row.Scan(&count)
	return count > 0, err
}

type StudentCourse struct {
	StudentID  int64
	CourseCode string
	Grade      sql.NullFloat64
	Credits    float64
}

type CreateStudentCourseParams struct {
	StudentID  int64
	CourseCode string
	Grade      sql.NullFloat64
	Credits    float64
}

func (q *Queries) CreateStudentCourse(ctx context.Context, arg CreateStudentCourseParams) error {
	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO student_courses (student_id, course_code, grade, credits)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (student_id, course_code)
		DO UPDATE SET grade = excluded.grade, credits = excluded.credits`,
		arg.StudentID,
		arg.CourseCode,
		arg.Grade,
		arg.Credits,
	)
	return err
}

func (q *Queries) DeleteStudentCourses(ctx context.Context, studentId int64) error {
	_, err := q.db.ExecContext(
		ctx,
		`DELETE FROM student_courses WHERE student_id = ?`,
		studentId,
	)
	return err
}

func (q *Queries) GetStudentCourses(ctx context.Context, studentId int64) ([]StudentCourse, error) {
	rows, err := q.db.QueryContext(
		ctx,
		`SELECT student_id, course_code, grade, credits
		FROM student_courses WHERE student_id = ?
		ORDER BY course_code`,
		studentId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StudentCourse
	for rows.Next() {
		var c StudentCourse
		err := rows.Scan(&c.StudentID, &c.CourseCode, &c.Grade, &c.Credits)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type SetDepartmentCoursesParams struct {
	DepartmentName string
	Data           string
	UpdatedAt      int64
}

func (q *Queries) SetDepartmentCourses(ctx context.Context, arg SetDepartmentCoursesParams) error {
	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO department_courses (department_name, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (department_name)
		DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		arg.DepartmentName,
		arg.Data,
		arg.UpdatedAt,
	)
	return err
}

func (q *Queries) GetDepartmentCourses(ctx context.Context, departmentName string) (string, error) {
	row := q.db.QueryRowContext(
		ctx,
		`SELECT data FROM department_courses WHERE department_name = ?`,
		departmentName,
	)
	var data string
	err := row.Scan(&data)
	return data, err
}

type SavedSchedule struct {
	ID        string
	StudentID int64
	Name      string
	Data      string
	CreatedAt int64
}

type CreateSavedScheduleParams struct {
	ID        string
	StudentID int64
	Name      string
	Data      string
	CreatedAt int64
}

func (q *Queries) CreateSavedSchedule(ctx context.Context, arg CreateSavedScheduleParams) error {
	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO saved_schedules (id, student_id, name, data, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		arg.ID,
		arg.StudentID,
		arg.Name,
		arg.Data,
		arg.CreatedAt,
	)
	return err
}

func (q *Queries) CountSavedSchedules(ctx context.Context, studentId int64) (int64, error) {
	row := q.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM saved_schedules WHERE student_id = ?`,
		studentId,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

func (q *Queries) GetSavedSchedule(ctx context.Context, id string) (SavedSchedule, error) {
	row := q.db.QueryRowContext(
		ctx,
		`SELECT id, student_id, name, data, created_at
		FROM saved_schedules WHERE id = ?`,
		id,
	)
	var s SavedSchedule
	err := row.Scan(&s.ID, &s.StudentID, &s.Name, &s.Data, &s.CreatedAt)
	return s, err
}

func (q *Queries) DeleteSavedSchedule(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(
		ctx,
		`DELETE FROM saved_schedules WHERE id = ?`,
		id,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) GetSavedSchedulesForStudent(ctx context.Context, studentId int64) ([]SavedSchedule, error) {
	rows, err := q.db.QueryContext(
		ctx,
		`SELECT id, student_id, name, data, created_at
		FROM saved_schedules WHERE student_id = ?
		ORDER BY created_at`,
		studentId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SavedSchedule
	for rows.Next() {
		var s SavedSchedule
		err := rows.Scan(&s.ID, &s.StudentID, &s.Name, &s.Data, &s.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
