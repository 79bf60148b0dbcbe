package studentdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"acadassist-backend/lib/timezone"
	"acadassist-backend/services/studentdata/db"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// MaxSavedSchedules caps how many schedules one student may keep.
const MaxSavedSchedules = 5

type Schedule struct {
	ID        string          `json:"id"`
	StudentID int64           `json:"studentId"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"createdAt"`
}

func scheduleFromRow(row db.SavedSchedule) Schedule {
	return Schedule{
		ID:        row.ID,
		StudentID: row.StudentID,
		Name:      row.Name,
		Data:      json.RawMessage(row.Data),
		CreatedAt: row.CreatedAt,
	}
}

func (s Service) CreateSchedule(ctx context.Context, studentId int64, name string, data json.RawMessage) (Schedule, error) {
	ctx, span := tracer.Start(ctx, "CreateSchedule")
	defer span.End()
	span.SetAttributes(attribute.Int64("student_id", studentId))

	count, err := s.qry.CountSavedSchedules(ctx, studentId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Schedule{}, err
	}
	if count >= MaxSavedSchedules {
		return Schedule{}, ErrScheduleLimit
	}

	id, err := random.String(8)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Schedule{}, err
	}
	if name == "" {
		name = "Unnamed Schedule"
	}

	row := db.SavedSchedule{
		ID:        id,
		StudentID: studentId,
		Name:      name,
		Data:      string(data),
		CreatedAt: timezone.Now().Unix(),
	}
	err = s.qry.CreateSavedSchedule(ctx, db.CreateSavedScheduleParams{
		ID:        row.ID,
		StudentID: row.StudentID,
		Name:      row.Name,
		Data:      row.Data,
		CreatedAt: row.CreatedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Schedule{}, err
	}
	return scheduleFromRow(row), nil
}

func (s Service) Schedule(ctx context.Context, id string) (Schedule, error) {
	ctx, span := tracer.Start(ctx, "Schedule")
	defer span.End()

	row, err := s.qry.GetSavedSchedule(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Schedule{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Schedule{}, err
	}
	return scheduleFromRow(row), nil
}

func (s Service) DeleteSchedule(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "DeleteSchedule")
	defer span.End()

	affected, err := s.qry.DeleteSavedSchedule(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s Service) StudentSchedules(ctx context.Context, studentId int64) ([]Schedule, error) {
	ctx, span := tracer.Start(ctx, "StudentSchedules")
	defer span.End()
	span.SetAttributes(attribute.Int64("student_id", studentId))

	rows, err := s.qry.GetSavedSchedulesForStudent(ctx, studentId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	out := make([]Schedule, 0, len(rows))
	for _, row := range rows {
		out = append(out, scheduleFromRow(row))
	}
	return out, nil
}
