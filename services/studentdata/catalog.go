package studentdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"acadassist-backend/lib/catalog"
	"acadassist-backend/lib/timezone"
	"acadassist-backend/services/studentdata/db"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// snapshotCache holds one immutable catalog snapshot per department.
// Refreshes swap the whole pointer, readers never observe a snapshot
// mid-update.
type snapshotCache struct {
	mu           sync.RWMutex
	byDepartment map[string]*catalog.Snapshot
}

func newSnapshotCache() *snapshotCache {
	return &snapshotCache{byDepartment: map[string]*catalog.Snapshot{}}
}

func (c *snapshotCache) get(department string) (*catalog.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.byDepartment[department]
	return snap, ok
}

func (c *snapshotCache) put(department string, snap *catalog.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byDepartment[department] = snap
}

func (c *snapshotCache) drop(department string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byDepartment, department)
}

// DepartmentCourses returns the stored catalog rows for a department,
// optionally extended with the shared general-studies departments.
func (s Service) DepartmentCourses(ctx context.Context, department string, includeGeneral bool) ([]catalog.Course, error) {
	ctx, span := tracer.Start(ctx, "DepartmentCourses")
	defer span.End()
	span.SetAttributes(attribute.String("department", department))

	courses, err := s.loadDepartmentRow(ctx, department)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDepartment, department)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if includeGeneral {
		for _, general := range catalog.GeneralDepartments {
			extra, err := s.loadDepartmentRow(ctx, general)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			courses = append(courses, extra...)
		}
	}
	return courses, nil
}

func (s Service) loadDepartmentRow(ctx context.Context, department string) ([]catalog.Course, error) {
	data, err := s.qry.GetDepartmentCourses(ctx, department)
	if err != nil {
		return nil, err
	}
	var courses []catalog.Course
	err = json.Unmarshal([]byte(data), &courses)
	if err != nil {
		return nil, fmt.Errorf("department %q: %w", department, err)
	}
	return courses, nil
}

// SetDepartmentCourses replaces the stored catalog for a department
// and invalidates any snapshot built on the old rows. The department
// must be a known degree program or one of the general-studies
// departments.
func (s Service) SetDepartmentCourses(ctx context.Context, department string, courses []catalog.Course) error {
	ctx, span := tracer.Start(ctx, "SetDepartmentCourses")
	defer span.End()
	span.SetAttributes(
		attribute.String("department", department),
		attribute.Int("courses", len(courses)),
	)

	resolved, err := resolveCatalogDepartment(department)
	if err != nil {
		return err
	}
	department = resolved

	data, err := json.Marshal(courses)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	err = s.qry.SetDepartmentCourses(ctx, db.SetDepartmentCoursesParams{
		DepartmentName: department,
		Data:           string(data),
		UpdatedAt:      timezone.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.snapshots.drop(department)
	// general-studies rows feed every department snapshot
	for _, general := range catalog.GeneralDepartments {
		if department == general {
			s.snapshots.mu.Lock()
			s.snapshots.byDepartment = map[string]*catalog.Snapshot{}
			s.snapshots.mu.Unlock()
			break
		}
	}
	return nil
}

func resolveCatalogDepartment(department string) (string, error) {
	for _, general := range catalog.GeneralDepartments {
		if department == general {
			return department, nil
		}
	}
	resolved, ok := catalog.ResolveDepartment(department)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDepartment, department)
	}
	return resolved, nil
}

func (s Service) snapshotFor(ctx context.Context, department string) (*catalog.Snapshot, error) {
	snap, ok := s.snapshots.get(department)
	if ok {
		return snap, nil
	}

	courses, err := s.DepartmentCourses(ctx, department, true)
	if err != nil {
		return nil, err
	}
	snap = catalog.NewSnapshot(courses, catalog.DefaultLegacyOverrides())
	s.snapshots.put(department, snap)
	return snap, nil
}
