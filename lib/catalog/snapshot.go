package catalog

// Snapshot is an immutable view of one department's combined catalog
// (department courses plus general education) and the legacy override
// table. It is built once and shared read-only between concurrent
// requests; a catalog refresh builds a new Snapshot wholesale instead
// of mutating an existing one.
type Snapshot struct {
	courses    []Course
	byRealCode map[string]Course
	legacy     map[string]LegacyOverride
}

func NewSnapshot(courses []Course, legacy map[string]LegacyOverride) *Snapshot {
	byRealCode := make(map[string]Course, len(courses))
	for _, c := range courses {
		if c.RealCourseCode == "" {
			continue
		}
		// keep the first occurrence, merged catalogs may repeat a code
		if _, ok := byRealCode[c.RealCourseCode]; ok {
			continue
		}
		byRealCode[c.RealCourseCode] = c
	}
	return &Snapshot{
		courses:    courses,
		byRealCode: byRealCode,
		legacy:     legacy,
	}
}

func (s *Snapshot) Len() int {
	return len(s.courses)
}

func (s *Snapshot) Courses() []Course {
	out := make([]Course, len(s.courses))
	copy(out, s.courses)
	return out
}

// Match resolves a course identifier against the catalog, falling
// back to the legacy override table. The returned course carries no
// groups, they are irrelevant downstream of matching.
func (s *Snapshot) Match(courseId string) (Course, bool) {
	c, ok := s.byRealCode[courseId]
	if ok {
		c.Groups = nil
		return c, true
	}

	override, ok := s.legacy[courseId]
	if ok {
		// the override table carries no display name
		return Course{
			RealCourseCode: courseId,
			CourseName:     "Unknown Course",
			CourseCredit:   override.CourseCredit,
			CourseType:     override.CourseType,
		}, true
	}

	return Course{}, false
}
