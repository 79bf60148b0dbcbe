// Package catalog resolves normalized course records against the
// department course catalogs and buckets their credits by course type.
package catalog

// Course type tags as they appear in the catalogs' free-text type
// field. A type string may carry more than one tag.
const (
	TagMandatory = "חובה"
	TagElective  = "בחירה"
	TagGeneral   = "רוח"
)

// General education departments merged into every department catalog.
var GeneralDepartments = []string{"אנגלית", "כללי"}

type Group struct {
	GroupCode string `json:"groupCode"`
	Lecturer  string `json:"lecturer"`
	Day       string `json:"day"`
	Hours     string `json:"hours"`
}

// Course is one entry of a department catalog, read-only to this
// package. CourseCredit is kept as text because that is how the
// catalogs store it.
type Course struct {
	CourseCode     string  `json:"courseCode"`
	RealCourseCode string  `json:"realCourseCode"`
	CourseName     string  `json:"courseName"`
	CourseType     string  `json:"courseType"`
	CourseCredit   string  `json:"courseCredit"`
	Semester       string  `json:"semester"`
	Groups         []Group `json:"groups,omitempty"`
}

// LegacyOverride covers a course that is no longer in any active
// catalog but still appears on older transcripts.
type LegacyOverride struct {
	CourseCredit string `json:"courseCredit"`
	CourseType   string `json:"courseType"`
}
