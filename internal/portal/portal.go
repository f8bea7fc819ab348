// Package portal implements the IGNOU portal query engine: transport
// attempts against the assignment-status and grade-card portals, soft-error
// classification of the returned HTML, structured table extraction with a
// text-proximity fallback, record validation, and chat-ready formatting.
//
// The portals publish no schema and their markup has been observed to drift
// between visits, so extraction is an ordered fallback chain (DOM tables
// first, raw-text course-code scanning second) rather than a single parser.
// The engine is stateless: each query re-fetches from the portal and holds
// no data between calls.
package portal

// QueryKind selects which portal report a query targets.
type QueryKind string

// Supported query kinds.
const (
	KindAssignmentStatus QueryKind = "assignment_status"
	KindGradeCard        QueryKind = "grade_card"
	KindAssignmentMarks  QueryKind = "assignment_marks"
)

// QueryRequest is a validated portal query. Construct with NewQueryRequest;
// the zero value is not usable.
type QueryRequest struct {
	Kind       QueryKind
	Enrollment string // 9-10 digits
	Program    string // 2-10 letters, uppercased
}

// AssignmentRecord is one extracted assignment-status row.
// Deduplicated by (CourseCode, Status).
type AssignmentRecord struct {
	CourseCode      string
	CourseName      string
	AssignmentLabel string
	Status          string
	SubmissionDate  string
	Session         string
}

// CourseResult is one course line of a semester grade table.
type CourseResult struct {
	CourseCode  string
	CourseName  string
	Credits     int
	Grade       string
	GradePoints float64
}

// SemesterResult is one semester table of a grade card.
// SGPA is 0 when TotalCredits is 0 (never NaN).
type SemesterResult struct {
	Courses          []CourseResult
	TotalCredits     int
	TotalGradePoints float64
	SGPA             float64
}

// MarksEntry is one course line of an assignment-marks table.
// Percentage is 0 when TotalMarks is 0.
type MarksEntry struct {
	CourseCode      string
	AssignmentMarks float64
	TotalMarks      float64
	Percentage      float64
}

// SemesterMarks groups assignment marks under a best-effort semester label.
// Order follows first appearance in the source document.
type SemesterMarks struct {
	Semester string
	Entries  []MarksEntry
}

// StudentInfo holds the identity block of a grade card, when present.
type StudentInfo struct {
	Name      string
	Programme string
}

// GradeCard is the structured result of a grade-card or assignment-marks query.
type GradeCard struct {
	Student   StudentInfo
	Semesters []SemesterResult
	Marks     []SemesterMarks
}

// Result is the successful output of Engine.Query. Report holds the full
// chat-ready text; Chunks holds the same text split to the configured
// message size.
type Result struct {
	Kind        QueryKind
	Assignments []AssignmentRecord
	GradeCard   *GradeCard
	Report      string
	Chunks      []string
}
