package portal

import "strings"

// determineSemester buckets a course code into a semester label.
// IGNOU course numbering loosely encodes the semester in the digits
// (BCS011/BCS012 are first semester, BCS062 sixth), but the scheme is
// not uniform across programmes, so anything ambiguous lands in "Other"
// rather than guessing.
func determineSemester(courseCode string) string {
	for _, sem := range []struct {
		digit  string
		suffix string
		label  string
	}{
		{"1", "01", "Semester 1"},
		{"2", "02", "Semester 2"},
		{"3", "03", "Semester 3"},
		{"4", "04", "Semester 4"},
		{"5", "05", "Semester 5"},
		{"6", "06", "Semester 6"},
	} {
		if strings.Contains(courseCode, sem.digit) || strings.HasSuffix(courseCode, sem.suffix) {
			return sem.label
		}
	}
	return "Other"
}
