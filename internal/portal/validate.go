package portal

import (
	"regexp"
	"strings"

	apperrors "github.com/gyanbazaar/ignou-study-bot/internal/errors"
)

var (
	enrollmentRe = regexp.MustCompile(`^\d{9,10}$`)
	programRe    = regexp.MustCompile(`^[A-Za-z]{2,10}$`)
)

// ValidEnrollment reports whether a raw string is a 9-10 digit enrollment
// number after trimming.
func ValidEnrollment(s string) bool {
	return enrollmentRe.MatchString(strings.TrimSpace(s))
}

// ValidProgram reports whether a raw string is a 2-10 letter programme code
// after trimming.
func ValidProgram(s string) bool {
	return programRe.MatchString(strings.TrimSpace(s))
}

// NewQueryRequest validates raw user input and builds a QueryRequest.
// Enrollment must be 9-10 digits; the programme code 2-10 letters and is
// normalized to uppercase. Validation happens before any network call; the
// chat layer re-prompts the user on failure, the engine never retries.
func NewQueryRequest(kind QueryKind, enrollment, program string) (QueryRequest, error) {
	enrollment = strings.TrimSpace(enrollment)
	program = strings.TrimSpace(program)

	if !enrollmentRe.MatchString(enrollment) {
		return QueryRequest{}, apperrors.ErrInvalidEnrollment
	}
	if !programRe.MatchString(program) {
		return QueryRequest{}, apperrors.ErrInvalidProgram
	}

	return QueryRequest{
		Kind:       kind,
		Enrollment: enrollment,
		Program:    strings.ToUpper(program),
	}, nil
}
