package portal

import (
	"fmt"
	"strconv"
	"strings"
)

const reportDivider = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// FormatAssignmentStatus renders validated assignment records as chat text.
// Pure function of its inputs; transport and parsing never reach here.
func FormatAssignmentStatus(req QueryRequest, records []AssignmentRecord) string {
	var b strings.Builder

	b.WriteString("📋 Assignment Status Report\n\n")
	fmt.Fprintf(&b, "👤 Enrollment: %s\n", req.Enrollment)
	fmt.Fprintf(&b, "🎓 Programme: %s\n\n", req.Program)

	if len(records) == 0 {
		b.WriteString("❌ No assignment records found.\n")
		return b.String()
	}

	b.WriteString("📚 Assignment Details:\n")
	b.WriteString(reportDivider + "\n")

	for i, rec := range records {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec.CourseCode)
		if rec.CourseName != "" {
			fmt.Fprintf(&b, "   📖 %s\n", rec.CourseName)
		}
		if rec.AssignmentLabel != "" {
			fmt.Fprintf(&b, "   📝 Assignment: %s\n", rec.AssignmentLabel)
		}
		if rec.Session != "" {
			fmt.Fprintf(&b, "   🗓 Session: %s\n", rec.Session)
		}
		fmt.Fprintf(&b, "   ✅ Status: %s\n", rec.Status)
		if rec.SubmissionDate != "" {
			fmt.Fprintf(&b, "   📅 Submitted: %s\n", rec.SubmissionDate)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// FormatGradeCard renders per-semester results with SGPA lines and an
// overall CGPA computed across every semester.
func FormatGradeCard(req QueryRequest, gc *GradeCard) string {
	var b strings.Builder

	b.WriteString("🎓 Grade Card Report\n\n")
	fmt.Fprintf(&b, "👤 Enrollment: %s\n", req.Enrollment)
	fmt.Fprintf(&b, "🎓 Programme: %s\n", req.Program)

	if gc.Student.Name != "" {
		fmt.Fprintf(&b, "📝 Name: %s\n", gc.Student.Name)
	}
	if gc.Student.Programme != "" {
		fmt.Fprintf(&b, "📚 Programme: %s\n", gc.Student.Programme)
	}

	b.WriteString("\n" + reportDivider + "\n")

	if len(gc.Semesters) == 0 {
		b.WriteString("❌ No semester results found.\n")
		return b.String()
	}

	for i, sem := range gc.Semesters {
		fmt.Fprintf(&b, "\n📊 Semester %d Results:\n", i+1)
		fmt.Fprintf(&b, "▫️ Total Credits: %d\n", sem.TotalCredits)
		fmt.Fprintf(&b, "▫️ SGPA: %.2f\n\n", sem.SGPA)

		for _, course := range sem.Courses {
			fmt.Fprintf(&b, "📖 %s - %s\n", course.CourseCode, course.CourseName)
			fmt.Fprintf(&b, "   Credits: %d | Grade: %s | GP: %s\n",
				course.Credits, course.Grade, trimFloat(course.GradePoints))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "🏆 CGPA: %.2f\n", CGPA(gc.Semesters))
	return b.String()
}

// CGPA is total grade points over total credits across all semesters,
// rounded to two decimals. Zero credits yields zero, never NaN.
func CGPA(semesters []SemesterResult) float64 {
	var credits int
	var points float64
	for _, sem := range semesters {
		credits += sem.TotalCredits
		points += sem.TotalGradePoints
	}
	if credits == 0 {
		return 0
	}
	return round2(points / float64(credits))
}

// FormatAssignmentMarks renders marks grouped by semester label.
func FormatAssignmentMarks(req QueryRequest, groups []SemesterMarks) string {
	var b strings.Builder

	b.WriteString("📊 Assignment Marks Report\n\n")
	fmt.Fprintf(&b, "👤 Enrollment: %s\n", req.Enrollment)
	fmt.Fprintf(&b, "🎓 Programme: %s\n\n", req.Program)

	if len(groups) == 0 {
		b.WriteString("❌ No assignment marks found.\n")
		return b.String()
	}

	b.WriteString("📝 Semester-wise Assignment Marks:\n")
	b.WriteString(reportDivider + "\n")

	for _, group := range groups {
		fmt.Fprintf(&b, "\n📚 %s:\n", group.Semester)
		for _, e := range group.Entries {
			fmt.Fprintf(&b, "▫️ %s\n", e.CourseCode)
			fmt.Fprintf(&b, "   Marks: %s/%s (%.2f%%)\n",
				trimFloat(e.AssignmentMarks), trimFloat(e.TotalMarks), e.Percentage)
		}
	}

	return b.String()
}

// trimFloat formats without trailing zeros: 4 not 4.00, 3.5 not 3.50.
func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
