package portal

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Column order on the portals is not stable across visits, so table parsing
// runs two explicit strategies per row: a positional mapping matching the
// most commonly observed layout, then a content-sniffing pass that overrides
// individual fields when a cell unambiguously matches a known shape
// (course code, session token, date).
var (
	courseCodeCellRe = regexp.MustCompile(`^[A-Z]{2,6}\d{1,3}$`)
	sessionCellRe    = regexp.MustCompile(`^[A-Za-z]+-\d{4}$`)
	dateCellRe       = regexp.MustCompile(`^\d{1,2}[-/][A-Za-z0-9]+[-/]\d{4}$`)
	numericCleanRe   = regexp.MustCompile(`[^0-9.]`)
)

// statusKeywords are the portal's known assignment-status phrasings, most
// specific first. Shared with the pattern fallback extractor.
var statusKeywords = []string{
	"Check grade card status for detail",
	"Received to be processed",
	"Received to be evaluated",
	"Submitted",
	"Processed",
	"Evaluated",
}

// extractAssignments walks every table in the document and collects
// assignment rows from candidate tables. Returns nil when nothing
// resembling an assignment table exists; the caller then falls back to
// raw-text scanning.
func extractAssignments(doc *goquery.Document) []AssignmentRecord {
	var records []AssignmentRecord

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		text := strings.ToLower(table.Text())
		if !strings.Contains(text, "course") {
			return
		}
		if !strings.Contains(text, "status") && !strings.Contains(text, "session") {
			return
		}

		table.Find("tr").Each(func(rowIdx int, row *goquery.Selection) {
			if rowIdx == 0 {
				return // header
			}
			cells := cellTexts(row)
			if len(cells) < 3 {
				return
			}
			records = append(records, parseAssignmentRow(cells))
		})
	})

	return records
}

// parseAssignmentRow maps cells to a record positionally, then lets
// content-sniffing override fields whose shape is unmistakable.
func parseAssignmentRow(cells []string) AssignmentRecord {
	// Positional layout observed most often:
	// code | course name | assignment | status | submission date
	rec := AssignmentRecord{
		CourseCode: cells[0],
		CourseName: cellAt(cells, 1),
		Status:     cellAt(cells, 3),
	}
	if label := cellAt(cells, 2); label != "" {
		rec.AssignmentLabel = label
	}
	if date := cellAt(cells, 4); date != "" {
		rec.SubmissionDate = date
	}

	// Content-sniff overrides. The course-code cell is authoritative
	// wherever it sits; session and date cells are recognized by shape.
	codeIdx := -1
	for i, cell := range cells {
		switch {
		case codeIdx < 0 && courseCodeCellRe.MatchString(cell):
			rec.CourseCode = cell
			codeIdx = i
		case sessionCellRe.MatchString(cell):
			rec.Session = cell
		case dateCellRe.MatchString(cell):
			rec.SubmissionDate = cell
		case matchStatusKeyword(cell) != "":
			rec.Status = cell
		}
	}

	// When the sniffed code displaced the positional mapping, the cell
	// before it usually carries the row label, not a course name.
	if codeIdx == 1 && rec.CourseName == rec.CourseCode {
		rec.CourseName = ""
		rec.AssignmentLabel = cells[0]
	}

	return rec
}

// matchStatusKeyword returns the canonical keyword contained in the cell,
// or "" when the cell is not a status phrase.
func matchStatusKeyword(cell string) string {
	lower := strings.ToLower(cell)
	for _, kw := range statusKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw
		}
	}
	return ""
}

// extractGradeCard pulls the student identity block and every semester
// grade table out of the document. One candidate table = one semester.
func extractGradeCard(doc *goquery.Document) *GradeCard {
	gc := &GradeCard{
		Student: extractStudentInfo(doc),
	}

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		header := strings.ToLower(table.Find("tr").First().Text())
		if !strings.Contains(header, "course") {
			return
		}
		if !strings.Contains(header, "grade") && !strings.Contains(header, "marks") && !strings.Contains(header, "credit") {
			return
		}

		sem := SemesterResult{}
		table.Find("tr").Each(func(rowIdx int, row *goquery.Selection) {
			if rowIdx == 0 {
				return
			}
			cells := cellTexts(row)
			// Grade rows carry at least code, name, credits and grade.
			// The 3-column assignment-marks table shares this page and
			// matches the candidate keywords; the cell floor keeps its
			// rows out of the semester totals.
			if len(cells) < 4 {
				return
			}

			course := CourseResult{
				CourseCode:  cells[0],
				CourseName:  cellAt(cells, 1),
				Credits:     parseIntCell(cellAt(cells, 2)),
				Grade:       cellAt(cells, 3),
				GradePoints: parseFloatCell(cellAt(cells, 4)),
			}
			for _, cell := range cells {
				if courseCodeCellRe.MatchString(cell) {
					course.CourseCode = cell
					break
				}
			}

			sem.Courses = append(sem.Courses, course)
			sem.TotalCredits += course.Credits
			sem.TotalGradePoints += course.GradePoints
		})

		if len(sem.Courses) == 0 {
			return
		}
		if sem.TotalCredits > 0 {
			sem.SGPA = round2(sem.TotalGradePoints / float64(sem.TotalCredits))
		}
		gc.Semesters = append(gc.Semesters, sem)
	})

	return gc
}

// extractStudentInfo scans rows for name/programme labels. The identity
// block has appeared both as its own table and as rows of a larger one.
func extractStudentInfo(doc *goquery.Document) StudentInfo {
	var info StudentInfo

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row)
		if len(cells) < 2 {
			return
		}
		label := strings.ToLower(cells[0])
		switch {
		case info.Name == "" && strings.Contains(label, "name"):
			info.Name = cells[1]
		case info.Programme == "" && strings.Contains(label, "programme"):
			info.Programme = cells[1]
		}
	})

	return info
}

// extractAssignmentMarks collects assignment-marks rows grouped by the
// best-effort semester classifier. Group order follows first appearance.
func extractAssignmentMarks(doc *goquery.Document) []SemesterMarks {
	var groups []SemesterMarks
	index := make(map[string]int)

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		header := strings.ToLower(table.Find("tr").First().Text())
		if !strings.Contains(header, "assignment") && !strings.Contains(header, "marks") {
			return
		}

		table.Find("tr").Each(func(rowIdx int, row *goquery.Selection) {
			if rowIdx == 0 {
				return
			}
			cells := cellTexts(row)
			if len(cells) < 3 {
				return
			}

			code := cells[0]
			for _, cell := range cells {
				if courseCodeCellRe.MatchString(cell) {
					code = cell
					break
				}
			}
			if !courseCodeCellRe.MatchString(code) {
				return
			}

			entry := MarksEntry{
				CourseCode:      code,
				AssignmentMarks: parseFloatCell(cellAt(cells, 1)),
				TotalMarks:      parseFloatCell(cellAt(cells, 2)),
			}
			if entry.TotalMarks > 0 {
				entry.Percentage = round2(entry.AssignmentMarks / entry.TotalMarks * 100)
			}

			label := determineSemester(entry.CourseCode)
			i, ok := index[label]
			if !ok {
				groups = append(groups, SemesterMarks{Semester: label})
				i = len(groups) - 1
				index[label] = i
			}
			groups[i].Entries = append(groups[i].Entries, entry)
		})
	})

	return groups
}

// cellTexts returns the trimmed text of each td/th cell in a row.
func cellTexts(row *goquery.Selection) []string {
	var cells []string
	row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(cell.Text()))
	})
	return cells
}

func cellAt(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}

// parseIntCell strips everything but digits and dots before converting.
// Portal cells carry stray markup like "4 *" or "4&nbsp;". Unparsable is 0.
func parseIntCell(s string) int {
	cleaned := numericCleanRe.ReplaceAllString(s, "")
	if i := strings.Index(cleaned, "."); i >= 0 {
		cleaned = cleaned[:i]
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return n
}

// parseFloatCell strips non-numeric characters before conversion. Unparsable is 0.
func parseFloatCell(s string) float64 {
	cleaned := numericCleanRe.ReplaceAllString(s, "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
