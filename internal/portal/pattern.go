package portal

import (
	"regexp"
	"strings"
)

const contextWindow = 500

var (
	courseCodeScanRe = regexp.MustCompile(`[A-Z]{2,6}\d{1,3}`)
	sessionScanRe    = regexp.MustCompile(`\w+-\d{4}`)
)

// StatusNotAvailable is the status assigned when the fallback scan finds a
// course code but no recognizable status phrase near it.
const StatusNotAvailable = "Status not available"

// extractByCourseCodeScan is the fallback for pages whose table structure
// the DOM extractor could not parse. It scans the raw HTML for course codes
// and reads each code's status and session out of the surrounding text.
func extractByCourseCodeScan(html string) []AssignmentRecord {
	var records []AssignmentRecord
	seen := make(map[string]bool)

	for _, loc := range courseCodeScanRe.FindAllStringIndex(html, -1) {
		code := html[loc[0]:loc[1]]
		if seen[code] {
			continue
		}
		seen[code] = true

		window := contextAround(html, loc[0], loc[1])
		records = append(records, AssignmentRecord{
			CourseCode: code,
			Status:     statusInContext(window),
			Session:    sessionInContext(window),
		})
	}

	return records
}

// contextAround clips a window of contextWindow bytes on each side of the
// match. Portal pages are ASCII so byte offsets are safe here.
func contextAround(html string, start, end int) string {
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindow
	if hi > len(html) {
		hi = len(html)
	}
	return html[lo:hi]
}

// statusInContext returns the first canonical status phrase found in the
// window, preserving the keyword list's specificity order.
func statusInContext(window string) string {
	lower := strings.ToLower(window)
	for _, kw := range statusKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw
		}
	}
	return StatusNotAvailable
}

func sessionInContext(window string) string {
	return sessionScanRe.FindString(window)
}
