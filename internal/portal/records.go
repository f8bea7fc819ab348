package portal

// IsValidRecord reports whether an extracted candidate row is worth keeping.
// The extractors are deliberately permissive, so junk rows (header echoes,
// layout cells, truncated fragments) are filtered here in one place.
func IsValidRecord(r AssignmentRecord) bool {
	if len(r.CourseCode) < 3 || !courseCodeCellRe.MatchString(r.CourseCode) {
		return false
	}
	return len(r.Status) > 2
}

// FilterRecords drops invalid candidates. Dropped rows are not reported;
// an empty survivor set surfaces to the caller as no records found.
func FilterRecords(records []AssignmentRecord) []AssignmentRecord {
	var valid []AssignmentRecord
	for _, r := range records {
		if IsValidRecord(r) {
			valid = append(valid, r)
		}
	}
	return valid
}

// DedupeRecords removes duplicates keyed on course code and status,
// keeping the first occurrence and preserving order. The portals repeat
// rows across nested tables, and the fallback scanner can rediscover the
// same course several times.
func DedupeRecords(records []AssignmentRecord) []AssignmentRecord {
	seen := make(map[string]bool, len(records))
	var out []AssignmentRecord
	for _, r := range records {
		key := r.CourseCode + "-" + r.Status
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
