package tabular

import (
	"strings"

	"course-cert/internal/domain"
)

// columns is the header of one file mapped to the roles we care about. Each
// role may have several labels when files with different headers were merged;
// a row takes the first non-empty one.
type columns struct {
	email    []string
	fullName []string
	first    []string
	last     []string
	activity []string
	enrolled []string
	progress []string
	id       []string
}

func normalizeLabel(h string) string {
	l := strings.ToLower(strings.TrimSpace(h))
	l = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(l)
	return strings.Join(strings.Fields(l), " ")
}

func detectColumns(header []string) columns {
	var c columns
	for _, h := range header {
		if strings.TrimSpace(h) == "" {
			continue
		}
		l := normalizeLabel(h)
		switch {
		case strings.Contains(l, "email") || strings.Contains(l, "e mail") || l == "mail":
			c.email = append(c.email, h)
		case strings.Contains(l, "family") || strings.Contains(l, "surname") ||
			strings.Contains(l, "last name") || strings.Contains(l, "lastname") || l == "last":
			c.last = append(c.last, h)
		case strings.Contains(l, "given") || strings.Contains(l, "first name") ||
			strings.Contains(l, "firstname") || l == "first":
			c.first = append(c.first, h)
		case isFullNameLabel(l):
			c.fullName = append(c.fullName, h)
		case strings.Contains(l, "interaction") || strings.Contains(l, "activity") ||
			strings.Contains(l, "last access") || strings.Contains(l, "last seen") || strings.Contains(l, "last login"):
			c.activity = append(c.activity, h)
		case strings.Contains(l, "enrol"):
			c.enrolled = append(c.enrolled, h)
		case strings.Contains(l, "progress") || strings.Contains(l, "completion") || l == "percent complete":
			c.progress = append(c.progress, h)
		case l == "id" || strings.HasSuffix(l, " id") || l == "username" || l == "user name":
			c.id = append(c.id, h)
		}
	}
	return c
}

func isFullNameLabel(l string) bool {
	switch l {
	case "name", "full name", "fullname", "student", "student name", "learner", "learner name", "display name":
		return true
	}
	return false
}

func (c columns) hasName() bool {
	return len(c.fullName) > 0 || len(c.first) > 0 || len(c.last) > 0
}

// identity reports whether label is one of the identity columns, which are
// never read as quizzes.
func (c columns) identity(label string) bool {
	for _, group := range [][]string{c.email, c.fullName, c.first, c.last, c.id} {
		for _, l := range group {
			if l == label {
				return true
			}
		}
	}
	return false
}

func pick(row domain.RawRow, labels []string) string {
	for _, l := range labels {
		if v := strings.TrimSpace(row[l]); v != "" {
			return v
		}
	}
	return ""
}

// names resolves first and last name for row: split columns when they carry
// values, otherwise the combined column split by SplitName.
func (c columns) names(row domain.RawRow) (first, last string) {
	first, last = pick(row, c.first), pick(row, c.last)
	if first != "" || last != "" {
		return first, last
	}
	return SplitName(pick(row, c.fullName))
}

// SplitName splits a combined name. "Last, First" is honored; otherwise the
// first word is the given name and the rest the family name.
func SplitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	if i := strings.Index(full, ","); i >= 0 {
		last = strings.TrimSpace(full[:i])
		first = strings.TrimSpace(full[i+1:])
		return strings.Join(strings.Fields(first), " "), strings.Join(strings.Fields(last), " ")
	}
	parts := strings.Fields(full)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
