package tabular

import (
	"regexp"
	"time"

	"course-cert/internal/domain"
	"course-cert/internal/score"
)

// EnrollmentRecord is one usable row of an enrollment export.
type EnrollmentRecord struct {
	FirstName      string
	LastName       string
	Email          string
	EnrollmentDate time.Time
	LastActivity   time.Time
	// ProgressComplete is false only when a progress column reports less
	// than 100%.
	ProgressComplete bool
}

// AssessmentRecord is one (student, quiz) cell of an assessment export.
type AssessmentRecord struct {
	FirstName string
	LastName  string
	Email     string
	Quiz      string
	Score     domain.Score
}

var isoDate = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)

// ExtractDate finds the first YYYY-MM-DD substring in a free-form timestamp.
func ExtractDate(s string) (time.Time, bool) {
	m := isoDate.FindString(s)
	if m == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", m)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Enrollments projects f into enrollment records. Dates that are missing
// default to today, which the caller supplies.
func Enrollments(f domain.SourceFile, today time.Time) ([]EnrollmentRecord, domain.Diagnostics, error) {
	var diag domain.Diagnostics
	c := detectColumns(f.Header)
	if len(c.email) == 0 && !c.hasName() {
		return nil, diag, domain.NewFileError(f.Name, domain.ErrMissingRequiredColumn, "enrollment export needs a name or email column")
	}

	out := make([]EnrollmentRecord, 0, len(f.Rows))
	for _, row := range f.Rows {
		first, last := c.names(row)
		email := pick(row, c.email)
		if first == "" && last == "" && email == "" {
			diag.RowsSkipped++
			continue
		}

		rec := EnrollmentRecord{
			FirstName:        first,
			LastName:         last,
			Email:            email,
			EnrollmentDate:   today,
			LastActivity:     today,
			ProgressComplete: true,
		}
		if t, ok := ExtractDate(pick(row, c.activity)); ok {
			rec.LastActivity = t
		}
		if t, ok := ExtractDate(pick(row, c.enrolled)); ok {
			rec.EnrollmentDate = t
		}
		if p := pick(row, c.progress); p != "" {
			v, ok := score.Normalize(p).Value()
			rec.ProgressComplete = ok && v >= 100
		}
		out = append(out, rec)
	}
	return out, diag, nil
}

// Assessments projects f into one record per (student, quiz). Every header
// that is not an identity column is a quiz. Cells missing from short rows
// produce no record; present but unreadable cells are Incomplete.
func Assessments(f domain.SourceFile) ([]AssessmentRecord, domain.Diagnostics, error) {
	var diag domain.Diagnostics
	c := detectColumns(f.Header)
	if !c.hasName() {
		return nil, diag, domain.NewFileError(f.Name, domain.ErrMissingRequiredColumn, "assessment export needs family/given name or student columns")
	}

	var quizzes []string
	seen := map[string]bool{}
	for _, h := range f.Header {
		if h == "" || seen[h] || c.identity(h) {
			continue
		}
		seen[h] = true
		quizzes = append(quizzes, h)
	}

	var out []AssessmentRecord
	for _, row := range f.Rows {
		first, last := c.names(row)
		email := pick(row, c.email)
		if first == "" && last == "" && email == "" {
			diag.RowsSkipped++
			continue
		}
		n := 0
		for _, q := range quizzes {
			cell, ok := row[q]
			if !ok {
				continue
			}
			out = append(out, AssessmentRecord{
				FirstName: first,
				LastName:  last,
				Email:     email,
				Quiz:      q,
				Score:     score.Normalize(cell),
			})
			n++
		}
		if n == 0 {
			diag.RowsSkipped++
		}
	}
	return out, diag, nil
}
