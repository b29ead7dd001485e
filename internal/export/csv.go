// Package export formats eligibility results for the people who issue the
// certificates.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"course-cert/internal/eligibility"
)

// Keep header order EXACT; downstream mail merges key on it.
var eligibleHeader = []string{
	"First Name",
	"Last Name",
	"Email",
	"Average Score",
	"Last Activity",
	"Courses",
}

const dateLayout = "2006-01-02"

// WriteEligibleCSV writes one row per certified student.
func WriteEligibleCSV(w io.Writer, students []eligibility.EligibleStudent) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(eligibleHeader); err != nil {
		return err
	}
	for _, s := range students {
		if err := cw.Write(toEligibleRow(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func toEligibleRow(s eligibility.EligibleStudent) []string {
	last := ""
	if !s.LastActivityDate.IsZero() {
		last = s.LastActivityDate.Format(dateLayout)
	}
	return []string{
		s.FirstName,
		s.LastName,
		s.Email,
		formatScore(s.AverageScore),
		last,
		strings.Join(cleanStrings(s.AllCourses), " | "),
	}
}

// formatScore rounds to two decimals and drops trailing zeros: 90, 83.33.
func formatScore(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		s = strings.ReplaceAll(s, "\n", " ")
		s = strings.ReplaceAll(s, "\r", " ")
		out = append(out, s)
	}
	return out
}
