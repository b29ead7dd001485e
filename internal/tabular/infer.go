package tabular

import (
	"path/filepath"
	"strings"

	"course-cert/internal/domain"
)

// Filename suffix tokens. The longest match wins, so "quiz_scores" beats "scores".
var (
	assessmentSuffixes = []string{
		"quiz_scores", "quiz-scores", "quizscores", "quiz_score",
		"assessments", "assessment", "quizzes", "scores", "grades",
		"score", "quiz",
	}
	enrollmentSuffixes = []string{
		"enrollments", "enrolments", "enrollment", "enrolment",
		"activity", "students", "roster",
	}
	assessmentMarkers = []string{"quiz", "score", "grade", "assessment"}
)

const idSeparators = "_-. "

// InferStreamType reports Assessment when the filename carries a quiz/score
// marker or the header has a family-name style column.
func InferStreamType(filename string, header []string) domain.StreamType {
	stem := strings.ToLower(stemOf(filename))
	for _, m := range assessmentMarkers {
		if strings.Contains(stem, m) {
			return domain.Assessment
		}
	}
	for _, h := range header {
		l := normalizeLabel(h)
		if strings.Contains(l, "family") || strings.Contains(l, "surname") {
			return domain.Assessment
		}
	}
	return domain.Enrollment
}

// InferCourseID strips the extension and one known export suffix from the
// filename. A name without a known suffix is its own course id.
func InferCourseID(filename string) string {
	stem := strings.TrimSpace(stemOf(filename))

	best := ""
	for _, tok := range append(append([]string{}, assessmentSuffixes...), enrollmentSuffixes...) {
		if len(tok) > len(best) && hasSuffixFold(stem, tok) {
			best = tok
		}
	}
	if best == "" {
		return stem
	}

	id := strings.TrimRight(stem[:len(stem)-len(best)], idSeparators)
	if id == "" {
		return stem
	}
	return id
}

func stemOf(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
