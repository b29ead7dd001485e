package domain

import (
	"strings"
	"time"
)

// QuizScore is one quiz column matched to a student.
type QuizScore struct {
	QuizName string `json:"quizName"`
	Score    Score  `json:"score"`
}

// StudentAggregate is one student's reconciled record inside one canonical
// course. A student enrolled in several courses has one aggregate per course.
type StudentAggregate struct {
	FirstName        string      `json:"firstName"`
	LastName         string      `json:"lastName"`
	Email            string      `json:"email"`
	CourseID         string      `json:"courseId"`
	EnrollmentDate   time.Time   `json:"enrollmentDate"`
	LastActivityDate time.Time   `json:"lastActivityDate"`
	QuizScores       []QuizScore `json:"quizScores"`
	AverageScore     float64     `json:"averageScore"`
	Completed        bool        `json:"completed"`

	// ProgressComplete is false when the enrollment export reported progress
	// below 100%. Exports without a progress column leave it true.
	ProgressComplete bool `json:"progressComplete"`
}

// Key is the identity used to link aggregates across courses: the email when
// known, otherwise the lower-cased full name.
func (s StudentAggregate) Key() string {
	if e := strings.ToLower(strings.TrimSpace(s.Email)); e != "" {
		return e
	}
	return "name:" + strings.ToLower(strings.TrimSpace(s.FirstName+" "+s.LastName))
}

// FullName joins the non-empty name parts.
func (s StudentAggregate) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(s.FirstName) + " " + strings.TrimSpace(s.LastName))
}

// SetQuizScore records score for quiz, replacing an earlier entry with the
// same name, and refreshes the derived fields.
func (s *StudentAggregate) SetQuizScore(quiz string, score Score) {
	replaced := false
	for i := range s.QuizScores {
		if s.QuizScores[i].QuizName == quiz {
			s.QuizScores[i].Score = score
			replaced = true
			break
		}
	}
	if !replaced {
		s.QuizScores = append(s.QuizScores, QuizScore{QuizName: quiz, Score: score})
	}
	s.Recompute()
}

// Recompute derives AverageScore and Completed from QuizScores.
// Incomplete scores are left out of the mean; no valid score gives 0.
func (s *StudentAggregate) Recompute() {
	var sum float64
	var n int
	missing := 0
	for _, q := range s.QuizScores {
		v, ok := q.Score.Value()
		if !ok {
			missing++
			continue
		}
		sum += v
		n++
	}
	s.AverageScore = 0
	if n > 0 {
		s.AverageScore = sum / float64(n)
	}
	s.Completed = len(s.QuizScores) > 0 && missing == 0 && s.ProgressComplete
}

// MissingCount is the number of Incomplete quiz scores.
func (s StudentAggregate) MissingCount() int {
	n := 0
	for _, q := range s.QuizScores {
		if q.Score.IsIncomplete() {
			n++
		}
	}
	return n
}
