// Package eligibility decides who is certified across a whole course series.
package eligibility

import (
	"sort"
	"time"

	"course-cert/internal/domain"
	"course-cert/internal/series"
)

// Options carry the policy that is not part of the operator Settings.
type Options struct {
	Policy series.Policy
	Deny   domain.DenyList
}

// EligibleStudent is emitted once per certified student. AverageScore is the
// mean of the student's per-course averages.
type EligibleStudent struct {
	domain.StudentAggregate
	AllCourses []string `json:"allCourses"`
}

// Stats summarize one evaluation. All rates are 0 when there are no students.
type Stats struct {
	TotalStudents    int     `json:"totalStudents"`
	EligibleStudents int     `json:"eligibleStudents"`
	AverageScore     float64 `json:"averageScore"`
	PassRate         float64 `json:"passRate"`
}

type Result struct {
	Eligible []EligibleStudent `json:"eligible"`
	Stats    Stats             `json:"stats"`
}

// Evaluate applies settings to aggregates. A student is eligible when, for
// every series they appear in, they hold every course of that series seen in
// the input and each of those records passes the threshold and is completed.
func Evaluate(aggregates []domain.StudentAggregate, settings domain.Settings, opts Options) Result {
	policy := opts.Policy
	if policy == (series.Policy{}) {
		policy = series.DefaultPolicy()
	}

	universe := map[string]map[string]bool{}
	for _, a := range aggregates {
		s := policy.SeriesOf(a.CourseID)
		if universe[s] == nil {
			universe[s] = map[string]bool{}
		}
		universe[s][a.CourseID] = true
	}

	var retained []domain.StudentAggregate
	for _, a := range aggregates {
		if settings.DateSince != nil && dateOnly(a.LastActivityDate).Before(dateOnly(*settings.DateSince)) {
			continue
		}
		retained = append(retained, a)
	}

	var order []string
	byStudent := map[string][]domain.StudentAggregate{}
	var scoreSum float64
	for _, a := range retained {
		k := a.Key()
		if _, ok := byStudent[k]; !ok {
			order = append(order, k)
		}
		byStudent[k] = append(byStudent[k], a)
		scoreSum += a.AverageScore
	}

	var res Result
	for _, k := range order {
		recs := byStudent[k]
		if !eligible(recs, universe, settings.PassThreshold, policy, opts.Deny) {
			continue
		}
		res.Eligible = append(res.Eligible, summarize(recs))
	}

	res.Stats.TotalStudents = len(order)
	res.Stats.EligibleStudents = len(res.Eligible)
	if len(order) > 0 {
		res.Stats.AverageScore = scoreSum / float64(len(retained))
		res.Stats.PassRate = float64(len(res.Eligible)) / float64(len(order)) * 100
	}
	return res
}

func eligible(recs []domain.StudentAggregate, universe map[string]map[string]bool, threshold float64, policy series.Policy, deny domain.DenyList) bool {
	first := recs[0]
	if deny.EmailExcluded(first.Email) || deny.NameExcluded(first.FullName()) {
		return false
	}

	held := map[string]map[string]bool{}
	for _, r := range recs {
		if r.AverageScore < threshold || !r.Completed {
			return false
		}
		s := policy.SeriesOf(r.CourseID)
		if held[s] == nil {
			held[s] = map[string]bool{}
		}
		held[s][r.CourseID] = true
	}

	for s, courses := range held {
		for c := range universe[s] {
			if !courses[c] {
				return false
			}
		}
	}
	return true
}

func summarize(recs []domain.StudentAggregate) EligibleStudent {
	out := EligibleStudent{StudentAggregate: recs[0]}
	out.QuizScores = nil

	seen := map[string]bool{}
	var sum float64
	for _, r := range recs {
		sum += r.AverageScore
		if r.LastActivityDate.After(out.LastActivityDate) {
			out.LastActivityDate = r.LastActivityDate
		}
		if !seen[r.CourseID] {
			seen[r.CourseID] = true
			out.AllCourses = append(out.AllCourses, r.CourseID)
		}
	}
	sort.Strings(out.AllCourses)
	out.AverageScore = sum / float64(len(recs))
	return out
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
