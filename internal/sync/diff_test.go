package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"course-cert/internal/domain"
	"course-cert/internal/eligibility"
)

func student(email string, avg float64, courses ...string) eligibility.EligibleStudent {
	return eligibility.EligibleStudent{
		StudentAggregate: domain.StudentAggregate{FirstName: "F", LastName: "L", Email: email, AverageScore: avg},
		AllCourses:       courses,
	}
}

func emails(s []eligibility.EligibleStudent) []string {
	var out []string
	for _, x := range s {
		out = append(out, x.Email)
	}
	return out
}

func TestDiff(t *testing.T) {
	previous := []eligibility.EligibleStudent{
		student("same@x.com", 80, "aifi"),
		student("noise@x.com", 80, "aifi"),
		student("more@x.com", 80, "aifi"),
		student("gone@x.com", 80, "aifi"),
	}
	current := []eligibility.EligibleStudent{
		student("new@x.com", 90, "aifi"),
		student("more@x.com", 80, "aifi", "bio"),
		student("noise@x.com", 80.001, "aifi"),
		student("same@x.com", 80, "aifi"),
		student("b-new@x.com", 70, "aifi"),
	}

	got := Diff(previous, current)
	assert.Equal(t, []string{"b-new@x.com", "new@x.com"}, emails(got.Added))
	assert.Equal(t, []string{"more@x.com"}, emails(got.Updated))
	assert.Equal(t, []string{"gone@x.com"}, emails(got.Removed))
	assert.False(t, got.Empty())
}

func TestDiffNoPrevious(t *testing.T) {
	current := []eligibility.EligibleStudent{student("a@x.com", 90, "c")}

	got := Diff(nil, current)
	assert.Equal(t, []string{"a@x.com"}, emails(got.Added))
	assert.Empty(t, got.Updated)
	assert.Empty(t, got.Removed)

	assert.True(t, Diff(current, current).Empty())
}
