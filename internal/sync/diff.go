// Package sync compares two evaluations so certificates are only issued for
// what changed since the previous run.
package sync

import (
	"math"
	"sort"
	"strings"

	"course-cert/internal/eligibility"
)

// Changes lists who joined, who changed and who dropped off the eligible list.
type Changes struct {
	Added   []eligibility.EligibleStudent
	Updated []eligibility.EligibleStudent
	Removed []eligibility.EligibleStudent
}

func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0
}

// Diff compares the previous eligible list with the current one, keyed by
// student identity. Each list in the result is sorted by key.
//   - Added: eligible now but not before
//   - Updated: eligible in both but the course list or score moved
//   - Removed: eligible before but not now
func Diff(previous, current []eligibility.EligibleStudent) Changes {
	prevByID := map[string]eligibility.EligibleStudent{}
	for _, s := range previous {
		prevByID[s.Key()] = s
	}
	curByID := map[string]eligibility.EligibleStudent{}
	for _, s := range current {
		curByID[s.Key()] = s
	}

	var out Changes
	for id, cur := range curByID {
		prev, ok := prevByID[id]
		if !ok {
			out.Added = append(out.Added, cur)
			continue
		}
		if needsUpdate(prev, cur) {
			out.Updated = append(out.Updated, cur)
		}
	}
	for id, prev := range prevByID {
		if _, ok := curByID[id]; !ok {
			out.Removed = append(out.Removed, prev)
		}
	}

	sortByKey(out.Added)
	sortByKey(out.Updated)
	sortByKey(out.Removed)
	return out
}

func needsUpdate(p, c eligibility.EligibleStudent) bool {
	if norm(p.FirstName) != norm(c.FirstName) || norm(p.LastName) != norm(c.LastName) {
		return true
	}

	// Score: tolerate float noise from re-averaging.
	if math.Abs(p.AverageScore-c.AverageScore) > 0.01 {
		return true
	}

	if len(p.AllCourses) != len(c.AllCourses) {
		return true
	}
	for i := range p.AllCourses {
		if p.AllCourses[i] != c.AllCourses[i] {
			return true
		}
	}
	return false
}

func sortByKey(s []eligibility.EligibleStudent) {
	sort.Slice(s, func(i, j int) bool { return s[i].Key() < s[j].Key() })
}

func norm(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
