// Package series collapses multi-section course exports into one logical
// course and names the coarser series used for eligibility scope.
package series

import (
	"sort"
	"strings"

	"course-cert/internal/domain"
)

// Policy holds both multi-section rules in one place. PrefixLength drives
// file merging; Separator drives the eligibility series.
type Policy struct {
	PrefixLength int    `yaml:"prefix_length"`
	Separator    string `yaml:"separator"`
}

// DefaultPolicy merges on the first four characters and scopes eligibility
// by the text before the first underscore.
func DefaultPolicy() Policy {
	return Policy{PrefixLength: 4, Separator: "_"}
}

func (p Policy) prefixLength() int {
	if p.PrefixLength <= 0 {
		return DefaultPolicy().PrefixLength
	}
	return p.PrefixLength
}

// Candidate is the merge prefix proposed by courseID, or "" when the id is
// too short to ever be merged.
func (p Policy) Candidate(courseID string) string {
	r := []rune(courseID)
	n := p.prefixLength()
	if len(r) < n {
		return ""
	}
	return string(r[:n])
}

// SeriesOf is the eligibility series of a canonical course id: the text before
// the first separator, or the whole id.
func (p Policy) SeriesOf(courseID string) string {
	if p.Separator == "" {
		return courseID
	}
	if i := strings.Index(courseID, p.Separator); i >= 0 {
		return courseID[:i]
	}
	return courseID
}

// DetectPrefixes returns, sorted, the candidate prefixes shared by at least two
// distinct course ids.
func (p Policy) DetectPrefixes(courseIDs []string) []string {
	owners := map[string]map[string]bool{}
	for _, id := range courseIDs {
		c := p.Candidate(id)
		if c == "" {
			continue
		}
		if owners[c] == nil {
			owners[c] = map[string]bool{}
		}
		owners[c][id] = true
	}

	var out []string
	for c, ids := range owners {
		if len(ids) >= 2 {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// DetectPrefixes uses DefaultPolicy.
func DetectPrefixes(courseIDs []string) []string {
	return DefaultPolicy().DetectPrefixes(courseIDs)
}

// Canonicalize returns the longest prefix in prefixes that courseID starts
// with, or courseID itself.
func Canonicalize(courseID string, prefixes []string) string {
	best := ""
	for _, pre := range prefixes {
		if len(pre) > len(best) && strings.HasPrefix(courseID, pre) {
			best = pre
		}
	}
	if best == "" {
		return courseID
	}
	return best
}

// Merge rewrites every file to its canonical course id and concatenates files
// that share (course, stream type). Output keeps first-seen order and the
// rows of earlier files come first. Prefixes are derived from this batch only.
func (p Policy) Merge(files []domain.SourceFile) []domain.SourceFile {
	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.CourseID)
	}
	prefixes := p.DetectPrefixes(ids)

	type key struct {
		course string
		stream domain.StreamType
	}
	index := map[key]int{}
	var out []domain.SourceFile

	for _, f := range files {
		k := key{course: Canonicalize(f.CourseID, prefixes), stream: f.StreamType}
		i, ok := index[k]
		if !ok {
			merged := f.WithCourseID(k.course)
			merged.Header = append([]string(nil), f.Header...)
			merged.Rows = append([]domain.RawRow(nil), f.Rows...)
			index[k] = len(out)
			out = append(out, merged)
			continue
		}
		out[i].Name = out[i].Name + "+" + f.Name
		out[i].Header = unionHeader(out[i].Header, f.Header)
		out[i].Rows = append(out[i].Rows, f.Rows...)
	}
	return out
}

func unionHeader(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, h := range a {
		seen[h] = true
	}
	for _, h := range b {
		if !seen[h] {
			seen[h] = true
			a = append(a, h)
		}
	}
	return a
}
