package domain

import (
	"strings"
	"time"
)

// Settings is the eligibility policy supplied by the operator.
type Settings struct {
	PassThreshold float64    `json:"passThreshold" yaml:"pass_threshold"`
	DateSince     *time.Time `json:"dateSince,omitempty" yaml:"date_since"`
}

// NamePair excludes anyone whose full name contains both tokens.
type NamePair struct {
	First string `json:"first" yaml:"first"`
	Last  string `json:"last" yaml:"last"`
}

// DenyList holds the people and domains that never count toward
// certification: test accounts, staff, and named individuals.
type DenyList struct {
	// Domains drops enrollment rows whose email ends in one of them.
	Domains []string `json:"domains" yaml:"domains"`
	// Emails excludes students whose email contains one of them.
	Emails []string `json:"emails" yaml:"emails"`

	Names []NamePair `json:"names" yaml:"names"`
}

// DomainExcluded reports whether email belongs to a denied domain or one of
// its subdomains. "school.edu" matches "a@school.edu" and "a@mail.school.edu"
// but not "a@highschool.edu".
func (d DenyList) DomainExcluded(email string) bool {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return false
	}
	for _, dom := range d.Domains {
		dom = strings.TrimLeft(strings.ToLower(strings.TrimSpace(dom)), "@.")
		if dom == "" {
			continue
		}
		if strings.HasSuffix(e, "@"+dom) || strings.HasSuffix(e, "."+dom) {
			return true
		}
	}
	return false
}

// EmailExcluded reports whether email contains a denied fragment.
func (d DenyList) EmailExcluded(email string) bool {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return false
	}
	for _, frag := range d.Emails {
		frag = strings.ToLower(strings.TrimSpace(frag))
		if frag != "" && strings.Contains(e, frag) {
			return true
		}
	}
	return false
}

// NameExcluded reports whether fullName contains both tokens of some pair.
func (d DenyList) NameExcluded(fullName string) bool {
	n := strings.ToLower(fullName)
	if strings.TrimSpace(n) == "" {
		return false
	}
	for _, p := range d.Names {
		first := strings.ToLower(strings.TrimSpace(p.First))
		last := strings.ToLower(strings.TrimSpace(p.Last))
		if first == "" || last == "" {
			continue
		}
		if strings.Contains(n, first) && strings.Contains(n, last) {
			return true
		}
	}
	return false
}
