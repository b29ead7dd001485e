// Package reconcile matches assessment rows to enrollment rows for one
// canonical course and builds the per-student aggregates.
package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"course-cert/internal/domain"
	"course-cert/internal/tabular"
)

// Options configure one reconciliation. Today is the default for missing
// dates; the engine never reads the clock.
type Options struct {
	Today  time.Time
	Deny   domain.DenyList
	Logger *zerolog.Logger
}

func (o Options) logger() *zerolog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

// Result is the outcome for one course.
type Result struct {
	CourseID    string
	Aggregates  []domain.StudentAggregate
	Diagnostics domain.Diagnostics
	// Skipped is set when one of the two files is absent or has no rows.
	Skipped string
}

// Reconcile builds aggregates for the course shared by enrollment and
// assessment. Structural problems with either file are returned as errors;
// row-level problems only reduce the output and show up in Diagnostics.
func Reconcile(enrollment, assessment domain.SourceFile, opts Options) (Result, error) {
	res := Result{CourseID: enrollment.CourseID}
	if res.CourseID == "" {
		res.CourseID = assessment.CourseID
	}
	switch {
	case len(enrollment.Rows) == 0:
		res.Skipped = "no enrollment rows"
		return res, nil
	case len(assessment.Rows) == 0:
		res.Skipped = "no assessment rows"
		return res, nil
	}

	log := opts.logger().With().Str("course", res.CourseID).Logger()

	enrollments, diag, err := tabular.Enrollments(enrollment, opts.Today)
	if err != nil {
		return res, fmt.Errorf("reconcile: enrollments: %w", err)
	}
	res.Diagnostics.Add(diag)

	assessments, diag, err := tabular.Assessments(assessment)
	if err != nil {
		return res, fmt.Errorf("reconcile: assessments: %w", err)
	}
	res.Diagnostics.Add(diag)

	table, ix, excluded := buildTable(res.CourseID, enrollments, opts.Deny)
	res.Diagnostics.ExcludedRows += excluded

	unmatched := map[string]bool{}
	for _, a := range assessments {
		agg, ok := ix.Lookup(a.FirstName, a.LastName, a.Email)
		if !ok {
			id := strings.ToLower(a.FirstName + "|" + a.LastName + "|" + a.Email)
			if !unmatched[id] {
				unmatched[id] = true
				log.Debug().
					Str("first_name", a.FirstName).
					Str("last_name", a.LastName).
					Str("email", a.Email).
					Msg("unmatched assessment row")
			}
			continue
		}
		agg.SetQuizScore(a.Quiz, a.Score)
	}
	res.Diagnostics.UnmatchedAssessmentRows = len(unmatched)

	res.Aggregates = make([]domain.StudentAggregate, 0, len(table))
	for _, agg := range table {
		if len(agg.QuizScores) == 0 {
			continue
		}
		if agg.FullName() == "" && strings.TrimSpace(agg.Email) == "" {
			res.Diagnostics.RowsSkipped++
			continue
		}
		if opts.Deny.NameExcluded(agg.FullName()) {
			res.Diagnostics.ExcludedRows++
			log.Debug().Str("email", agg.Email).Msg("excluded by name")
			continue
		}
		out := *agg
		out.QuizScores = append([]domain.QuizScore(nil), agg.QuizScores...)
		res.Aggregates = append(res.Aggregates, out)
	}
	return res, nil
}

// buildTable turns enrollment records into one aggregate per student, in
// first-seen order, and indexes them. Duplicate rows for the same student
// (merged sections) fold into one aggregate.
func buildTable(courseID string, recs []tabular.EnrollmentRecord, deny domain.DenyList) ([]*domain.StudentAggregate, *Index, int) {
	var table []*domain.StudentAggregate
	byEmail := map[string]*domain.StudentAggregate{}
	byName := map[string]*domain.StudentAggregate{}
	excluded := 0

	for _, r := range recs {
		if deny.DomainExcluded(r.Email) {
			excluded++
			continue
		}
		email := strings.ToLower(strings.TrimSpace(r.Email))
		nameKey := NamePart(r.FirstName) + " " + NamePart(r.LastName)

		var agg *domain.StudentAggregate
		if email != "" {
			agg = byEmail[email]
		} else {
			agg = byName[nameKey]
		}
		if agg != nil {
			foldEnrollment(agg, r)
			continue
		}

		agg = &domain.StudentAggregate{
			FirstName:        r.FirstName,
			LastName:         r.LastName,
			Email:            email,
			CourseID:         courseID,
			EnrollmentDate:   r.EnrollmentDate,
			LastActivityDate: r.LastActivity,
			ProgressComplete: r.ProgressComplete,
		}
		table = append(table, agg)
		if email != "" {
			byEmail[email] = agg
		} else {
			byName[nameKey] = agg
		}
	}

	ix := NewIndex()
	for _, agg := range table {
		ix.Add(agg)
	}
	return table, ix, excluded
}

func foldEnrollment(agg *domain.StudentAggregate, r tabular.EnrollmentRecord) {
	if agg.FirstName == "" && agg.LastName == "" {
		agg.FirstName, agg.LastName = r.FirstName, r.LastName
	}
	if r.LastActivity.After(agg.LastActivityDate) {
		agg.LastActivityDate = r.LastActivity
	}
	if r.EnrollmentDate.Before(agg.EnrollmentDate) {
		agg.EnrollmentDate = r.EnrollmentDate
	}
	agg.ProgressComplete = agg.ProgressComplete && r.ProgressComplete
}
