// Package pipeline runs one processing batch: parse every upload, group
// multi-section courses, pair enrollment with assessment files and reconcile
// each course. Every run derives its own prefixes and identity indexes.
package pipeline

import (
	"context"
	"errors"
	"sort"
	"time"

	"course-cert/internal/concurrency"
	"course-cert/internal/domain"
	"course-cert/internal/logging"
	"course-cert/internal/reconcile"
	"course-cert/internal/series"
	"course-cert/internal/tabular"
	"course-cert/internal/uploads"
)

type Options struct {
	// Today fills missing dates. Required; the pipeline never reads the clock.
	Today   time.Time
	Policy  series.Policy
	Deny    domain.DenyList
	Workers int
}

// SkippedCourse is a course that produced no aggregates and why.
type SkippedCourse struct {
	CourseID string `json:"courseId"`
	Reason   string `json:"reason"`
}

// Batch is the outcome of a run. Data-quality problems never fail a run; they
// show up in FileErrors, Skipped and Diagnostics.
type Batch struct {
	Aggregates  []domain.StudentAggregate
	Prefixes    []string
	Courses     []string
	Skipped     []SkippedCourse
	FileErrors  []error
	Diagnostics domain.Diagnostics
}

type coursePair struct {
	id         string
	enrollment *domain.SourceFile
	assessment *domain.SourceFile
}

// Run processes ups. It only returns an error when ctx ends first.
func Run(ctx context.Context, ups []uploads.Upload, opts Options) (Batch, error) {
	log := logging.FromContext(ctx)
	policy := opts.Policy
	if policy == (series.Policy{}) {
		policy = series.DefaultPolicy()
	}
	workers := concurrency.ParallelOptions{MaxWorkers: opts.Workers}

	var batch Batch

	parsed, errs := concurrency.ProcessParallel(ctx, ups, workers, func(ctx context.Context, _ int, u uploads.Upload) (*domain.SourceFile, error) {
		f, err := tabular.Parse(u.Name, u.Content)
		if err != nil {
			return nil, err
		}
		return &f, nil
	})
	if err := ctx.Err(); err != nil {
		return batch, err
	}
	for _, err := range errs {
		log.Warn().Err(err).Msg("upload rejected")
		batch.FileErrors = append(batch.FileErrors, unwrapItem(err))
	}

	var files []domain.SourceFile
	ids := make([]string, 0, len(parsed))
	for _, f := range parsed {
		if f != nil {
			files = append(files, *f)
			ids = append(ids, f.CourseID)
		}
	}
	batch.Prefixes = policy.DetectPrefixes(ids)

	pairs := pairCourses(policy.Merge(files))
	var work []coursePair
	for _, p := range pairs {
		batch.Courses = append(batch.Courses, p.id)
		switch {
		case p.enrollment == nil:
			batch.Skipped = append(batch.Skipped, SkippedCourse{CourseID: p.id, Reason: "missing enrollment export"})
		case p.assessment == nil:
			batch.Skipped = append(batch.Skipped, SkippedCourse{CourseID: p.id, Reason: "missing assessment export"})
		default:
			work = append(work, p)
			continue
		}
		log.Warn().Str("course", p.id).Msg("course skipped: export pair incomplete")
	}

	rOpts := reconcile.Options{Today: opts.Today, Deny: opts.Deny, Logger: log}
	results, _ := concurrency.ProcessParallel(ctx, work, workers, func(ctx context.Context, _ int, p coursePair) (result, error) {
		res, err := reconcile.Reconcile(*p.enrollment, *p.assessment, rOpts)
		return result{res: res, err: err}, nil
	})
	if err := ctx.Err(); err != nil {
		return batch, err
	}

	for i, r := range results {
		id := work[i].id
		if r.err != nil {
			log.Warn().Err(r.err).Str("course", id).Msg("course skipped")
			batch.FileErrors = append(batch.FileErrors, r.err)
			batch.Skipped = append(batch.Skipped, SkippedCourse{CourseID: id, Reason: r.err.Error()})
			continue
		}
		if r.res.Skipped != "" {
			batch.Skipped = append(batch.Skipped, SkippedCourse{CourseID: id, Reason: r.res.Skipped})
		}
		batch.Diagnostics.Add(r.res.Diagnostics)
		batch.Aggregates = append(batch.Aggregates, r.res.Aggregates...)
		log.Info().
			Str("course", id).
			Int("enrollments", len(work[i].enrollment.Rows)).
			Int("assessments", len(work[i].assessment.Rows)).
			Int("aggregates", len(r.res.Aggregates)).
			Int("unmatched", r.res.Diagnostics.UnmatchedAssessmentRows).
			Msg("course reconciled")
	}
	return batch, nil
}

type result struct {
	res reconcile.Result
	err error
}

// pairCourses groups merged files by canonical course, sorted by course id.
func pairCourses(files []domain.SourceFile) []coursePair {
	byID := map[string]*coursePair{}
	for i := range files {
		f := &files[i]
		p, ok := byID[f.CourseID]
		if !ok {
			p = &coursePair{id: f.CourseID}
			byID[f.CourseID] = p
		}
		if f.StreamType == domain.Assessment {
			p.assessment = f
		} else {
			p.enrollment = f
		}
	}

	out := make([]coursePair, 0, len(byID))
	for _, p := range byID {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// unwrapItem drops the worker pool's index wrapper so callers see the
// tabular error itself.
func unwrapItem(err error) error {
	if inner := errors.Unwrap(err); inner != nil {
		return inner
	}
	return err
}
