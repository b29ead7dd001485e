package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"course-cert/internal/domain"
	"course-cert/internal/eligibility"
	"course-cert/internal/pipeline"
	"course-cert/internal/store"
	"course-cert/internal/sync"
	"course-cert/internal/uploads"
)

type outputFlags struct {
	csvPath   string
	xlsxPath  string
	threshold float64
	since     string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.csvPath, "out", "eligible.csv", "CSV report path (\"-\" for stdout, \"\" to skip)")
	cmd.Flags().StringVar(&o.xlsxPath, "xlsx", "", "also write an XLSX workbook to this path")
	cmd.Flags().Float64Var(&o.threshold, "threshold", -1, "pass threshold override (0-100)")
	cmd.Flags().StringVar(&o.since, "since", "", "only count activity on or after this date (YYYY-MM-DD)")
}

func (a *app) newRunCommand() *cobra.Command {
	var (
		out     outputFlags
		today   string
		sftpUp  bool
		noSave  bool
		newOnly bool
	)

	cmd := &cobra.Command{
		Use:   "run <dir>",
		Short: "Reconcile a directory of exports and write the eligibility report",
		Example: `  certsync run ./exports
  certsync run ./exports --out - --threshold 80
  certsync run ./exports --xlsx report.xlsx --sftp`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			day := time.Now().UTC()
			if today != "" {
				t, err := time.Parse(dateLayout, today)
				if err != nil {
					return fmt.Errorf("--today: %w", err)
				}
				day = t
			}
			settings, err := a.settings(out.threshold, out.since)
			if err != nil {
				return err
			}

			src := uploads.Dir{Path: args[0]}
			ups, err := src.List(ctx)
			if err != nil {
				return err
			}
			a.logger.Info().Str("source", src.Name()).Int("files", len(ups)).Msg("uploads loaded")

			batch, err := pipeline.Run(ctx, ups, pipeline.Options{
				Today:   day,
				Policy:  a.cfg.Policy(),
				Deny:    a.cfg.DenyList(),
				Workers: a.cfg.Workers,
			})
			if err != nil {
				return err
			}
			for _, s := range batch.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", s.CourseID, s.Reason)
			}

			res := eligibility.Evaluate(batch.Aggregates, settings, a.evalOptions())
			if !noSave {
				if err := a.saveAndDiff(ctx, cmd, settings, batch.Aggregates, res); err != nil {
					return err
				}
			}

			a.logger.Info().
				Int("rows_skipped", batch.Diagnostics.RowsSkipped).
				Int("excluded", batch.Diagnostics.ExcludedRows).
				Int("unmatched", batch.Diagnostics.UnmatchedAssessmentRows).
				Int("file_errors", len(batch.FileErrors)).
				Msg("batch done")

			if newOnly {
				res.Eligible = a.lastChanges.Added
			}
			if err := a.writeReports(cmd, res, out); err != nil {
				return err
			}
			if sftpUp {
				return a.deliver(ctx, out.csvPath)
			}
			return nil
		},
	}

	out.register(cmd)
	cmd.Flags().StringVar(&today, "today", "", "date used when an export has no dates (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&sftpUp, "sftp", false, "upload the CSV report over SFTP")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store a snapshot of this run")
	cmd.Flags().BoolVar(&newOnly, "new-only", false, "report only students not eligible in the previous run")
	cmd.MarkFlagsMutuallyExclusive("no-save", "new-only")
	return cmd
}

// saveAndDiff compares this run with the previous snapshot, evaluated under the
// same settings, and then stores this run.
func (a *app) saveAndDiff(ctx context.Context, cmd *cobra.Command, settings domain.Settings, aggs []domain.StudentAggregate, res eligibility.Result) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var previous []eligibility.EligibleStudent
	prev, err := st.Latest(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return fmt.Errorf("load previous snapshot: %w", err)
	default:
		previous = eligibility.Evaluate(prev.Aggregates, settings, a.evalOptions()).Eligible
	}

	a.lastChanges = sync.Diff(previous, res.Eligible)
	for _, s := range a.lastChanges.Removed {
		fmt.Fprintf(cmd.ErrOrStderr(), "no longer eligible: %s\n", s.Key())
	}
	a.logger.Info().
		Int("added", len(a.lastChanges.Added)).
		Int("updated", len(a.lastChanges.Updated)).
		Int("removed", len(a.lastChanges.Removed)).
		Msg("compared with previous run")

	snap := store.NewSnapshot(time.Now(), settings, aggs)
	if err := st.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	a.logger.Info().Str("run_id", snap.RunID).Int("aggregates", len(snap.Aggregates)).Msg("snapshot saved")
	return nil
}
