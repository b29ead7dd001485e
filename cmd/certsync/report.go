package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"course-cert/internal/eligibility"
	"course-cert/internal/export"
	"course-cert/internal/sftpclient"
	"course-cert/internal/store"
)

func (a *app) newReportCommand() *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Re-evaluate the latest stored run with the current settings",
		Example: `  certsync report --threshold 85
  certsync report --since 2024-01-01 --out -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			settings, err := a.settings(out.threshold, out.since)
			if err != nil {
				return err
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := st.Latest(ctx)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("nothing to report: run `certsync run <dir>` first")
			}
			if err != nil {
				return err
			}
			a.logger.Info().Str("run_id", snap.RunID).Time("created_at", snap.CreatedAt).Msg("snapshot loaded")

			res := eligibility.Evaluate(snap.Aggregates, settings, a.evalOptions())
			return a.writeReports(cmd, res, out)
		},
	}

	out.register(cmd)
	return cmd
}

// writeReports prints the stats and writes the requested report files.
func (a *app) writeReports(cmd *cobra.Command, res eligibility.Result, out outputFlags) error {
	if out.csvPath != "-" {
		printStats(cmd.OutOrStdout(), res.Stats)
	}

	switch out.csvPath {
	case "":
	case "-":
		if err := export.WriteEligibleCSV(cmd.OutOrStdout(), res.Eligible); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	default:
		if err := writeFile(out.csvPath, func(w io.Writer) error {
			return export.WriteEligibleCSV(w, res.Eligible)
		}); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		a.logger.Info().Str("path", out.csvPath).Int("eligible", len(res.Eligible)).Msg("csv written")
	}

	if out.xlsxPath != "" {
		if err := writeFile(out.xlsxPath, func(w io.Writer) error {
			return export.WriteEligibleXLSX(w, res)
		}); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		a.logger.Info().Str("path", out.xlsxPath).Msg("xlsx written")
	}
	return nil
}

func (a *app) deliver(ctx context.Context, csvPath string) error {
	if csvPath == "" || csvPath == "-" {
		return fmt.Errorf("--sftp needs a CSV file (--out)")
	}
	c := a.cfg.SFTP
	cfg := sftpclient.Config{
		Host:                  c.Host,
		Port:                  c.Port,
		User:                  c.User,
		Pass:                  c.Pass,
		RemoteDir:             c.Dir,
		KnownHosts:            c.KnownHosts,
		InsecureIgnoreHostKey: c.InsecureIgnoreHostKey,
	}
	if err := sftpclient.UploadFile(ctx, cfg, csvPath, filepath.Base(csvPath)); err != nil {
		return err
	}
	a.logger.Info().Str("host", c.Host).Str("dir", c.Dir).Msg("report uploaded")
	return nil
}

func printStats(w io.Writer, s eligibility.Stats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Students\t%d\n", s.TotalStudents)
	fmt.Fprintf(tw, "Eligible\t%d\n", s.EligibleStudents)
	fmt.Fprintf(tw, "Average score\t%.2f\n", s.AverageScore)
	fmt.Fprintf(tw, "Pass rate\t%.2f%%\n", s.PassRate)
	_ = tw.Flush()
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
