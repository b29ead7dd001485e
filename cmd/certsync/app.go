package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"course-cert/internal/config"
	"course-cert/internal/domain"
	"course-cert/internal/eligibility"
	"course-cert/internal/logging"
	"course-cert/internal/store"
	"course-cert/internal/sync"
)

// app is shared by every subcommand once the root pre-run has loaded it.
type app struct {
	envFile  string
	logLevel string

	cfg    *config.Config
	logger zerolog.Logger

	// lastChanges is filled by run when a snapshot is stored.
	lastChanges sync.Changes
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "certsync",
		Short: "Course certification reconciler",
		Long: `certsync joins enrollment and quiz-score exports from the course platform,
merges multi-section courses and lists the students eligible for a
certificate.

Configuration comes from CERTSYNC_* environment variables, an optional .env
file and an optional YAML policy file (CERTSYNC_POLICY_FILE).`,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides CERTSYNC_LOG_LEVEL)")

	root.AddCommand(a.newRunCommand())
	root.AddCommand(a.newReportCommand())
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.logger = logging.New(logging.Config{Level: level, Format: cfg.LogFormat, Output: cmd.ErrOrStderr()})
	cmd.SetContext(logging.WithLogger(cmd.Context(), &a.logger))
	return nil
}

// settings applies the per-command overrides on top of the configured policy.
func (a *app) settings(threshold float64, since string) (domain.Settings, error) {
	s, err := a.cfg.Settings()
	if err != nil {
		return s, err
	}
	if threshold >= 0 {
		if threshold > 100 {
			return s, fmt.Errorf("--threshold must be between 0 and 100, got %v", threshold)
		}
		s.PassThreshold = threshold
	}
	if since != "" {
		t, err := time.Parse(dateLayout, since)
		if err != nil {
			return s, fmt.Errorf("--since: %w", err)
		}
		s.DateSince = &t
	}
	return s, nil
}

func (a *app) openStore() (store.Store, error) {
	switch a.cfg.Store {
	case "sqlite":
		return store.OpenSQLite(a.cfg.DBPath)
	default:
		return store.NewFileStore(a.cfg.SnapshotPath), nil
	}
}

func (a *app) evalOptions() eligibility.Options {
	return eligibility.Options{Policy: a.cfg.Policy(), Deny: a.cfg.DenyList()}
}

const dateLayout = "2006-01-02"
