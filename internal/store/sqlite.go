package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"course-cert/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	created_at     TEXT NOT NULL,
	pass_threshold REAL NOT NULL,
	date_since     TEXT
);
CREATE TABLE IF NOT EXISTS aggregates (
	run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq       INTEGER NOT NULL,
	course_id TEXT NOT NULL,
	email     TEXT NOT NULL,
	payload   TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// SQLiteStore keeps every run; Latest returns the newest.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma foreign_keys: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var since sql.NullString
	if snap.Settings.DateSince != nil {
		since = sql.NullString{String: snap.Settings.DateSince.UTC().Format(time.RFC3339), Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, pass_threshold, date_since) VALUES (?, ?, ?, ?)`,
		snap.RunID, snap.CreatedAt.UTC().Format(time.RFC3339Nano), snap.Settings.PassThreshold, since,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", snap.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO aggregates (run_id, seq, course_id, email, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare aggregates: %w", err)
	}
	defer stmt.Close()

	for i, a := range snap.Aggregates {
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode aggregate %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, snap.RunID, i, a.CourseID, a.Email, string(payload)); err != nil {
			return fmt.Errorf("insert aggregate %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Latest(ctx context.Context) (Snapshot, error) {
	var (
		snap      Snapshot
		createdAt string
		since     sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, pass_threshold, date_since FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&snap.RunID, &createdAt, &snap.Settings.PassThreshold, &since)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("select latest run: %w", err)
	}

	if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Snapshot{}, fmt.Errorf("run %s created_at: %w", snap.RunID, err)
	}
	if since.Valid {
		t, err := time.Parse(time.RFC3339, since.String)
		if err != nil {
			return Snapshot{}, fmt.Errorf("run %s date_since: %w", snap.RunID, err)
		}
		snap.Settings.DateSince = &t
	}

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM aggregates WHERE run_id = ? ORDER BY seq`, snap.RunID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("select aggregates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return Snapshot{}, fmt.Errorf("scan aggregate: %w", err)
		}
		var a domain.StudentAggregate
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return Snapshot{}, fmt.Errorf("decode aggregate: %w", err)
		}
		snap.Aggregates = append(snap.Aggregates, a)
	}
	return snap, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
