package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-cert/internal/domain"
)

func sampleSnapshot(now time.Time) Snapshot {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := domain.StudentAggregate{
		FirstName:        "Jane",
		LastName:         "Doe",
		Email:            "jane@x.com",
		CourseID:         "aifi_301",
		EnrollmentDate:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		LastActivityDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		ProgressComplete: true,
	}
	a.SetQuizScore("Quiz1", domain.Percentage(90))
	a.SetQuizScore("Quiz2", domain.Incomplete)
	return NewSnapshot(now, domain.Settings{PassThreshold: 70, DateSince: &since}, []domain.StudentAggregate{a})
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	db, err := OpenSQLite(filepath.Join(dir, "nested", "certsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Store{
		"file":   NewFileStore(filepath.Join(dir, "nested", "snapshot.json.br")),
		"sqlite": db,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Latest(ctx)
			assert.ErrorIs(t, err, ErrNotFound)

			older := sampleSnapshot(time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC))
			newer := sampleSnapshot(time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC))
			newer.Settings.PassThreshold = 85
			require.NoError(t, s.Save(ctx, older))
			require.NoError(t, s.Save(ctx, newer))

			got, err := s.Latest(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(newer, got, cmp.AllowUnexported(domain.Score{})); diff != "" {
				t.Errorf("Latest mismatch (-want +got):\n%s", diff)
			}
			assert.True(t, got.Aggregates[0].QuizScores[1].Score.IsIncomplete())
		})
	}
}

func TestNewSnapshotStampsRunID(t *testing.T) {
	now := time.Now()
	a := sampleSnapshot(now)
	b := sampleSnapshot(now)
	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, time.UTC, a.CreatedAt.Location())
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json.br")
	require.NoError(t, os.WriteFile(path, []byte("not brotli"), 0o644))

	_, err := NewFileStore(path).Latest(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
