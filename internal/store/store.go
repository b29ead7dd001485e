// Package store persists evaluated batches so a report can be re-run with new
// settings without re-uploading the exports.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"course-cert/internal/domain"
)

var ErrNotFound = errors.New("store: no snapshot saved yet")

// Snapshot is one processed batch: the reconciled aggregates plus the settings
// they were first evaluated with.
type Snapshot struct {
	RunID      string                    `json:"runId"`
	CreatedAt  time.Time                 `json:"createdAt"`
	Settings   domain.Settings           `json:"settings"`
	Aggregates []domain.StudentAggregate `json:"aggregates"`
}

// NewSnapshot stamps a fresh run id.
func NewSnapshot(now time.Time, settings domain.Settings, aggs []domain.StudentAggregate) Snapshot {
	return Snapshot{
		RunID:      uuid.NewString(),
		CreatedAt:  now.UTC(),
		Settings:   settings,
		Aggregates: aggs,
	}
}

type Store interface {
	Save(ctx context.Context, s Snapshot) error
	// Latest returns ErrNotFound when nothing was saved.
	Latest(ctx context.Context) (Snapshot, error)
	Close() error
}
