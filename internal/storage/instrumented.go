package storage

import (
	"context"
	"errors"
	"time"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/observability"
)

// ScoreStoreWithMetrics wraps a ScoreStore and records query latency and
// errors under the given database label.
type ScoreStoreWithMetrics struct {
	store    ScoreStore
	database string
}

// NewScoreStoreWithMetrics creates a new ScoreStoreWithMetrics.
func NewScoreStoreWithMetrics(store ScoreStore, database string) *ScoreStoreWithMetrics {
	return &ScoreStoreWithMetrics{store: store, database: database}
}

// Compile-time interface check.
var _ ScoreStore = (*ScoreStoreWithMetrics)(nil)

func (s *ScoreStoreWithMetrics) Insert(ctx context.Context, r *domain.ScoreRecord) error {
	return s.run("Insert", func() error {
		return s.store.Insert(ctx, r)
	})
}

func (s *ScoreStoreWithMetrics) Latest(ctx context.Context, borrowerID string) (result *domain.ScoreRecord, err error) {
	//nolint:errcheck
	s.run("Latest", func() error {
		result, err = s.store.Latest(ctx, borrowerID)
		return err
	})
	return
}

func (s *ScoreStoreWithMetrics) History(ctx context.Context, borrowerID string, limit int) (result []*domain.ScoreRecord, err error) {
	//nolint:errcheck
	s.run("History", func() error {
		result, err = s.store.History(ctx, borrowerID, limit)
		return err
	})
	return
}

// run records the duration of f. ErrNotFound is an expected answer and is
// not counted as a query error.
func (s *ScoreStoreWithMetrics) run(operation string, f func() error) error {
	start := time.Now()
	err := f()

	recorded := err
	if errors.Is(recorded, ErrNotFound) {
		recorded = nil
	}
	observability.RecordDBQuery(s.database, operation, time.Since(start).Seconds(), recorded)
	return err
}
