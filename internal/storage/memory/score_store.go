package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/storage"
)

type scoreKey struct {
	borrowerID string
	issuedAt   int64 // unix micros
}

// ScoreStore is an in-memory implementation of storage.ScoreStore.
type ScoreStore struct {
	mu   sync.RWMutex
	keys map[scoreKey]struct{}
	data map[string][]*domain.ScoreRecord // keyed by borrower_id, sorted by issued_at ASC
}

// NewScoreStore creates a new in-memory score store.
func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		keys: make(map[scoreKey]struct{}),
		data: make(map[string][]*domain.ScoreRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if (borrower_id, issued_at) exists.
func (s *ScoreStore) Insert(_ context.Context, r *domain.ScoreRecord) error {
	if r == nil || r.BorrowerID == "" || r.IssuedAt.IsZero() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := scoreKey{borrowerID: r.BorrowerID, issuedAt: r.IssuedAt.UnixMicro()}
	if _, exists := s.keys[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.keys[key] = struct{}{}

	// Store a copy to prevent external mutation
	records := append(s.data[r.BorrowerID], copyRecord(r))
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].IssuedAt.Before(records[j].IssuedAt)
	})
	s.data[r.BorrowerID] = records
	return nil
}

// Latest retrieves the record with the greatest issued_at. Returns ErrNotFound if none.
func (s *ScoreStore) Latest(_ context.Context, borrowerID string) (*domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.data[borrowerID]
	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}
	return copyRecord(records[len(records)-1]), nil
}

// History retrieves records ordered by issued_at DESC. A limit <= 0 returns all.
func (s *ScoreStore) History(_ context.Context, borrowerID string, limit int) ([]*domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.data[borrowerID]
	n := len(records)
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]*domain.ScoreRecord, 0, n)
	for i := len(records) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, copyRecord(records[i]))
	}
	return result, nil
}

// copyRecord deep-copies the nullable fields of a record.
func copyRecord(r *domain.ScoreRecord) *domain.ScoreRecord {
	c := *r
	if r.PreviousTotal != nil {
		v := *r.PreviousTotal
		c.PreviousTotal = &v
	}
	if r.TokenizedScoreRef != nil {
		v := *r.TokenizedScoreRef
		c.TokenizedScoreRef = &v
	}
	c.IssuedAt = r.IssuedAt.UTC().Truncate(time.Microsecond)
	c.ValidUntil = r.ValidUntil.UTC().Truncate(time.Microsecond)
	return &c
}

// Verify interface compliance at compile time.
var _ storage.ScoreStore = (*ScoreStore)(nil)
