package memory

import (
	"context"
	"sort"
	"sync"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/storage"
)

// LoanStore is an in-memory implementation of storage.LoanStore.
type LoanStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Loan // keyed by id
}

// NewLoanStore creates a new in-memory loan store.
func NewLoanStore() *LoanStore {
	return &LoanStore{
		data: make(map[string]*domain.Loan),
	}
}

// Insert adds a new loan. Returns ErrDuplicateKey if id exists.
func (s *LoanStore) Insert(_ context.Context, l *domain.Loan) error {
	if l == nil || l.ID == "" || l.BorrowerID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[l.ID]; exists {
		return storage.ErrDuplicateKey
	}

	loanCopy := *l
	s.data[l.ID] = &loanCopy
	return nil
}

// ListByBorrower retrieves all loans for a borrower, ordered by start_date ASC.
func (s *LoanStore) ListByBorrower(_ context.Context, borrowerID string) ([]*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Loan
	for _, l := range s.data {
		if l.BorrowerID == borrowerID {
			loanCopy := *l
			result = append(result, &loanCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartDate.Before(result[j].StartDate)
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.LoanStore = (*LoanStore)(nil)
