package memory

import (
	"context"
	"sort"
	"sync"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/storage"
)

// PaymentStore is an in-memory implementation of storage.PaymentStore.
type PaymentStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Payment // keyed by id
}

// NewPaymentStore creates a new in-memory payment store.
func NewPaymentStore() *PaymentStore {
	return &PaymentStore{
		data: make(map[string]*domain.Payment),
	}
}

// Insert adds a new payment. Returns ErrDuplicateKey if id exists.
func (s *PaymentStore) Insert(_ context.Context, p *domain.Payment) error {
	if p == nil || p.ID == "" || p.BorrowerID == "" || p.LoanID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.ID]; exists {
		return storage.ErrDuplicateKey
	}

	paymentCopy := *p
	s.data[p.ID] = &paymentCopy
	return nil
}

// ListByBorrower retrieves all payments for a borrower, ordered by paid_at ASC.
func (s *PaymentStore) ListByBorrower(_ context.Context, borrowerID string) ([]*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Payment
	for _, p := range s.data {
		if p.BorrowerID == borrowerID {
			paymentCopy := *p
			result = append(result, &paymentCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].PaidAt.Equal(result[j].PaidAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].PaidAt.Before(result[j].PaidAt)
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.PaymentStore = (*PaymentStore)(nil)
