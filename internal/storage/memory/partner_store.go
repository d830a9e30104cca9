package memory

import (
	"context"
	"sort"
	"sync"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/storage"
)

// PartnerAccessStore is an in-memory implementation of storage.PartnerAccessStore.
type PartnerAccessStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*domain.PartnerAccessRecord // borrower_id -> partner_id -> record
}

// NewPartnerAccessStore creates a new in-memory partner access store.
func NewPartnerAccessStore() *PartnerAccessStore {
	return &PartnerAccessStore{
		data: make(map[string]map[string]*domain.PartnerAccessRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if (borrower_id, partner_id) exists.
func (s *PartnerAccessStore) Insert(_ context.Context, p *domain.PartnerAccessRecord) error {
	if p == nil || p.BorrowerID == "" || p.PartnerID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	partners, ok := s.data[p.BorrowerID]
	if !ok {
		partners = make(map[string]*domain.PartnerAccessRecord)
		s.data[p.BorrowerID] = partners
	}
	if _, exists := partners[p.PartnerID]; exists {
		return storage.ErrDuplicateKey
	}

	recordCopy := *p
	partners[p.PartnerID] = &recordCopy
	return nil
}

// ListByBorrower retrieves all partner records for a borrower, ordered by partner_id ASC.
func (s *PartnerAccessStore) ListByBorrower(_ context.Context, borrowerID string) ([]*domain.PartnerAccessRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PartnerAccessRecord, 0, len(s.data[borrowerID]))
	for _, p := range s.data[borrowerID] {
		recordCopy := *p
		result = append(result, &recordCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PartnerID < result[j].PartnerID
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.PartnerAccessStore = (*PartnerAccessStore)(nil)
