package memory

import (
	"context"
	"sync"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/storage"
)

// ProfileStore is an in-memory implementation of storage.ProfileStore.
type ProfileStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BorrowerProfile // keyed by id
}

// NewProfileStore creates a new in-memory profile store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		data: make(map[string]*domain.BorrowerProfile),
	}
}

// Insert adds a new profile. Returns ErrDuplicateKey if id exists.
func (s *ProfileStore) Insert(_ context.Context, p *domain.BorrowerProfile) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.ID]; exists {
		return storage.ErrDuplicateKey
	}

	profileCopy := *p
	s.data[p.ID] = &profileCopy
	return nil
}

// GetByID retrieves a profile. Returns ErrNotFound if not exists.
func (s *ProfileStore) GetByID(_ context.Context, borrowerID string) (*domain.BorrowerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[borrowerID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	profileCopy := *p
	return &profileCopy, nil
}

// Verify interface compliance at compile time.
var _ storage.ProfileStore = (*ProfileStore)(nil)
