package memory

import (
	"context"
	"sort"
	"sync"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/storage"
)

// CollateralStore is an in-memory implementation of storage.CollateralStore.
type CollateralStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CollateralAsset // keyed by id
}

// NewCollateralStore creates a new in-memory collateral store.
func NewCollateralStore() *CollateralStore {
	return &CollateralStore{
		data: make(map[string]*domain.CollateralAsset),
	}
}

// Insert adds a new asset. Returns ErrDuplicateKey if id exists.
func (s *CollateralStore) Insert(_ context.Context, a *domain.CollateralAsset) error {
	if a == nil || a.ID == "" || a.OwnerID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.ID]; exists {
		return storage.ErrDuplicateKey
	}

	assetCopy := *a
	s.data[a.ID] = &assetCopy
	return nil
}

// ListByOwner retrieves all assets owned by a borrower, ordered by id ASC.
func (s *CollateralStore) ListByOwner(_ context.Context, ownerID string) ([]*domain.CollateralAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CollateralAsset
	for _, a := range s.data {
		if a.OwnerID == ownerID {
			assetCopy := *a
			result = append(result, &assetCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.CollateralStore = (*CollateralStore)(nil)
