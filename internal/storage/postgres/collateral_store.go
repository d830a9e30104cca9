package postgres

import (
	"context"
	"fmt"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/storage"
)

// CollateralStore implements storage.CollateralStore using PostgreSQL.
type CollateralStore struct {
	pool *Pool
}

// NewCollateralStore creates a new CollateralStore.
func NewCollateralStore(pool *Pool) *CollateralStore {
	return &CollateralStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CollateralStore = (*CollateralStore)(nil)

// Insert adds a new asset. Returns ErrDuplicateKey if id exists.
func (s *CollateralStore) Insert(ctx context.Context, a *domain.CollateralAsset) error {
	query := `
		INSERT INTO collateral_assets (id, owner_id, asset_type, value, locked)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query, a.ID, a.OwnerID, a.AssetType, a.Value, a.Locked)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert collateral asset: %w", err)
	}
	return nil
}

// ListByOwner retrieves all assets owned by a borrower, ordered by id ASC.
func (s *CollateralStore) ListByOwner(ctx context.Context, ownerID string) ([]*domain.CollateralAsset, error) {
	query := `
		SELECT id, owner_id, asset_type, value, locked
		FROM collateral_assets
		WHERE owner_id = $1
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query collateral assets: %w", err)
	}
	defer rows.Close()

	var result []*domain.CollateralAsset
	for rows.Next() {
		var a domain.CollateralAsset
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.AssetType, &a.Value, &a.Locked); err != nil {
			return nil, fmt.Errorf("scan collateral asset: %w", err)
		}
		result = append(result, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collateral assets: %w", err)
	}

	return result, nil
}
