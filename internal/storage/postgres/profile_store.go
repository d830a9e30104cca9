package postgres

import (
	"context"
	"fmt"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/storage"
)

// ProfileStore implements storage.ProfileStore using PostgreSQL.
type ProfileStore struct {
	pool *Pool
}

// NewProfileStore creates a new ProfileStore.
func NewProfileStore(pool *Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProfileStore = (*ProfileStore)(nil)

// Insert adds a new profile. Returns ErrDuplicateKey if id exists.
func (s *ProfileStore) Insert(ctx context.Context, p *domain.BorrowerProfile) error {
	query := `
		INSERT INTO borrower_profiles (
			id, wallet_address, created_at, kyc_verified, aml_verified, verification_level
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.WalletAddress, p.CreatedAt, p.KYCVerified, p.AMLVerified, string(p.VerificationLevel),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert borrower profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile. Returns ErrNotFound if not exists.
func (s *ProfileStore) GetByID(ctx context.Context, borrowerID string) (*domain.BorrowerProfile, error) {
	query := `
		SELECT id, wallet_address, created_at, kyc_verified, aml_verified, verification_level
		FROM borrower_profiles
		WHERE id = $1
	`

	var (
		p     domain.BorrowerProfile
		level string
	)
	err := s.pool.QueryRow(ctx, query, borrowerID).Scan(
		&p.ID, &p.WalletAddress, &p.CreatedAt, &p.KYCVerified, &p.AMLVerified, &level,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query borrower profile: %w", err)
	}

	p.VerificationLevel = domain.VerificationLevel(level)
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}
