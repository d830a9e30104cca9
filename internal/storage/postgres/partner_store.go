package postgres

import (
	"context"
	"fmt"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/storage"
)

// PartnerAccessStore implements storage.PartnerAccessStore using PostgreSQL.
type PartnerAccessStore struct {
	pool *Pool
}

// NewPartnerAccessStore creates a new PartnerAccessStore.
func NewPartnerAccessStore(pool *Pool) *PartnerAccessStore {
	return &PartnerAccessStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PartnerAccessStore = (*PartnerAccessStore)(nil)

// Insert adds a new record. Returns ErrDuplicateKey if (borrower_id, partner_id) exists.
func (s *PartnerAccessStore) Insert(ctx context.Context, p *domain.PartnerAccessRecord) error {
	query := `
		INSERT INTO partner_access (
			borrower_id, partner_id, partner_name, authorized,
			access_count, last_accessed_at, permission_level
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		p.BorrowerID, p.PartnerID, p.PartnerName, p.Authorized,
		p.AccessCount, p.LastAccessedAt, string(p.Permission),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert partner access: %w", err)
	}
	return nil
}

// ListByBorrower retrieves all partner records for a borrower, ordered by partner_id ASC.
func (s *PartnerAccessStore) ListByBorrower(ctx context.Context, borrowerID string) ([]*domain.PartnerAccessRecord, error) {
	query := `
		SELECT borrower_id, partner_id, partner_name, authorized,
			access_count, last_accessed_at, permission_level
		FROM partner_access
		WHERE borrower_id = $1
		ORDER BY partner_id ASC
	`

	rows, err := s.pool.Query(ctx, query, borrowerID)
	if err != nil {
		return nil, fmt.Errorf("query partner access: %w", err)
	}
	defer rows.Close()

	result := []*domain.PartnerAccessRecord{}
	for rows.Next() {
		var (
			p          domain.PartnerAccessRecord
			permission string
		)
		if err := rows.Scan(
			&p.BorrowerID, &p.PartnerID, &p.PartnerName, &p.Authorized,
			&p.AccessCount, &p.LastAccessedAt, &permission,
		); err != nil {
			return nil, fmt.Errorf("scan partner access: %w", err)
		}
		p.Permission = domain.PermissionLevel(permission)
		if p.LastAccessedAt != nil {
			utc := p.LastAccessedAt.UTC()
			p.LastAccessedAt = &utc
		}
		result = append(result, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partner access: %w", err)
	}

	return result, nil
}
