package storage

import (
	"context"

	"credit-risk-engine/internal/domain"
)

// ScoreStore provides access to credit_scores storage.
// The store is append-only: records are never updated, a newer record
// for the same borrower supersedes older ones.
type ScoreStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if (borrower_id, issued_at) exists.
	Insert(ctx context.Context, r *domain.ScoreRecord) error

	// Latest retrieves the record with the greatest issued_at for a borrower.
	// Returns ErrNotFound if the borrower has no records.
	Latest(ctx context.Context, borrowerID string) (*domain.ScoreRecord, error)

	// History retrieves records for a borrower ordered by issued_at DESC.
	// A limit <= 0 returns every record.
	History(ctx context.Context, borrowerID string, limit int) ([]*domain.ScoreRecord, error)
}

// PartnerAccessStore provides access to partner_access storage.
// Records are owned by an external authorization service.
type PartnerAccessStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if (borrower_id, partner_id) exists.
	Insert(ctx context.Context, p *domain.PartnerAccessRecord) error

	// ListByBorrower retrieves all partner records for a borrower, ordered by partner_id ASC.
	ListByBorrower(ctx context.Context, borrowerID string) ([]*domain.PartnerAccessRecord, error)
}

// LoanStore provides access to loans storage.
type LoanStore interface {
	// Insert adds a new loan. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, l *domain.Loan) error

	// ListByBorrower retrieves all loans for a borrower, ordered by start_date ASC.
	ListByBorrower(ctx context.Context, borrowerID string) ([]*domain.Loan, error)
}

// PaymentStore provides access to loan_payments storage.
type PaymentStore interface {
	// Insert adds a new payment. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, p *domain.Payment) error

	// ListByBorrower retrieves all payments for a borrower, ordered by paid_at ASC.
	ListByBorrower(ctx context.Context, borrowerID string) ([]*domain.Payment, error)
}

// CollateralStore provides access to collateral_assets storage.
type CollateralStore interface {
	// Insert adds a new asset. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, a *domain.CollateralAsset) error

	// ListByOwner retrieves all assets owned by a borrower, ordered by id ASC.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.CollateralAsset, error)
}

// ProfileStore provides access to borrower_profiles storage.
type ProfileStore interface {
	// Insert adds a new profile. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, p *domain.BorrowerProfile) error

	// GetByID retrieves a profile. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, borrowerID string) (*domain.BorrowerProfile, error)
}
