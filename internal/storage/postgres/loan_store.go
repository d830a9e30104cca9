package postgres

import (
	"context"
	"fmt"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/storage"
)

// LoanStore implements storage.LoanStore using PostgreSQL.
type LoanStore struct {
	pool *Pool
}

// NewLoanStore creates a new LoanStore.
func NewLoanStore(pool *Pool) *LoanStore {
	return &LoanStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LoanStore = (*LoanStore)(nil)

// Insert adds a new loan. Returns ErrDuplicateKey if id exists.
func (s *LoanStore) Insert(ctx context.Context, l *domain.Loan) error {
	query := `
		INSERT INTO loans (
			id, borrower_id, status,
			principal, amount_repaid, collateral_value,
			start_date, end_date, next_payment_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		l.ID, l.BorrowerID, string(l.Status),
		l.Principal, l.AmountRepaid, l.CollateralValue,
		l.StartDate, l.EndDate, l.NextPaymentDate,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

// ListByBorrower retrieves all loans for a borrower, ordered by start_date ASC.
func (s *LoanStore) ListByBorrower(ctx context.Context, borrowerID string) ([]*domain.Loan, error) {
	query := `
		SELECT id, borrower_id, status,
			principal, amount_repaid, collateral_value,
			start_date, end_date, next_payment_date
		FROM loans
		WHERE borrower_id = $1
		ORDER BY start_date ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, borrowerID)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	var result []*domain.Loan
	for rows.Next() {
		var (
			l      domain.Loan
			status string
		)
		if err := rows.Scan(
			&l.ID, &l.BorrowerID, &status,
			&l.Principal, &l.AmountRepaid, &l.CollateralValue,
			&l.StartDate, &l.EndDate, &l.NextPaymentDate,
		); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		l.Status = domain.LoanStatus(status)
		result = append(result, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loans: %w", err)
	}

	return result, nil
}
