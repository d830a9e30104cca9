package postgres

import (
	"context"
	"fmt"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/storage"
)

// PaymentStore implements storage.PaymentStore using PostgreSQL.
type PaymentStore struct {
	pool *Pool
}

// NewPaymentStore creates a new PaymentStore.
func NewPaymentStore(pool *Pool) *PaymentStore {
	return &PaymentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PaymentStore = (*PaymentStore)(nil)

// Insert adds a new payment. Returns ErrDuplicateKey if id exists.
func (s *PaymentStore) Insert(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO loan_payments (id, loan_id, borrower_id, amount, due_at, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query, p.ID, p.LoanID, p.BorrowerID, p.Amount, p.DueAt, p.PaidAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// ListByBorrower retrieves all payments for a borrower, ordered by paid_at ASC.
func (s *PaymentStore) ListByBorrower(ctx context.Context, borrowerID string) ([]*domain.Payment, error) {
	query := `
		SELECT id, loan_id, borrower_id, amount, due_at, paid_at
		FROM loan_payments
		WHERE borrower_id = $1
		ORDER BY paid_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, borrowerID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var result []*domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.LoanID, &p.BorrowerID, &p.Amount, &p.DueAt, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		result = append(result, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}

	return result, nil
}
