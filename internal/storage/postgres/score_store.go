package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/storage"
)

// ScoreStore implements storage.ScoreStore using PostgreSQL.
type ScoreStore struct {
	pool *Pool
}

// NewScoreStore creates a new ScoreStore.
func NewScoreStore(pool *Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScoreStore = (*ScoreStore)(nil)

const scoreColumns = `
	id, borrower_id,
	on_chain_score, off_chain_score, asset_score, reputation_score, total_score, tier,
	previous_score, model_version,
	kyc_verified, aml_verified, verification_level,
	source, tokenized_score_ref, source_data_hash,
	issued_at, valid_until
`

// Insert adds a new record. Returns ErrDuplicateKey if (borrower_id, issued_at) exists.
func (s *ScoreStore) Insert(ctx context.Context, r *domain.ScoreRecord) error {
	if r == nil || r.BorrowerID == "" || r.IssuedAt.IsZero() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO credit_scores (` + scoreColumns + `) VALUES (
			$1, $2,
			$3, $4, $5, $6, $7, $8,
			$9, $10,
			$11, $12, $13,
			$14, $15, $16,
			$17, $18
		)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ID, r.BorrowerID,
		r.OnChain, r.OffChain, r.Assets, r.Reputation, r.Total, string(r.Tier),
		r.PreviousTotal, r.ModelVersion,
		r.Verification.KYCVerified, r.Verification.AMLVerified, string(r.Verification.VerificationLevel),
		string(r.Source), r.TokenizedScoreRef, r.SourceDataHash,
		r.IssuedAt, r.ValidUntil,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert credit score: %w", err)
	}
	return nil
}

// Latest retrieves the record with the greatest issued_at. Returns ErrNotFound if none.
func (s *ScoreStore) Latest(ctx context.Context, borrowerID string) (*domain.ScoreRecord, error) {
	query := `
		SELECT ` + scoreColumns + `
		FROM credit_scores
		WHERE borrower_id = $1
		ORDER BY issued_at DESC
		LIMIT 1
	`

	r, err := scanScoreRecord(s.pool.QueryRow(ctx, query, borrowerID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query latest credit score: %w", err)
	}
	return r, nil
}

// History retrieves records ordered by issued_at DESC. A limit <= 0 returns all.
func (s *ScoreStore) History(ctx context.Context, borrowerID string, limit int) ([]*domain.ScoreRecord, error) {
	query := `
		SELECT ` + scoreColumns + `
		FROM credit_scores
		WHERE borrower_id = $1
		ORDER BY issued_at DESC
	`
	args := []any{borrowerID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query credit score history: %w", err)
	}
	defer rows.Close()

	result := []*domain.ScoreRecord{}
	for rows.Next() {
		r, err := scanScoreRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credit score: %w", err)
		}
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit scores: %w", err)
	}

	return result, nil
}

func scanScoreRecord(row pgx.Row) (*domain.ScoreRecord, error) {
	var (
		r                   domain.ScoreRecord
		tier, level, source string
	)

	err := row.Scan(
		&r.ID, &r.BorrowerID,
		&r.OnChain, &r.OffChain, &r.Assets, &r.Reputation, &r.Total, &tier,
		&r.PreviousTotal, &r.ModelVersion,
		&r.Verification.KYCVerified, &r.Verification.AMLVerified, &level,
		&source, &r.TokenizedScoreRef, &r.SourceDataHash,
		&r.IssuedAt, &r.ValidUntil,
	)
	if err != nil {
		return nil, err
	}

	r.Tier = domain.Tier(tier)
	r.Verification.VerificationLevel = domain.VerificationLevel(level)
	r.Source = domain.Source(source)
	r.IssuedAt = r.IssuedAt.UTC()
	r.ValidUntil = r.ValidUntil.UTC()
	return &r, nil
}
