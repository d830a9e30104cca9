package clickhouse

import (
	"context"
	"fmt"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/storage"
)

// ScoreStore implements storage.ScoreStore using ClickHouse.
// MergeTree does not enforce uniqueness, so Insert checks for an existing
// (borrower_id, issued_at) row first. Two concurrent inserts of the same key
// can both succeed; callers that need strict uniqueness use Postgres.
type ScoreStore struct {
	conn *Conn
}

// NewScoreStore creates a new ScoreStore.
func NewScoreStore(conn *Conn) *ScoreStore {
	return &ScoreStore{conn: conn}
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

	exists, err := s.exists(ctx, r)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	var previous *int32
	if r.PreviousTotal != nil {
		v := int32(*r.PreviousTotal)
		previous = &v
	}

	query := `INSERT INTO credit_scores (` + scoreColumns + `) VALUES (
		?, ?,
		?, ?, ?, ?, ?, ?,
		?, ?,
		?, ?, ?,
		?, ?, ?,
		?, ?
	)`

	err = s.conn.Exec(ctx, query,
		r.ID, r.BorrowerID,
		uint16(r.OnChain), uint16(r.OffChain), uint16(r.Assets), uint16(r.Reputation), uint16(r.Total), string(r.Tier),
		previous, r.ModelVersion,
		r.Verification.KYCVerified, r.Verification.AMLVerified, string(r.Verification.VerificationLevel),
		string(r.Source), r.TokenizedScoreRef, r.SourceDataHash,
		r.IssuedAt.UTC(), r.ValidUntil.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert credit score: %w", err)
	}
	return nil
}

// Latest retrieves the record with the greatest issued_at. Returns ErrNotFound if none.
func (s *ScoreStore) Latest(ctx context.Context, borrowerID string) (*domain.ScoreRecord, error) {
	records, err := s.History(ctx, borrowerID, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}
	return records[0], nil
}

// History retrieves records ordered by issued_at DESC. A limit <= 0 returns all.
func (s *ScoreStore) History(ctx context.Context, borrowerID string, limit int) ([]*domain.ScoreRecord, error) {
	query := `
		SELECT ` + scoreColumns + `
		FROM credit_scores
		WHERE borrower_id = ?
		ORDER BY issued_at DESC
	`
	args := []any{borrowerID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query credit scores: %w", err)
	}
	defer rows.Close()

	result := []*domain.ScoreRecord{}
	for rows.Next() {
		var (
			r                         domain.ScoreRecord
			onChain, offChain, assets uint16
			reputation, total         uint16
			previous                  *int32
			tier, level, source       string
		)
		if err := rows.Scan(
			&r.ID, &r.BorrowerID,
			&onChain, &offChain, &assets, &reputation, &total, &tier,
			&previous, &r.ModelVersion,
			&r.Verification.KYCVerified, &r.Verification.AMLVerified, &level,
			&source, &r.TokenizedScoreRef, &r.SourceDataHash,
			&r.IssuedAt, &r.ValidUntil,
		); err != nil {
			return nil, fmt.Errorf("scan credit score: %w", err)
		}

		r.OnChain, r.OffChain, r.Assets, r.Reputation, r.Total = int(onChain), int(offChain), int(assets), int(reputation), int(total)
		r.Tier = domain.Tier(tier)
		r.Verification.VerificationLevel = domain.VerificationLevel(level)
		r.Source = domain.Source(source)
		if previous != nil {
			v := int(*previous)
			r.PreviousTotal = &v
		}
		r.IssuedAt = r.IssuedAt.UTC()
		r.ValidUntil = r.ValidUntil.UTC()
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit scores: %w", err)
	}

	return result, nil
}

func (s *ScoreStore) exists(ctx context.Context, r *domain.ScoreRecord) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count() FROM credit_scores WHERE borrower_id = ? AND issued_at = ?`,
		r.BorrowerID, r.IssuedAt.UTC(),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
