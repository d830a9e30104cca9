package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/idhash"
	"credit-risk-engine/internal/observability"
)

// ExternalModelVersion labels submitted records that carry no model version.
const ExternalModelVersion = "external"

// Submission is a score computed by an outside authority.
type Submission struct {
	domain.ScoreComponents

	ModelVersion      string
	TokenizedScoreRef *string
	SourceDataHash    string
	ValidUntil        *time.Time // default: issued + validity window

	KYCVerified       bool
	AMLVerified       bool
	VerificationLevel domain.VerificationLevel
}

// Validate checks the shape of a submission. Returned errors wrap
// ErrInvalidSubmission.
func (s *Submission) Validate() error {
	c := s.ScoreComponents
	checks := []struct {
		name  string
		value int
		max   int
	}{
		{"onChain", c.OnChain, domain.MaxOnChain},
		{"offChain", c.OffChain, domain.MaxOffChain},
		{"assets", c.Assets, domain.MaxAssets},
		{"reputation", c.Reputation, domain.MaxReputation},
	}
	for _, ch := range checks {
		if ch.value < 0 || ch.value > ch.max {
			return fmt.Errorf("%w: %s must be in [0, %d], got %d", ErrInvalidSubmission, ch.name, ch.max, ch.value)
		}
	}

	if sum := c.OnChain + c.OffChain + c.Assets + c.Reputation; c.Total != sum {
		return fmt.Errorf("%w: total %d does not equal component sum %d", ErrInvalidSubmission, c.Total, sum)
	}
	if !c.Tier.IsValid() {
		return fmt.Errorf("%w: unknown tier %q", ErrInvalidSubmission, c.Tier)
	}
	if want := domain.TierFor(c.Total); c.Tier != want {
		return fmt.Errorf("%w: tier %s inconsistent with total %d (want %s)", ErrInvalidSubmission, c.Tier, c.Total, want)
	}
	if !s.VerificationLevel.IsValid() {
		return fmt.Errorf("%w: unknown verification level %q", ErrInvalidSubmission, s.VerificationLevel)
	}
	if s.TokenizedScoreRef != nil && strings.TrimSpace(*s.TokenizedScoreRef) == "" {
		return fmt.Errorf("%w: tokenized score reference is empty", ErrInvalidSubmission)
	}
	return nil
}

// Submit validates and persists an externally computed score verbatim,
// recording the current Total as PreviousTotal. The calculators are not run.
func (e *Engine) Submit(ctx context.Context, borrowerID string, sub Submission) (*domain.ScoreRecord, error) {
	if err := sub.Validate(); err != nil {
		observability.RecordSubmission("rejected")
		return nil, err
	}

	prior, err := e.latest(ctx, borrowerID)
	if err != nil {
		observability.RecordSubmission("failed")
		return nil, err
	}

	rec := e.newRecord(borrowerID, sub.ScoreComponents, prior)
	if sub.ValidUntil != nil {
		if !sub.ValidUntil.After(rec.IssuedAt) {
			observability.RecordSubmission("rejected")
			return nil, fmt.Errorf("%w: validUntil must be after issue time", ErrInvalidSubmission)
		}
		rec.ValidUntil = sub.ValidUntil.UTC().Truncate(time.Microsecond)
	}

	rec.Source = domain.SourceExternal
	rec.ModelVersion = sub.ModelVersion
	if rec.ModelVersion == "" {
		rec.ModelVersion = ExternalModelVersion
	}
	rec.TokenizedScoreRef = sub.TokenizedScoreRef
	rec.Verification = domain.VerificationSnapshot{
		KYCVerified:       sub.KYCVerified,
		AMLVerified:       sub.AMLVerified,
		VerificationLevel: sub.VerificationLevel,
	}
	rec.SourceDataHash = sub.SourceDataHash
	if rec.SourceDataHash == "" {
		rec.SourceDataHash = idhash.ComputeComponentsHash(borrowerID, rec.ScoreComponents, rec.ModelVersion)
	}

	if err := e.scores.Insert(ctx, rec); err != nil {
		observability.RecordSubmission("failed")
		e.logger.Error().Err(err).Str("borrower_id", borrowerID).Msg("persist submitted score failed")
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	observability.RecordSubmission("accepted")
	observability.RecordScoreIssued(rec.Tier.String(), rec.Source.String(), rec.Total)
	e.logger.Info().
		Str("borrower_id", borrowerID).
		Int("total", rec.Total).
		Str("tier", rec.Tier.String()).
		Msg("external score accepted")

	return rec, nil
}
