// Package engine produces the current credit score of a borrower.
//
// Read walks an explicit state machine:
//
//	lookup -> serve-cached
//	       -> recompute -> timeout-fallback -> failed-fallback -> bootstrap
//
// A recompute is first tried under a wall-clock budget. When the budget is
// exceeded the attempt is abandoned and retried once, bounded only by the
// caller's context. Failures fall back to the previous record, or to a
// neutral bootstrap record when the borrower has none.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/idhash"
	"credit-risk-engine/internal/observability"
	"credit-risk-engine/internal/scoring"
	"credit-risk-engine/internal/signals"
	"credit-risk-engine/internal/storage"
)

// Defaults.
const (
	DefaultTimeout        = 10 * time.Second
	DefaultValidityWindow = 30 * 24 * time.Hour
	DefaultModelVersion   = "rules-v1"
)

// bootstrapWriteTimeout bounds the bootstrap write, which outlives the caller's context.
const bootstrapWriteTimeout = 5 * time.Second

// Errors surfaced to callers.
var (
	// ErrStoreUnavailable is returned when the score store cannot be read,
	// or a submitted record cannot be written.
	ErrStoreUnavailable = errors.New("score store unavailable")

	// ErrInvalidSubmission is returned when a submitted score is malformed.
	ErrInvalidSubmission = errors.New("invalid score submission")

	errBudgetExceeded = errors.New("compute budget exceeded")
)

// Outcome is the terminal state a Read ended in.
type Outcome string

const (
	OutcomeServedCached          Outcome = "served_cached"
	OutcomeRecomputed            Outcome = "recomputed"
	OutcomeRecomputedAfterRetry  Outcome = "recomputed_after_retry"
	OutcomeRecomputedUnpersisted Outcome = "recomputed_unpersisted"
	OutcomeStaleFallback         Outcome = "stale_fallback"
	OutcomeBootstrap             Outcome = "bootstrap"
)

// ReadResult is the answer to a Read.
type ReadResult struct {
	Record   *domain.ScoreRecord
	Partners []*domain.PartnerAccessRecord // never nil
	Outcome  Outcome
	// Persisted is false when Record could not be written to the store.
	Persisted bool
}

// invalidator is implemented by fetchers that cache signals.
type invalidator interface {
	Invalidate(borrowerID string)
}

// Options for creating Engine.
type Options struct {
	// Required
	Fetcher signals.Fetcher
	Scores  storage.ScoreStore

	// Optional; a nil store yields an empty partner list
	Partners storage.PartnerAccessStore

	Timeout        time.Duration    // bounded attempt budget, DefaultTimeout if zero
	ValidityWindow time.Duration    // DefaultValidityWindow if zero
	ModelVersion   string           // DefaultModelVersion if empty
	Now            func() time.Time // time.Now if nil
	Logger         *zerolog.Logger  // no-op if nil
}

// Engine coordinates fetching, scoring and persistence.
type Engine struct {
	fetcher        signals.Fetcher
	scores         storage.ScoreStore
	partners       storage.PartnerAccessStore
	timeout        time.Duration
	validityWindow time.Duration
	modelVersion   string
	now            func() time.Time
	logger         zerolog.Logger
}

// New creates a new Engine.
func New(opts Options) *Engine {
	e := &Engine{
		fetcher:        opts.Fetcher,
		scores:         opts.Scores,
		partners:       opts.Partners,
		timeout:        opts.Timeout,
		validityWindow: opts.ValidityWindow,
		modelVersion:   opts.ModelVersion,
		now:            opts.Now,
		logger:         zerolog.Nop(),
	}
	if e.timeout <= 0 {
		e.timeout = DefaultTimeout
	}
	if e.validityWindow <= 0 {
		e.validityWindow = DefaultValidityWindow
	}
	if e.modelVersion == "" {
		e.modelVersion = DefaultModelVersion
	}
	if e.now == nil {
		e.now = time.Now
	}
	if opts.Logger != nil {
		e.logger = *opts.Logger
	}
	return e
}

type state int

const (
	stateLookup state = iota
	stateServeCached
	stateRecompute
	stateTimeoutFallback
	stateFailedFallback
	stateBootstrap
	stateDone
)

// read carries one Read call through the state machine.
type read struct {
	borrowerID  string
	recalculate bool
	prior       *domain.ScoreRecord
	result      ReadResult
}

// Read returns the current score of a borrower, recomputing it when none
// exists or recalculate is set. It fails only when the prior record cannot
// be looked up. Once the lookup succeeds a record is always returned.
func (e *Engine) Read(ctx context.Context, borrowerID string, recalculate bool) (*ReadResult, error) {
	start := time.Now()
	r := &read{borrowerID: borrowerID, recalculate: recalculate}

	st := stateLookup
	for st != stateDone {
		var err error
		st, err = e.step(ctx, st, r)
		if err != nil {
			e.logger.Error().Err(err).Str("borrower_id", borrowerID).Msg("score read failed")
			return nil, err
		}
	}

	r.result.Partners = e.listPartners(ctx, borrowerID)

	observability.RecordScoreRead(string(r.result.Outcome))
	e.logger.Info().
		Str("borrower_id", borrowerID).
		Str("outcome", string(r.result.Outcome)).
		Int("total", r.result.Record.Total).
		Str("tier", r.result.Record.Tier.String()).
		Bool("persisted", r.result.Persisted).
		Dur("duration", time.Since(start)).
		Msg("score read")

	return &r.result, nil
}

func (e *Engine) step(ctx context.Context, st state, r *read) (state, error) {
	switch st {
	case stateLookup:
		prior, err := e.latest(ctx, r.borrowerID)
		if err != nil {
			return stateDone, err
		}
		r.prior = prior
		if prior != nil && !r.recalculate {
			return stateServeCached, nil
		}
		if r.recalculate {
			if inv, ok := e.fetcher.(invalidator); ok {
				inv.Invalidate(r.borrowerID)
			}
		}
		return stateRecompute, nil

	case stateServeCached:
		r.finish(r.prior, OutcomeServedCached, true)
		return stateDone, nil

	case stateRecompute:
		rec, err := e.attemptBounded(ctx, r.borrowerID, r.prior)
		switch {
		case errors.Is(err, errBudgetExceeded):
			e.logger.Warn().Str("borrower_id", r.borrowerID).Dur("budget", e.timeout).Msg("compute budget exceeded, retrying")
			return stateTimeoutFallback, nil
		case err != nil:
			e.logger.Warn().Err(err).Str("borrower_id", r.borrowerID).Msg("compute failed")
			return stateFailedFallback, nil
		}
		e.persist(ctx, r, rec, OutcomeRecomputed)
		return stateDone, nil

	case stateTimeoutFallback:
		rec, err := e.compute(ctx, r.borrowerID, r.prior, "retry")
		if err != nil {
			e.logger.Warn().Err(err).Str("borrower_id", r.borrowerID).Msg("compute retry failed")
			return stateFailedFallback, nil
		}
		e.persist(ctx, r, rec, OutcomeRecomputedAfterRetry)
		return stateDone, nil

	case stateFailedFallback:
		// A loaded prior is served even when ctx has ended
		if r.prior != nil {
			r.finish(r.prior, OutcomeStaleFallback, true)
			return stateDone, nil
		}
		return stateBootstrap, nil

	case stateBootstrap:
		rec := e.bootstrapRecord(r.borrowerID)
		persisted := true
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bootstrapWriteTimeout)
		err := e.insert(writeCtx, rec)
		cancel()
		if err != nil {
			e.logger.Error().Err(err).Str("borrower_id", r.borrowerID).Msg("persist bootstrap score failed")
			persisted = false
		}
		observability.RecordScoreIssued(rec.Tier.String(), rec.Source.String(), rec.Total)
		r.finish(rec, OutcomeBootstrap, persisted)
		return stateDone, nil
	}

	return stateDone, fmt.Errorf("unknown state %d", st)
}

func (r *read) finish(rec *domain.ScoreRecord, outcome Outcome, persisted bool) {
	r.result.Record = rec
	r.result.Outcome = outcome
	r.result.Persisted = persisted
}

// latest returns the current record, nil when the borrower has none.
func (e *Engine) latest(ctx context.Context, borrowerID string) (*domain.ScoreRecord, error) {
	rec, err := e.scores.Latest(ctx, borrowerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return rec, nil
}

// persist writes a freshly computed record. A write failure still returns
// the computed record, marked unpersisted.
func (e *Engine) persist(ctx context.Context, r *read, rec *domain.ScoreRecord, outcome Outcome) {
	if err := e.insert(ctx, rec); err != nil {
		e.logger.Error().Err(err).Str("borrower_id", r.borrowerID).Msg("persist score failed")
		r.finish(rec, OutcomeRecomputedUnpersisted, false)
	} else {
		r.finish(rec, outcome, true)
	}
	observability.RecordScoreIssued(rec.Tier.String(), rec.Source.String(), rec.Total)
}

// insert writes rec, moving it one microsecond later once when a racing
// recompute already holds the same (borrower_id, issued_at) key.
func (e *Engine) insert(ctx context.Context, rec *domain.ScoreRecord) error {
	err := e.scores.Insert(ctx, rec)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		return err
	}
	rec.IssuedAt = rec.IssuedAt.Add(time.Microsecond)
	rec.ValidUntil = rec.ValidUntil.Add(time.Microsecond)
	return e.scores.Insert(ctx, rec)
}

type attemptResult struct {
	rec *domain.ScoreRecord
	err error
}

// attemptBounded runs one computation against the wall-clock budget. On
// timeout the attempt is abandoned: it keeps running detached from ctx so
// in-flight fetches complete, and its result is dropped.
func (e *Engine) attemptBounded(ctx context.Context, borrowerID string, prior *domain.ScoreRecord) (*domain.ScoreRecord, error) {
	done := make(chan attemptResult, 1)
	detached := context.WithoutCancel(ctx)

	go func() {
		rec, err := e.compute(detached, borrowerID, prior, "bounded")
		done <- attemptResult{rec: rec, err: err}
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.rec, res.err
	case <-timer.C:
		return nil, errBudgetExceeded
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// compute fetches signals and builds an unpersisted record.
func (e *Engine) compute(ctx context.Context, borrowerID string, prior *domain.ScoreRecord, attempt string) (*domain.ScoreRecord, error) {
	start := time.Now()

	s, err := e.fetcher.Fetch(ctx, borrowerID)
	if err != nil {
		return nil, fmt.Errorf("fetch signals: %w", err)
	}

	rec := e.newRecord(borrowerID, scoring.Compute(s), prior)
	rec.Source = domain.SourceComputed
	rec.ModelVersion = e.modelVersion
	rec.Verification = s.Verification()
	rec.SourceDataHash = idhash.ComputeSignalsHash(borrowerID, s)

	observability.RecordComputeDuration(attempt, time.Since(start).Seconds())
	return rec, nil
}

func (e *Engine) bootstrapRecord(borrowerID string) *domain.ScoreRecord {
	c := domain.NeutralComponents()
	rec := e.newRecord(borrowerID, c, nil)
	rec.Source = domain.SourceBootstrap
	rec.ModelVersion = e.modelVersion
	rec.SourceDataHash = idhash.ComputeComponentsHash(borrowerID, c, e.modelVersion)
	return rec
}

// newRecord stamps a record issued now. IssuedAt is truncated to
// microseconds and kept strictly after the prior record's IssuedAt.
func (e *Engine) newRecord(borrowerID string, c domain.ScoreComponents, prior *domain.ScoreRecord) *domain.ScoreRecord {
	issued := e.now().UTC().Truncate(time.Microsecond)
	rec := &domain.ScoreRecord{
		ID:              uuid.NewString(),
		BorrowerID:      borrowerID,
		ScoreComponents: c,
	}
	if prior != nil {
		total := prior.Total
		rec.PreviousTotal = &total
		if !issued.After(prior.IssuedAt) {
			issued = prior.IssuedAt.Add(time.Microsecond)
		}
	}
	rec.IssuedAt = issued
	rec.ValidUntil = issued.Add(e.validityWindow)
	return rec
}

func (e *Engine) listPartners(ctx context.Context, borrowerID string) []*domain.PartnerAccessRecord {
	if e.partners == nil {
		return []*domain.PartnerAccessRecord{}
	}
	partners, err := e.partners.ListByBorrower(ctx, borrowerID)
	if err != nil {
		e.logger.Warn().Err(err).Str("borrower_id", borrowerID).Msg("list partners failed")
		return []*domain.PartnerAccessRecord{}
	}
	if partners == nil {
		return []*domain.PartnerAccessRecord{}
	}
	return partners
}

// History returns the records of a borrower, newest first.
func (e *Engine) History(ctx context.Context, borrowerID string, limit int) ([]*domain.ScoreRecord, error) {
	records, err := e.scores.History(ctx, borrowerID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if records == nil {
		records = []*domain.ScoreRecord{}
	}
	return records, nil
}
