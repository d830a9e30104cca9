package engine

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/storage"
	"credit-risk-engine/internal/storage/memory"
)

var (
	fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 123456789, time.UTC)
	errBoom  = errors.New("boom")
)

// fakeFetcher returns strongSignals unless a per-call delay or error is set.
type fakeFetcher struct {
	mu          sync.Mutex
	calls       int
	delays      map[int]time.Duration // keyed by 1-based call number
	errs        map[int]error
	errAll      error
	invalidated []string
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (domain.BorrowerSignals, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	delay := f.delays[n]
	err := f.errs[n]
	if f.errAll != nil {
		err = f.errAll
	}
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return domain.BorrowerSignals{}, err
	}
	return strongSignals(), nil
}

func (f *fakeFetcher) Invalidate(borrowerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, borrowerID)
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

func strongSignals() domain.BorrowerSignals {
	return domain.BorrowerSignals{
		WalletAgeDays:     intPtr(800),
		TransactionCount:  intPtr(1200),
		StablecoinRatio:   floatPtr(0.8),
		OnTimePayments:    9,
		LatePayments:      1,
		TotalBorrowed:     100000,
		TotalRepaid:       100000,
		TotalLoans:        5,
		TotalAssetValue:   600000,
		AssetCount:        6,
		AssetDiversity:    4,
		LockedAssetValue:  100000,
		AccountAgeDays:    intPtr(800),
		KYCVerified:       true,
		AMLVerified:       true,
		VerificationLevel: domain.VerificationEnhanced,
		LoanHistoryMonths: 30,
	}
}

// flakyScores wraps a memory store with injectable failures.
type flakyScores struct {
	*memory.ScoreStore
	insertErr error
	latestErr error
}

func (s *flakyScores) Insert(ctx context.Context, r *domain.ScoreRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	return s.ScoreStore.Insert(ctx, r)
}

func (s *flakyScores) Latest(ctx context.Context, borrowerID string) (*domain.ScoreRecord, error) {
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	return s.ScoreStore.Latest(ctx, borrowerID)
}

type failingPartners struct{ *memory.PartnerAccessStore }

func (failingPartners) ListByBorrower(context.Context, string) ([]*domain.PartnerAccessRecord, error) {
	return nil, errBoom
}

func newTestEngine(f *fakeFetcher, scores storage.ScoreStore, partners storage.PartnerAccessStore) *Engine {
	return New(Options{
		Fetcher:  f,
		Scores:   scores,
		Partners: partners,
		Timeout:  50 * time.Millisecond,
		Now:      func() time.Time { return fixedNow },
	})
}

func TestRead_FirstReadComputes(t *testing.T) {
	scores := memory.NewScoreStore()
	e := newTestEngine(&fakeFetcher{}, scores, memory.NewPartnerAccessStore())

	res, err := e.Read(context.Background(), "b1", false)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if res.Outcome != OutcomeRecomputed || !res.Persisted {
		t.Errorf("outcome = %s persisted = %v, want recomputed/true", res.Outcome, res.Persisted)
	}
	rec := res.Record
	if rec.Total != 1000 || rec.Tier != domain.TierAPlus {
		t.Errorf("total/tier = %d/%s, want 1000/A+", rec.Total, rec.Tier)
	}
	if rec.Source != domain.SourceComputed || rec.ModelVersion != DefaultModelVersion {
		t.Errorf("source/model = %s/%s", rec.Source, rec.ModelVersion)
	}
	if rec.PreviousTotal != nil {
		t.Errorf("expected nil PreviousTotal, got %d", *rec.PreviousTotal)
	}
	if !rec.IssuedAt.Equal(fixedNow.Truncate(time.Microsecond)) {
		t.Errorf("IssuedAt = %s, want truncated now", rec.IssuedAt)
	}
	if !rec.ValidUntil.Equal(rec.IssuedAt.Add(DefaultValidityWindow)) {
		t.Errorf("ValidUntil = %s", rec.ValidUntil)
	}
	if !rec.Verification.KYCVerified || rec.Verification.VerificationLevel != domain.VerificationEnhanced {
		t.Errorf("verification snapshot not captured: %+v", rec.Verification)
	}
	if rec.SourceDataHash == "" || rec.ID == "" {
		t.Error("expected hash and id to be set")
	}
	if res.Partners == nil || len(res.Partners) != 0 {
		t.Errorf("expected empty non-nil partners, got %v", res.Partners)
	}
}

func TestRead_Idempotent(t *testing.T) {
	f := &fakeFetcher{}
	e := newTestEngine(f, memory.NewScoreStore(), nil)
	ctx := context.Background()

	first, err := e.Read(ctx, "b1", false)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	second, err := e.Read(ctx, "b1", false)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	third, err := e.Read(ctx, "b1", false)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if second.Outcome != OutcomeServedCached {
		t.Errorf("outcome = %s, want served_cached", second.Outcome)
	}
	if !reflect.DeepEqual(first.Record, second.Record) || !reflect.DeepEqual(second.Record, third.Record) {
		t.Errorf("records differ:\n%+v\n%+v\n%+v", first.Record, second.Record, third.Record)
	}
	if f.callCount() != 1 {
		t.Errorf("expected 1 fetch, got %d", f.callCount())
	}
}

func TestRead_MonotonicHistory(t *testing.T) {
	scores := memory.NewScoreStore()
	f := &fakeFetcher{}
	e := newTestEngine(f, scores, nil)
	ctx := context.Background()

	// Seed with a submitted score so the chain starts from a different total
	_, err := e.Submit(ctx, "b1", Submission{
		ScoreComponents: domain.ScoreComponents{OnChain: 100, OffChain: 100, Assets: 100, Reputation: 100, Total: 400, Tier: domain.TierD},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	const n = 4
	for i := 0; i < n; i++ {
		res, err := e.Read(ctx, "b1", true)
		if err != nil {
			t.Fatalf("Read %d failed: %v", i, err)
		}
		if res.Outcome != OutcomeRecomputed {
			t.Fatalf("Read %d outcome = %s", i, res.Outcome)
		}
	}

	history, err := e.History(ctx, "b1", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != n+1 {
		t.Fatalf("expected %d records, got %d", n+1, len(history))
	}

	// Newest first
	for i := 0; i < len(history)-1; i++ {
		newer, older := history[i], history[i+1]
		if !newer.IssuedAt.After(older.IssuedAt) {
			t.Errorf("record %d not after record %d", i, i+1)
		}
		if newer.PreviousTotal == nil || *newer.PreviousTotal != older.Total {
			t.Errorf("record %d PreviousTotal = %v, want %d", i, newer.PreviousTotal, older.Total)
		}
	}
	if *history[n-1].PreviousTotal != 400 {
		t.Errorf("first recompute PreviousTotal = %d, want 400", *history[n-1].PreviousTotal)
	}
	if len(f.invalidated) != n {
		t.Errorf("expected %d invalidations, got %d", n, len(f.invalidated))
	}
}

func TestRead_TimeoutRetrySucceeds(t *testing.T) {
	f := &fakeFetcher{delays: map[int]time.Duration{1: 500 * time.Millisecond}}
	e := newTestEngine(f, memory.NewScoreStore(), nil)

	start := time.Now()
	res, err := e.Read(context.Background(), "b1", true)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if res.Outcome != OutcomeRecomputedAfterRetry {
		t.Errorf("outcome = %s, want recomputed_after_retry", res.Outcome)
	}
	if elapsed >= 400*time.Millisecond {
		t.Errorf("Read waited for the abandoned attempt: %s", elapsed)
	}
	if res.Record.Total != 1000 {
		t.Errorf("total = %d, want 1000", res.Record.Total)
	}
}

func TestRead_TimeoutRetryFailsServesPrior(t *testing.T) {
	scores := memory.NewScoreStore()
	f := &fakeFetcher{}
	e := newTestEngine(f, scores, nil)
	ctx := context.Background()

	prior, err := e.Read(ctx, "b1", false)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	f.delays = map[int]time.Duration{2: 300 * time.Millisecond}
	f.errs = map[int]error{3: errBoom}

	res, err := e.Read(ctx, "b1", true)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if res.Outcome != OutcomeStaleFallback {
		t.Errorf("outcome = %s, want stale_fallback", res.Outcome)
	}
	if !reflect.DeepEqual(res.Record, prior.Record) {
		t.Error("expected prior record unchanged")
	}
}

func TestRead_ComputeFailureWithPriorIsStale(t *testing.T) {
	f := &fakeFetcher{}
	e := newTestEngine(f, memory.NewScoreStore(), nil)
	ctx := context.Background()

	prior, _ := e.Read(ctx, "b1", false)
	f.errAll = errBoom

	res, err := e.Read(ctx, "b1", true)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if res.Outcome != OutcomeStaleFallback || res.Record.ID != prior.Record.ID {
		t.Errorf("outcome = %s id = %s, want stale prior %s", res.Outcome, res.Record.ID, prior.Record.ID)
	}
}

func TestRead_BootstrapOnFailureWithoutPrior(t *testing.T) {
	scores := memory.NewScoreStore()
	f := &fakeFetcher{errAll: errBoom}
	e := newTestEngine(f, scores, nil)
	ctx := context.Background()

	res, err := e.Read(ctx, "b1", true)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	rec := res.Record
	if res.Outcome != OutcomeBootstrap || !res.Persisted {
		t.Errorf("outcome = %s persisted = %v, want bootstrap/true", res.Outcome, res.Persisted)
	}
	if rec.Tier != domain.TierC || rec.Total != 500 {
		t.Errorf("bootstrap total/tier = %d/%s, want 500/C", rec.Total, rec.Tier)
	}
	if rec.Source != domain.SourceBootstrap || !rec.Consistent() {
		t.Errorf("unexpected bootstrap record %+v", rec)
	}

	// Persisted for future reads
	again, err := e.Read(ctx, "b1", false)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if again.Outcome != OutcomeServedCached || !reflect.DeepEqual(again.Record, rec) {
		t.Errorf("expected bootstrap record served from store, got %s", again.Outcome)
	}
}

func TestRead_BootstrapSurvivesWriteFailure(t *testing.T) {
	scores := &flakyScores{ScoreStore: memory.NewScoreStore(), insertErr: errBoom}
	e := newTestEngine(&fakeFetcher{errAll: errBoom}, scores, nil)

	res, err := e.Read(context.Background(), "b1", false)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if res.Outcome != OutcomeBootstrap || res.Persisted {
		t.Errorf("outcome = %s persisted = %v, want bootstrap/false", res.Outcome, res.Persisted)
	}
	if res.Record.Tier != domain.TierC {
		t.Errorf("tier = %s, want C", res.Record.Tier)
	}
}

func TestRead_PersistFailureReturnsComputed(t *testing.T) {
	scores := &flakyScores{ScoreStore: memory.NewScoreStore(), insertErr: errBoom}
	e := newTestEngine(&fakeFetcher{}, scores, nil)

	res, err := e.Read(context.Background(), "b1", false)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if res.Outcome != OutcomeRecomputedUnpersisted || res.Persisted {
		t.Errorf("outcome = %s persisted = %v", res.Outcome, res.Persisted)
	}
	if res.Record.Total != 1000 {
		t.Errorf("total = %d, want computed 1000", res.Record.Total)
	}
}

func TestRead_LookupFailure(t *testing.T) {
	scores := &flakyScores{ScoreStore: memory.NewScoreStore(), latestErr: errBoom}
	e := newTestEngine(&fakeFetcher{}, scores, nil)

	_, err := e.Read(context.Background(), "b1", false)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestRead_CanceledContextBootstraps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &fakeFetcher{delays: map[int]time.Duration{1: 200 * time.Millisecond}}
	scores := memory.NewScoreStore()
	e := New(Options{Fetcher: f, Scores: scores, Timeout: time.Second})

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res, err := e.Read(ctx, "b1", true)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if time.Since(start) > 150*time.Millisecond {
		t.Errorf("Read did not return promptly on cancel")
	}
	if res.Outcome != OutcomeBootstrap || !res.Persisted {
		t.Errorf("outcome = %s persisted = %v, want bootstrap/true", res.Outcome, res.Persisted)
	}

	// Written despite the canceled caller
	if _, err := scores.Latest(context.Background(), "b1"); err != nil {
		t.Errorf("bootstrap record not persisted: %v", err)
	}
}

// blockingFetcher waits for ctx or release, whichever comes first.
type blockingFetcher struct {
	release chan struct{}
}

func (f *blockingFetcher) Fetch(ctx context.Context, _ string) (domain.BorrowerSignals, error) {
	select {
	case <-ctx.Done():
		return domain.BorrowerSignals{}, ctx.Err()
	case <-f.release:
		return domain.BorrowerSignals{}, errBoom
	}
}

func newBlockingEngine(t *testing.T, scores storage.ScoreStore) *Engine {
	t.Helper()
	f := &blockingFetcher{release: make(chan struct{})}
	t.Cleanup(func() { close(f.release) })
	return New(Options{
		Fetcher: f,
		Scores:  scores,
		Timeout: 50 * time.Millisecond,
		Now:     func() time.Time { return fixedNow },
	})
}

func TestRead_DeadlineDuringRetryServesPrior(t *testing.T) {
	scores := memory.NewScoreStore()
	prior, err := newTestEngine(&fakeFetcher{}, scores, nil).Read(context.Background(), "b1", false)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	e := newBlockingEngine(t, scores)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	res, err := e.Read(ctx, "b1", true)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if res.Outcome != OutcomeStaleFallback {
		t.Errorf("outcome = %s, want stale_fallback", res.Outcome)
	}
	if !reflect.DeepEqual(res.Record, prior.Record) {
		t.Error("expected prior record unchanged")
	}
}

func TestRead_DeadlineDuringRetryBootstraps(t *testing.T) {
	scores := memory.NewScoreStore()
	e := newBlockingEngine(t, scores)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	res, err := e.Read(ctx, "b2", false)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if res.Outcome != OutcomeBootstrap || !res.Persisted {
		t.Errorf("outcome = %s persisted = %v, want bootstrap/true", res.Outcome, res.Persisted)
	}
	if res.Record.Tier != domain.TierC {
		t.Errorf("tier = %s, want C", res.Record.Tier)
	}
}

func TestRead_RacingRecomputesBothPersist(t *testing.T) {
	scores := &flakyScores{ScoreStore: memory.NewScoreStore()}
	e := newTestEngine(&fakeFetcher{}, scores, nil)
	ctx := context.Background()

	first, err := e.Read(ctx, "b1", false)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	// The second reader has not seen the first record yet
	scores.latestErr = storage.ErrNotFound
	second, err := e.Read(ctx, "b1", false)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if second.Outcome != OutcomeRecomputed || !second.Persisted {
		t.Errorf("outcome = %s persisted = %v, want recomputed/true", second.Outcome, second.Persisted)
	}
	if want := first.Record.IssuedAt.Add(time.Microsecond); !second.Record.IssuedAt.Equal(want) {
		t.Errorf("issued_at = %s, want %s", second.Record.IssuedAt, want)
	}

	history, err := scores.History(ctx, "b1", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("expected 2 records, got %d", len(history))
	}
}

func TestRead_Partners(t *testing.T) {
	ctx := context.Background()
	partners := memory.NewPartnerAccessStore()
	_ = partners.Insert(ctx, &domain.PartnerAccessRecord{BorrowerID: "b1", PartnerID: "p1", PartnerName: "Lender One", Authorized: true, Permission: domain.PermissionScoreOnly})

	e := newTestEngine(&fakeFetcher{}, memory.NewScoreStore(), partners)
	res, err := e.Read(ctx, "b1", false)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(res.Partners) != 1 || res.Partners[0].PartnerID != "p1" {
		t.Errorf("unexpected partners %+v", res.Partners)
	}

	e = newTestEngine(&fakeFetcher{}, memory.NewScoreStore(), failingPartners{})
	res, err = e.Read(ctx, "b1", false)
	if err != nil {
		t.Fatalf("Read must not fail on partner errors: %v", err)
	}
	if res.Partners == nil || len(res.Partners) != 0 {
		t.Errorf("expected empty partners, got %v", res.Partners)
	}
}
