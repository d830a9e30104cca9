package signals

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/observability"
	"credit-risk-engine/internal/storage"
)

// Fetcher gathers the signals of one borrower.
type Fetcher interface {
	Fetch(ctx context.Context, borrowerID string) (domain.BorrowerSignals, error)
}

// WalletActivitySource reads on-chain activity of a wallet address.
// Implemented by *solana.ActivityReader.
type WalletActivitySource interface {
	WalletActivity(ctx context.Context, address string) (*domain.WalletActivity, error)
}

// Sources are the systems of record the fetcher reads from.
// Wallets may be nil, in which case on-chain facts are always unknown.
type Sources struct {
	Loans      storage.LoanStore
	Payments   storage.PaymentStore
	Collateral storage.CollateralStore
	Profiles   storage.ProfileStore
	Wallets    WalletActivitySource
}

// StoreFetcher fetches every dataset concurrently and derives signals.
// A failing dataset never fails the fetch; it is reported through
// BorrowerSignals.Degraded instead.
type StoreFetcher struct {
	src    Sources
	now    func() time.Time
	logger zerolog.Logger
}

// FetcherOption configures a StoreFetcher.
type FetcherOption func(*StoreFetcher)

// WithClock overrides the time source used for age computations.
func WithClock(now func() time.Time) FetcherOption {
	return func(f *StoreFetcher) {
		f.now = now
	}
}

// WithLogger sets the logger for degraded dataset warnings.
func WithLogger(logger zerolog.Logger) FetcherOption {
	return func(f *StoreFetcher) {
		f.logger = logger
	}
}

// NewStoreFetcher creates a fetcher over the given sources.
func NewStoreFetcher(src Sources, opts ...FetcherOption) *StoreFetcher {
	f := &StoreFetcher{
		src:    src,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch gathers signals for borrowerID. The only error returned is the
// context error when ctx ends before all datasets are in.
func (f *StoreFetcher) Fetch(ctx context.Context, borrowerID string) (domain.BorrowerSignals, error) {
	var (
		in Inputs
		g  errgroup.Group
	)

	g.Go(func() error {
		in.Loans = fetch(func() ([]*domain.Loan, error) {
			return f.src.Loans.ListByBorrower(ctx, borrowerID)
		})
		return nil
	})
	g.Go(func() error {
		in.Payments = fetch(func() ([]*domain.Payment, error) {
			return f.src.Payments.ListByBorrower(ctx, borrowerID)
		})
		return nil
	})
	g.Go(func() error {
		in.Collateral = fetch(func() ([]*domain.CollateralAsset, error) {
			return f.src.Collateral.ListByOwner(ctx, borrowerID)
		})
		return nil
	})
	g.Go(func() error {
		// The wallet address lives on the profile
		in.Profile = f.profile(ctx, borrowerID)
		in.Wallet = f.wallet(ctx, in.Profile)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return domain.BorrowerSignals{}, err
	}

	s := Derive(f.now(), in)
	for _, ds := range s.Degraded {
		observability.RecordDegradedDataset(string(ds))
	}
	if len(s.Degraded) > 0 {
		f.logDegraded(borrowerID, in)
	}
	return s, nil
}

func (f *StoreFetcher) profile(ctx context.Context, borrowerID string) Result[*domain.BorrowerProfile] {
	p, err := f.src.Profiles.GetByID(ctx, borrowerID)
	if errors.Is(err, storage.ErrNotFound) {
		return Ok[*domain.BorrowerProfile](nil)
	}
	if err != nil {
		return Fail[*domain.BorrowerProfile](err)
	}
	return Ok(p)
}

func (f *StoreFetcher) wallet(ctx context.Context, profile Result[*domain.BorrowerProfile]) Result[*domain.WalletActivity] {
	if f.src.Wallets == nil || !profile.OK() || profile.Value == nil {
		return Ok[*domain.WalletActivity](nil)
	}
	address := strings.TrimSpace(profile.Value.WalletAddress)
	if address == "" {
		return Ok[*domain.WalletActivity](nil)
	}
	return fetch(func() (*domain.WalletActivity, error) {
		return f.src.Wallets.WalletActivity(ctx, address)
	})
}

func (f *StoreFetcher) logDegraded(borrowerID string, in Inputs) {
	ev := f.logger.Warn().Str("borrower_id", borrowerID)
	for ds, err := range map[domain.Dataset]error{
		domain.DatasetLoans:      in.Loans.Err,
		domain.DatasetPayments:   in.Payments.Err,
		domain.DatasetCollateral: in.Collateral.Err,
		domain.DatasetProfile:    in.Profile.Err,
		domain.DatasetOnChain:    in.Wallet.Err,
	} {
		if err != nil {
			ev = ev.AnErr(string(ds), err)
		}
	}
	ev.Msg("signals degraded")
}

func fetch[T any](fn func() (T, error)) Result[T] {
	v, err := fn()
	if err != nil {
		return Fail[T](err)
	}
	return Ok(v)
}
