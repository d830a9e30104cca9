package solana

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"credit-risk-engine/internal/domain"
)

// Pagination bounds for signature history.
const (
	DefaultPageSize = 1000
	DefaultMaxPages = 10
)

// ActivityReader summarizes a wallet's on-chain history and holdings.
type ActivityReader struct {
	rpc         RPCClient
	solPriceUSD float64
	pageSize    int
	maxPages    int
	stableMints []string
	logger      zerolog.Logger
}

// ActivityOption configures ActivityReader.
type ActivityOption func(*ActivityReader)

// WithPageSize sets the number of signatures requested per page.
func WithPageSize(n int) ActivityOption {
	return func(r *ActivityReader) {
		r.pageSize = n
	}
}

// WithMaxPages bounds how many signature pages are read per wallet.
// The transaction count is a lower bound once the bound is hit.
func WithMaxPages(n int) ActivityOption {
	return func(r *ActivityReader) {
		r.maxPages = n
	}
}

// WithStablecoinMints overrides the mints priced at one USD.
func WithStablecoinMints(mints ...string) ActivityOption {
	return func(r *ActivityReader) {
		r.stableMints = mints
	}
}

// WithActivityLogger sets the logger.
func WithActivityLogger(logger zerolog.Logger) ActivityOption {
	return func(r *ActivityReader) {
		r.logger = logger
	}
}

// NewActivityReader creates an ActivityReader. solPriceUSD is the reference
// price used to value native balances.
func NewActivityReader(rpc RPCClient, solPriceUSD float64, opts ...ActivityOption) *ActivityReader {
	r := &ActivityReader{
		rpc:         rpc,
		solPriceUSD: solPriceUSD,
		pageSize:    DefaultPageSize,
		maxPages:    DefaultMaxPages,
		stableMints: []string{USDCMint, USDTMint},
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WalletActivity reads signature history, native balance and stablecoin
// holdings for address. Any RPC failure fails the whole read.
func (r *ActivityReader) WalletActivity(ctx context.Context, address string) (*domain.WalletActivity, error) {
	if err := ValidateWalletAddress(address); err != nil {
		return nil, err
	}

	count, firstSeen, err := r.history(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("read signature history: %w", err)
	}

	lamports, err := r.rpc.GetBalance(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("read native balance: %w", err)
	}

	var stable float64
	for _, mint := range r.stableMints {
		accounts, err := r.rpc.GetTokenAccountsByOwner(ctx, address, mint)
		if err != nil {
			return nil, fmt.Errorf("read token accounts for %s: %w", mint, err)
		}
		for _, a := range accounts {
			stable += a.UIAmount
		}
	}

	activity := &domain.WalletActivity{
		Address:          address,
		FirstSeen:        firstSeen,
		TransactionCount: count,
		StablecoinValue:  stable,
		NativeValue:      float64(lamports) / LamportsPerSOL * r.solPriceUSD,
	}

	r.logger.Debug().
		Str("wallet", address).
		Int("transactions", count).
		Float64("stablecoin_usd", activity.StablecoinValue).
		Float64("native_usd", activity.NativeValue).
		Msg("wallet activity read")

	return activity, nil
}

// history pages backwards through signatures, newest first, until a short
// page or the page bound. Returns the count and the oldest block time seen.
func (r *ActivityReader) history(ctx context.Context, address string) (int, *time.Time, error) {
	var (
		count  int
		oldest *int64
		before string
	)

	for page := 0; page < r.maxPages; page++ {
		sigs, err := r.rpc.GetSignaturesForAddress(ctx, address, &SignaturesOpts{
			Before: before,
			Limit:  r.pageSize,
		})
		if err != nil {
			return 0, nil, err
		}

		count += len(sigs)
		for _, s := range sigs {
			if s.BlockTime != nil && (oldest == nil || *s.BlockTime < *oldest) {
				bt := *s.BlockTime
				oldest = &bt
			}
		}

		if len(sigs) < r.pageSize {
			break
		}
		before = sigs[len(sigs)-1].Signature
	}

	if oldest == nil {
		return count, nil, nil
	}
	firstSeen := time.Unix(*oldest, 0).UTC()
	return count, &firstSeen, nil
}
