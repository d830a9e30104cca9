// Package app wires configuration into stores, signal sources and the engine.
// Shared by the server and operator binaries.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"credit-risk-engine/internal/config"
	"credit-risk-engine/internal/engine"
	"credit-risk-engine/internal/signals"
	"credit-risk-engine/internal/solana"
	"credit-risk-engine/internal/storage"
	chstore "credit-risk-engine/internal/storage/clickhouse"
	"credit-risk-engine/internal/storage/memory"
	"credit-risk-engine/internal/storage/migrations"
	pgstore "credit-risk-engine/internal/storage/postgres"
)

// Stores holds every store the engine reads or writes.
type Stores struct {
	Scores     storage.ScoreStore
	Partners   storage.PartnerAccessStore
	Loans      storage.LoanStore
	Payments   storage.PaymentStore
	Collateral storage.CollateralStore
	Profiles   storage.ProfileStore
}

// OpenStores connects the configured backends. The returned cleanup closes
// every connection that was opened.
func OpenStores(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (*Stores, func(), error) {
	if cfg.UseMemory {
		logger.Warn().Msg("using in-memory storage, data is lost on exit")
		return &Stores{
			Scores:     storage.NewScoreStoreWithMetrics(memory.NewScoreStore(), "memory"),
			Partners:   memory.NewPartnerAccessStore(),
			Loans:      memory.NewLoanStore(),
			Payments:   memory.NewPaymentStore(),
			Collateral: memory.NewCollateralStore(),
			Profiles:   memory.NewProfileStore(),
		}, func() {}, nil
	}

	if cfg.Migrate {
		if err := migrations.RunPostgresMigrations(ctx, cfg.PostgresDSN); err != nil {
			return nil, nil, err
		}
		logger.Info().Msg("postgres migrations applied")
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	stores := &Stores{
		Scores:     storage.NewScoreStoreWithMetrics(pgstore.NewScoreStore(pool), config.BackendPostgres),
		Partners:   pgstore.NewPartnerAccessStore(pool),
		Loans:      pgstore.NewLoanStore(pool),
		Payments:   pgstore.NewPaymentStore(pool),
		Collateral: pgstore.NewCollateralStore(pool),
		Profiles:   pgstore.NewProfileStore(pool),
	}
	cleanup := pool.Close

	if cfg.ScoreBackend == config.BackendClickhouse {
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		if cfg.Migrate {
			if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
				conn.Close()
				pool.Close()
				return nil, nil, err
			}
			logger.Info().Msg("clickhouse migrations applied")
		}
		stores.Scores = storage.NewScoreStoreWithMetrics(chstore.NewScoreStore(conn), config.BackendClickhouse)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	}

	logger.Info().Str("score_backend", cfg.ScoreBackend).Msg("stores connected")
	return stores, cleanup, nil
}

// NewFetcher builds the signal fetcher over stores, with on-chain reads
// when an RPC endpoint is configured and the cache when enabled.
func NewFetcher(cfg *config.Config, stores *Stores, logger zerolog.Logger) signals.Fetcher {
	src := signals.Sources{
		Loans:      stores.Loans,
		Payments:   stores.Payments,
		Collateral: stores.Collateral,
		Profiles:   stores.Profiles,
	}

	if cfg.Solana.RPCURL != "" {
		rpc := solana.NewHTTPClient(cfg.Solana.RPCURL,
			solana.WithTimeout(cfg.Solana.Timeout),
			solana.WithMaxRetries(cfg.Solana.MaxRetries),
			solana.WithLogger(logger),
		)
		src.Wallets = solana.NewActivityReader(rpc, cfg.Solana.SOLPriceUSD,
			solana.WithMaxPages(cfg.Solana.MaxPages),
			solana.WithActivityLogger(logger),
		)
	} else {
		logger.Warn().Msg("no solana rpc url configured, on-chain signals unknown")
	}

	f := signals.NewStoreFetcher(src, signals.WithLogger(logger))
	return signals.WithCache(f, cfg.Cache.Size, cfg.Cache.TTL)
}

// NewEngine builds the engine over stores.
func NewEngine(cfg *config.Config, stores *Stores, logger zerolog.Logger) *engine.Engine {
	return engine.New(engine.Options{
		Fetcher:        NewFetcher(cfg, stores, logger),
		Scores:         stores.Scores,
		Partners:       stores.Partners,
		Timeout:        cfg.Engine.ComputeTimeout,
		ValidityWindow: cfg.Engine.ValidityWindow,
		ModelVersion:   cfg.Engine.ModelVersion,
		Logger:         &logger,
	})
}
