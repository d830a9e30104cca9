package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"credit-risk-engine/internal/config"
	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/engine"
	"credit-risk-engine/internal/signals"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{UseMemory: true},
		Engine:  config.EngineConfig{ComputeTimeout: time.Second, ValidityWindow: time.Hour, ModelVersion: "rules-v1"},
		Cache:   config.CacheConfig{TTL: time.Minute, Size: 100},
	}
}

func TestMemoryWiring(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()

	stores, cleanup, err := OpenStores(ctx, cfg.Storage, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenStores failed: %v", err)
	}
	defer cleanup()

	if err := stores.Profiles.Insert(ctx, &domain.BorrowerProfile{
		ID: "b1", CreatedAt: time.Now().AddDate(-3, 0, 0), KYCVerified: true, AMLVerified: true,
		VerificationLevel: domain.VerificationEnhanced,
	}); err != nil {
		t.Fatalf("Insert profile failed: %v", err)
	}

	eng := NewEngine(cfg, stores, zerolog.Nop())
	res, err := eng.Read(ctx, "b1", false)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if res.Outcome != engine.OutcomeRecomputed {
		t.Errorf("outcome = %s, want recomputed", res.Outcome)
	}
	if !res.Record.Verification.KYCVerified {
		t.Error("expected profile verification in record")
	}
	if res.Record.ModelVersion != "rules-v1" {
		t.Errorf("ModelVersion = %s", res.Record.ModelVersion)
	}
}

func TestNewFetcher_Cache(t *testing.T) {
	cfg := memoryConfig()
	stores, cleanup, err := OpenStores(context.Background(), cfg.Storage, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenStores failed: %v", err)
	}
	defer cleanup()

	if _, ok := NewFetcher(cfg, stores, zerolog.Nop()).(*signals.CachedFetcher); !ok {
		t.Error("expected cached fetcher when TTL is set")
	}

	cfg.Cache.TTL = 0
	if _, ok := NewFetcher(cfg, stores, zerolog.Nop()).(*signals.StoreFetcher); !ok {
		t.Error("expected plain fetcher when TTL is zero")
	}
}
