package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("USE_MEMORY", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
	}
	if cfg.Engine.ComputeTimeout != 10*time.Second {
		t.Errorf("ComputeTimeout = %s, want 10s", cfg.Engine.ComputeTimeout)
	}
	if cfg.Engine.ValidityWindow != 30*24*time.Hour {
		t.Errorf("ValidityWindow = %s, want 720h", cfg.Engine.ValidityWindow)
	}
	if cfg.Cache.TTL != 5*time.Minute || cfg.Cache.Size != 10000 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Storage.ScoreBackend != BackendPostgres {
		t.Errorf("ScoreBackend = %q, want postgres", cfg.Storage.ScoreBackend)
	}
	if !cfg.Storage.UseMemory {
		t.Error("expected USE_MEMORY from environment")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "HTTP_ADDR=:9999\nSIGNAL_CACHE_TTL=0s\nSOLANA_RPC_URL=http://localhost:8899\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("HTTP_ADDR")
		os.Unsetenv("SIGNAL_CACHE_TTL")
		os.Unsetenv("SOLANA_RPC_URL")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Errorf("HTTP.Addr = %q, want :9999", cfg.HTTP.Addr)
	}
	if cfg.Cache.TTL != 0 {
		t.Errorf("Cache.TTL = %s, want 0", cfg.Cache.TTL)
	}
	if cfg.Solana.RPCURL != "http://localhost:8899" {
		t.Errorf("Solana.RPCURL = %q", cfg.Solana.RPCURL)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("COMPUTE_TIMEOUT", "soon")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected parse error")
	}
}

func validConfig() Config {
	return Config{
		HTTP:    HTTPConfig{Addr: ":8080", RequestTimeout: time.Second, ShutdownTimeout: time.Second},
		Log:     LogConfig{Level: "info", Format: "json"},
		Storage: StorageConfig{PostgresDSN: "postgres://localhost/credit", ScoreBackend: BackendPostgres},
		Solana:  SolanaConfig{SOLPriceUSD: 150, Timeout: time.Second, MaxPages: 10},
		Engine:  EngineConfig{ComputeTimeout: time.Second, ValidityWindow: time.Hour, ModelVersion: "rules-v1"},
		Cache:   CacheConfig{TTL: time.Minute, Size: 10},
		Auth:    AuthConfig{Secret: "0123456789abcdef"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"memory needs no dsn", func(c *Config) { c.Storage.UseMemory = true; c.Storage.PostgresDSN = "" }, ""},
		{"missing dsn", func(c *Config) { c.Storage.PostgresDSN = "" }, "POSTGRES_DSN"},
		{"clickhouse without dsn", func(c *Config) { c.Storage.ScoreBackend = BackendClickhouse }, "CLICKHOUSE_DSN"},
		{"unknown backend", func(c *Config) { c.Storage.ScoreBackend = "mongo" }, "SCORE_BACKEND"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "LOG_FORMAT"},
		{"short secret", func(c *Config) { c.Auth.Secret = "short" }, "JWT_SECRET"},
		{"zero compute timeout", func(c *Config) { c.Engine.ComputeTimeout = 0 }, "COMPUTE_TIMEOUT"},
		{"negative cache", func(c *Config) { c.Cache.Size = -1 }, "SIGNAL_CACHE"},
		{"rpc without price", func(c *Config) { c.Solana.RPCURL = "http://rpc"; c.Solana.SOLPriceUSD = 0 }, "SOL_PRICE_USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf strings.Builder
	logger := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("borrower_id", "b1").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, `"borrower_id":"b1"`) || !strings.Contains(out, `"service":"credit-risk-engine"`) {
		t.Errorf("unexpected output %q", out)
	}
}
