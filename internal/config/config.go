// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Score store backends.
const (
	BackendPostgres   = "postgres"
	BackendClickhouse = "clickhouse"
)

// Config is the full service configuration.
type Config struct {
	HTTP    HTTPConfig   `envPrefix:"HTTP_"`
	Log     LogConfig    `envPrefix:"LOG_"`
	Solana  SolanaConfig `envPrefix:"SOLANA_"`
	Cache   CacheConfig  `envPrefix:"SIGNAL_CACHE_"`
	Auth    AuthConfig   `envPrefix:"JWT_"`
	Storage StorageConfig
	Engine  EngineConfig
}

type HTTPConfig struct {
	Addr            string        `env:"ADDR"             envDefault:":8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT"  envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

type LogConfig struct {
	Level  string `env:"LEVEL"  envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"console"` // console | json
}

type StorageConfig struct {
	UseMemory     bool   `env:"USE_MEMORY"`
	PostgresDSN   string `env:"POSTGRES_DSN"`
	ClickhouseDSN string `env:"CLICKHOUSE_DSN"`
	ScoreBackend  string `env:"SCORE_BACKEND" envDefault:"postgres"` // postgres | clickhouse
	Migrate       bool   `env:"MIGRATE"`
}

// SolanaConfig configures on-chain activity reads. An empty RPCURL disables
// them and every on-chain fact is unknown.
type SolanaConfig struct {
	RPCURL      string        `env:"RPC_URL"`
	SOLPriceUSD float64       `env:"SOL_PRICE_USD" envDefault:"150"`
	Timeout     time.Duration `env:"RPC_TIMEOUT"   envDefault:"10s"`
	MaxRetries  int           `env:"RPC_RETRIES"   envDefault:"3"`
	MaxPages    int           `env:"MAX_PAGES"     envDefault:"10"`
}

type EngineConfig struct {
	ComputeTimeout time.Duration `env:"COMPUTE_TIMEOUT"       envDefault:"10s"`
	ValidityWindow time.Duration `env:"SCORE_VALIDITY_WINDOW" envDefault:"720h"`
	ModelVersion   string        `env:"MODEL_VERSION"         envDefault:"rules-v1"`
}

// CacheConfig configures the signal cache. A zero TTL disables it.
type CacheConfig struct {
	TTL  time.Duration `env:"TTL"  envDefault:"5m"`
	Size int           `env:"SIZE" envDefault:"10000"`
}

type AuthConfig struct {
	Secret string `env:"SECRET"`
	Issuer string `env:"ISSUER" envDefault:"credit-risk-engine"`
}

// Load reads .env files, when present, then parses the environment.
// Without arguments it reads ./.env.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("HTTP_ADDR is required"))
	}
	if c.HTTP.RequestTimeout <= 0 || c.HTTP.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("HTTP timeouts must be positive"))
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if f := strings.ToLower(c.Log.Format); f != "console" && f != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.Log.Format))
	}

	if !c.Storage.UseMemory {
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required unless USE_MEMORY is set"))
		}
		switch c.Storage.ScoreBackend {
		case BackendPostgres:
		case BackendClickhouse:
			if c.Storage.ClickhouseDSN == "" {
				errs = append(errs, errors.New("CLICKHOUSE_DSN is required for the clickhouse score backend"))
			}
		default:
			errs = append(errs, fmt.Errorf("SCORE_BACKEND must be %s or %s, got %q", BackendPostgres, BackendClickhouse, c.Storage.ScoreBackend))
		}
	}

	if c.Solana.RPCURL != "" {
		if c.Solana.SOLPriceUSD <= 0 {
			errs = append(errs, errors.New("SOLANA_SOL_PRICE_USD must be positive"))
		}
		if c.Solana.Timeout <= 0 {
			errs = append(errs, errors.New("SOLANA_RPC_TIMEOUT must be positive"))
		}
		if c.Solana.MaxPages <= 0 {
			errs = append(errs, errors.New("SOLANA_MAX_PAGES must be positive"))
		}
	}

	if c.Engine.ComputeTimeout <= 0 {
		errs = append(errs, errors.New("COMPUTE_TIMEOUT must be positive"))
	}
	if c.Engine.ValidityWindow <= 0 {
		errs = append(errs, errors.New("SCORE_VALIDITY_WINDOW must be positive"))
	}
	if c.Cache.TTL < 0 || c.Cache.Size < 0 {
		errs = append(errs, errors.New("SIGNAL_CACHE_TTL and SIGNAL_CACHE_SIZE must not be negative"))
	}

	if len(c.Auth.Secret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 bytes"))
	}

	return errors.Join(errs...)
}
