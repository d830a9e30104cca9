package migrations

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "pgx" database/sql driver used by goose.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunPostgresMigrations applies all embedded goose migrations that have not
// been applied yet. Safe to call on every start.
func RunPostgresMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open postgres for migrations: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres for migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, PostgresFS)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply postgres migrations: %w", err)
	}
	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("apply migration %s: %w", r.Source.Path, r.Error)
		}
	}

	return nil
}
