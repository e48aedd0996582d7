package internal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukerupert/bakehouse/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations brings the product and contact tables up to date and logs
// each migration it applies.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.MigrationsFS)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	for _, r := range results {
		logger.Info("Applied migration",
			"version", r.Source.Version,
			"file", r.Source.Path,
			"duration", r.Duration,
		)
	}
	if len(results) == 0 {
		logger.Debug("Schema already current")
	}
	return nil
}
