package db

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"
	embeddedmigrations "github.com/terraincognita07/parish/migrations"
	"gorm.io/gorm"
)

func applyEmbeddedMigrations(ctx context.Context, database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return fmt.Errorf("resolve sql db: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, sqlDB, embeddedmigrations.Files)
	if err != nil {
		return fmt.Errorf("init migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrationVersion returns the highest applied migration version.
func MigrationVersion(ctx context.Context, database *gorm.DB) (int64, error) {
	sqlDB, err := database.DB()
	if err != nil {
		return 0, fmt.Errorf("resolve sql db: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, sqlDB, embeddedmigrations.Files)
	if err != nil {
		return 0, fmt.Errorf("init migration provider: %w", err)
	}
	return provider.GetDBVersion(ctx)
}
