// Package persistence opens and migrates the catalog database.
package persistence

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tidecat/tidecat/internal/config"
	"github.com/tidecat/tidecat/internal/domain/models"
	"github.com/tidecat/tidecat/internal/infrastructure/policy"
)

// Open connects to PostgreSQL and runs the schema migration.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the auth-core tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&policy.Grant{},
		&policy.Metastore{},
	); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	return nil
}
