package db

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"propinsight/internal/config"
)

// Connect opens the shared GORM connection pool. The pool is the only
// database handle in the process and is injected into the Store.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	// PrepareStmt: true caches the statement of each distinct filter
	// combination; the set is small and bounded.
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		PrepareStmt: true,
		Logger:      newGormLogger(),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	return db, nil
}

// Migrate creates the fact and dimension tables. Production schemas are
// owned by the ingestion pipeline, so this only runs when asked to and
// in tests.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Area{}, &Project{}, &PropertyType{}, &PropertySubType{},
		&TransGroup{}, &Usage{}, &RegType{},
		&Transaction{}, &RentContract{},
	)
}

// Ping checks that a pooled connection can reach the server.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
