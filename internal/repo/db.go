// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and schema migrations.
package repo

import (
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/moonbrew/go-rewards-backend/internal/domain"
)

// OpenSQLite opens (or creates) the rewards database at path and applies
// PRAGMAs and pool settings suited to a single small server process.
func OpenSQLite(path string) (*gorm.DB, error) {
	// A missing parent directory surfaces from sqlite as the cryptic
	// "out of memory (14)" on some platforms, so check it up front.
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// WAL keeps game writes from blocking wallet reads; the busy timeout
	// covers the occasional concurrent allowance upsert.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	} {
		db.Exec(pragma)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for all persisted aggregates:
// the prize ledger, daily play allowances, and idempotency records.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.PrizeEntry{},
		&domain.PlayAllowance{},
		&domain.Idempotency{},
	)
}
