// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and PostgreSQL, plus schema migrations.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/aura-backend/internal/config"
	"github.com/tbourn/aura-backend/internal/domain"
)

// Options tune a connection beyond the DSN.
type Options struct {
	MaxOpenConns int
	// Tracing registers the GORM OpenTelemetry plugin so every statement
	// becomes a child span of the request.
	Tracing bool
	// Silent disables GORM's statement logger.
	Silent bool
}

// Open connects to the configured driver and applies pool settings.
func Open(cfg config.DBConfig, tracingOn bool) (*gorm.DB, error) {
	opts := Options{MaxOpenConns: cfg.MaxOpenConns, Tracing: tracingOn, Silent: true}
	switch cfg.Driver {
	case "postgres":
		return OpenPostgres(cfg.URL, opts)
	case "sqlite", "":
		return OpenSQLite(cfg.Path, opts)
	default:
		return nil, fmt.Errorf("unsupported DB driver %q", cfg.Driver)
	}
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string, opts Options) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig(opts))
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	return finish(db, opts)
}

// OpenPostgres connects using a libpq-style URL or DSN.
func OpenPostgres(url string, opts Options) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(url), gormConfig(opts))
	if err != nil {
		return nil, err
	}
	return finish(db, opts)
}

func gormConfig(opts Options) *gorm.Config {
	cfg := &gorm.Config{
		// Timestamps are persisted in UTC so lexical comparison on SQLite
		// TEXT columns matches chronological order.
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
	if opts.Silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	return cfg
}

func finish(db *gorm.DB, opts Options) (*gorm.DB, error) {
	if opts.Tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, err
		}
	}

	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxOpen)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// AutoMigrate creates or updates every table. Teams precede users so the
// has-many constraint on users.team_id can reference teams.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Team{},
		&domain.User{},
		&domain.Recognition{},
		&domain.SentimentEntry{},
		&domain.PersonalReport{},
		&domain.TeamReport{},
		&domain.Idempotency{},
	)
}
