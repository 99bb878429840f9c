package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// DefaultSweepInterval is how often expired cache and lock rows are purged.
// Reads filter on expires_at themselves, so correctness never depends on
// the sweep having run; it only bounds storage growth.
const DefaultSweepInterval = 60 * time.Second

// Config holds database configuration.
type Config struct {
	DatabasePath  string
	SweepInterval time.Duration
}

// DB wraps the sqlite connection and exposes the cache/lock repository.
type DB struct {
	sql        *sql.DB
	Repository *Repository

	sweepInterval time.Duration
	stopCh        chan struct{}
	doneCh        chan struct{}
}

// NewDB opens (creating if needed) the sqlite database, applies pragmas and
// migrations, and returns a ready DB.
func NewDB(cfg Config) (*DB, error) {
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=30000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, execErr := sqlDB.Exec(pragma); execErr != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if err := applyMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &DB{
		sql:           sqlDB,
		Repository:    &Repository{db: sqlDB},
		sweepInterval: interval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}, nil
}

func applyMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	if db == nil || db.sql == nil {
		return nil
	}
	return db.sql.Close()
}

// StartSweeper launches the periodic expiry sweep. It runs until Stop is
// called or ctx is cancelled.
func (db *DB) StartSweeper(ctx context.Context) {
	go func() {
		defer close(db.doneCh)
		ticker := time.NewTicker(db.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-db.stopCh:
				return
			case <-ticker.C:
				db.Sweep(ctx)
			}
		}
	}()
}

// StopSweeper stops the sweep loop and waits for it to exit.
func (db *DB) StopSweeper() {
	select {
	case <-db.stopCh:
	default:
		close(db.stopCh)
	}
	<-db.doneCh
}

// Sweep deletes rows whose expiry has passed across every namespace,
// including stale lock rows left by crashed owners.
func (db *DB) Sweep(ctx context.Context) {
	now := unixSeconds(time.Now())
	statements := []string{
		"DELETE FROM metadata WHERE expires_at IS NOT NULL AND expires_at < ?",
		"DELETE FROM debrid_availability WHERE expires_at IS NOT NULL AND expires_at < ?",
		"DELETE FROM custom_source WHERE expires_at < ?",
		"DELETE FROM scrape_lock WHERE expires_at < ?",
	}
	for _, stmt := range statements {
		if _, err := db.sql.ExecContext(ctx, stmt, now); err != nil {
			log.Printf("[database] sweep failed: %v", err)
		}
	}
}

// Repository provides the TTL cache namespaces and the distributed lock on
// top of the shared sqlite store.
type Repository struct {
	db *sql.DB
}

// unixSeconds keeps sub-second precision; expiry columns are REAL.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
