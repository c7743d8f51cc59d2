// Package database provides the SQLite connection and schema migration for
// the weather-contract ledger.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Profile defines a PRAGMA-tuning profile for a database connection.
type Profile string

const (
	// ProfileLedger - maximum safety, used for the trade/paper_trade journal.
	ProfileLedger Profile = "ledger"
	// ProfileCache - maximum speed, used for settlement/orderbook/consensus caches.
	ProfileCache Profile = "cache"
	// ProfileStandard - balanced, used for observations/extremes/forecasts.
	ProfileStandard Profile = "standard"
)

// DB wraps a SQLite connection with production-grade pool and PRAGMA config.
type DB struct {
	conn    *sql.DB
	path    string
	profile Profile
	name    string
}

// Config holds database connection parameters.
type Config struct {
	Path    string
	Profile Profile
	Name    string
}

// New opens a SQLite connection with profile-tuned PRAGMAs and pool limits.
func New(cfg Config) (*DB, error) {
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("resolving database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		cfg.Path = absPath
	}

	if cfg.Profile == "" {
		cfg.Profile = ProfileStandard
	}

	connStr := buildConnectionString(cfg.Path, cfg.Profile)

	conn, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.Name, err)
	}

	configureConnectionPool(conn, cfg.Profile)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database %s: %w", cfg.Name, err)
	}

	return &DB{conn: conn, path: cfg.Path, profile: cfg.Profile, name: cfg.Name}, nil
}

// findSchemasDirectory locates schemas/ as a sibling of this source file, so
// migration works regardless of the binary's working directory.
func findSchemasDirectory() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to get caller information")
	}
	absFile, err := filepath.Abs(currentFile)
	if err != nil {
		return "", fmt.Errorf("resolving source file path: %w", err)
	}
	schemasDir := filepath.Join(filepath.Dir(absFile), "schemas")
	info, err := os.Stat(schemasDir)
	if err != nil {
		return "", fmt.Errorf("schemas directory not found at %s: %w", schemasDir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("schemas path is not a directory: %s", schemasDir)
	}
	return schemasDir, nil
}

func buildConnectionString(path string, profile Profile) string {
	connStr := path + "?_pragma=journal_mode(WAL)"

	switch profile {
	case ProfileLedger:
		connStr += "&_pragma=synchronous(FULL)"
		connStr += "&_pragma=auto_vacuum(NONE)"
	case ProfileCache:
		connStr += "&_pragma=synchronous(OFF)"
		connStr += "&_pragma=auto_vacuum(FULL)"
		connStr += "&_pragma=temp_store(MEMORY)"
	case ProfileStandard:
		connStr += "&_pragma=synchronous(NORMAL)"
		connStr += "&_pragma=auto_vacuum(INCREMENTAL)"
		connStr += "&_pragma=temp_store(MEMORY)"
	}

	connStr += "&_pragma=foreign_keys(1)"
	connStr += "&_pragma=wal_autocheckpoint(1000)"
	connStr += "&_pragma=cache_size(-64000)"

	return connStr
}

func configureConnectionPool(conn *sql.DB, profile Profile) {
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(24 * time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	if profile == ProfileCache {
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(2)
	}
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.conn.Close() }

// Conn returns the underlying *sql.DB for repositories.
func (db *DB) Conn() *sql.DB { return db.conn }

// Name returns the friendly database name used for logging and migration lookup.
func (db *DB) Name() string { return db.name }

// Profile returns the PRAGMA profile this connection was opened with.
func (db *DB) Profile() Profile { return db.profile }

// Path returns the resolved database file path.
func (db *DB) Path() string { return db.path }

// Migrate applies weather_schema.sql. The schema is idempotent (CREATE TABLE
// IF NOT EXISTS) so repeated calls across restarts are safe.
func (db *DB) Migrate() error {
	schemasDir, err := findSchemasDirectory()
	if err != nil {
		return nil
	}

	content, err := os.ReadFile(filepath.Join(schemasDir, "weather_schema.sql"))
	if err != nil {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration transaction: %w", err)
	}

	if _, err := tx.Exec(string(content)); err != nil {
		_ = tx.Rollback()
		errStr := err.Error()
		if strings.Contains(errStr, "duplicate column") || strings.Contains(errStr, "already exists") {
			return nil
		}
		return fmt.Errorf("executing weather_schema.sql: %w", err)
	}

	return tx.Commit()
}

// Begin starts a new transaction.
func (db *DB) Begin() (*sql.Tx, error) { return db.conn.Begin() }

// BeginTx starts a new transaction with options.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return db.conn.BeginTx(ctx, opts)
}
