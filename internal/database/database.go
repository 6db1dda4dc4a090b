// Package database manages the SQLite store holding projects, autosave
// snapshots, templates, render records, and the editor's auth state.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"clipforge/internal/logging"
	"clipforge/internal/metrics"
)

// defaultTimeout bounds individual database operations.
const defaultTimeout = 5 * time.Second

// Database wraps the SQLite connection. All exported methods are safe for
// concurrent use.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// New opens (creating if necessary) the database at dbPath. The parent
// directory must already exist and be writable; use startup.LoadConfig
// for directory validation before calling this.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	// WAL keeps readers unblocked during autosave writes; busy_timeout
	// avoids spurious "database is locked" errors.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000&_foreign_keys=1", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{db: db, dbPath: dbPath}
	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		aspect_ratio TEXT NOT NULL DEFAULT '16:9',
		duration_in_frames INTEGER NOT NULL DEFAULT 0,
		snapshot TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(updated_at);

	CREATE TABLE IF NOT EXISTS autosaves (
		project_id INTEGER PRIMARY KEY,
		snapshot TEXT NOT NULL,
		saved_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		description TEXT,
		snapshot TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE TABLE IF NOT EXISTS renders (
		id TEXT PRIMARY KEY,
		project_id INTEGER,
		status TEXT NOT NULL,
		format TEXT NOT NULL,
		codec TEXT NOT NULL,
		progress REAL NOT NULL DEFAULT 0,
		output_path TEXT,
		size INTEGER NOT NULL DEFAULT 0,
		message TEXT,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_renders_status ON renders(status);
	CREATE INDEX IF NOT EXISTS idx_renders_created ON renders(created_at);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL UNIQUE,
		expires_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
	`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Close closes the underlying connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// recordQuery feeds the per-operation database metrics.
func recordQuery(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
