// Package db is the persistence layer: a single-file embedded SQLite store
// holding workdays, pauses, tasks, tags, templates, and a monotonic
// migration log.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/ncruces/go-strftime"

	"github.com/lacodda/kasl/internal/kaslerr"
)

// Store wraps the single *sql.DB connection the daemon holds. Report/CLI
// readers open the same file; SQLite's own locking arbitrates concurrent
// access.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite file at path, applies every
// pending migration in version order, and returns a ready Store. Each
// migration runs in its own transaction; a failure rolls back just that
// migration and returns a MigrationFailure identifying the version.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, kaslerr.New("db.Open", kaslerr.StorageError, err)
	}
	sqlDB.SetMaxOpenConns(1) // single writer keeps SQLite lock contention out of the picture

	s := &Store{db: sqlDB}
	if err := s.migrate(context.Background()); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the single connection this Store holds.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return kaslerr.New("db.migrate", kaslerr.MigrationFailure, err)
	}

	var current int
	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM migrations`)
	if err := row.Scan(&current); err != nil {
		return kaslerr.New("db.migrate", kaslerr.MigrationFailure, err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := s.applyMigration(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyMigration(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return kaslerr.New(fmt.Sprintf("db.migrate(v%d)", m.Version), kaslerr.MigrationFailure, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return kaslerr.New(fmt.Sprintf("db.migrate(v%d:%s)", m.Version, m.Name), kaslerr.MigrationFailure, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO migrations(version, name, applied_at) VALUES (?, ?, ?)`,
		m.Version, m.Name, nowString()); err != nil {
		return kaslerr.New(fmt.Sprintf("db.migrate(v%d:%s)", m.Version, m.Name), kaslerr.MigrationFailure, err)
	}
	if err := tx.Commit(); err != nil {
		return kaslerr.New(fmt.Sprintf("db.migrate(v%d:%s)", m.Version, m.Name), kaslerr.MigrationFailure, err)
	}
	return nil
}

// WithTx runs fn inside a single transaction, committing on success and
// rolling back (discarding all state changes) on any returned error —
// every state-machine write and every adjustment is one of these.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return kaslerr.New("db.withTx", kaslerr.StorageError, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return kaslerr.New("db.withTx", kaslerr.StorageError, err)
	}
	return nil
}

// --- time helpers shared by every repository ---
//
// Timestamps are stored as RFC 3339 text (SQLite has no native timestamp
// type); date keys use strftime's %Y-%m-%d so in-process formatting always
// agrees with the equivalent `strftime('%Y-%m-%d', ...)` SQL expression.

func formatTime(t time.Time) string { return t.Format(time.RFC3339) }

func parseTime(s string) (time.Time, error) { return time.Parse(time.RFC3339, s) }

func dateKey(t time.Time) string { return strftime.Format("%Y-%m-%d", t) }

func nowString() string { return formatTime(time.Now()) }
