// Package sqlite implements the durable dedup store on SQLite.
//
// Both namespaces are append-only tables keyed by primary key; INSERT OR
// IGNORE is the idempotence mechanism, and the driver's busy_timeout bounds
// lock waits when the news and signal cycles write concurrently.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"finintelbot/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite-backed dedup store.
type Store struct {
	db *sql.DB
}

var _ store.Dedup = (*Store)(nil)

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// New opens (creating if needed) the dedup database at path with WAL mode
// and a bounded busy timeout, and ensures the schema exists.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer; both cycles funnel through this pool
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened dedup store at %s", path)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sent_news (
			url           TEXT PRIMARY KEY,
			first_sent_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);

		CREATE TABLE IF NOT EXISTS sent_signals (
			fingerprint   TEXT PRIMARY KEY,
			payload       TEXT NOT NULL,
			first_sent_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);
	`)
	return err
}

// Exists reports whether key was ever recorded in ns.
func (s *Store) Exists(ctx context.Context, ns store.Namespace, key string) (bool, error) {
	table, keyCol, err := resolve(ns)
	if err != nil {
		return false, err
	}
	var one int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM `+table+` WHERE `+keyCol+` = ?`, key,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite exists %s: %w", ns, err)
	}
	return true, nil
}

// RecordIfAbsent inserts the key unless already present. The primary key
// plus INSERT OR IGNORE makes overlapping writes for the same key safe.
func (s *Store) RecordIfAbsent(ctx context.Context, ns store.Namespace, key, payload string) (bool, error) {
	var res sql.Result
	var err error
	switch ns {
	case store.NamespaceNews:
		res, err = s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO sent_news (url) VALUES (?)`, key)
	case store.NamespaceSignals:
		res, err = s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO sent_signals (fingerprint, payload) VALUES (?, ?)`, key, payload)
	default:
		return false, fmt.Errorf("sqlite: unknown namespace %q", ns)
	}
	if err != nil {
		return false, fmt.Errorf("sqlite record %s: %w", ns, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite rows affected: %w", err)
	}
	return n > 0, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func resolve(ns store.Namespace) (table, keyCol string, err error) {
	switch ns {
	case store.NamespaceNews:
		return "sent_news", "url", nil
	case store.NamespaceSignals:
		return "sent_signals", "fingerprint", nil
	default:
		return "", "", fmt.Errorf("sqlite: unknown namespace %q", ns)
	}
}
