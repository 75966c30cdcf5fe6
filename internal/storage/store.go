// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed        = errors.New("store is closed")
	ErrEmptyReason   = errors.New("empty reason")
	ErrInvalidKind   = errors.New("invalid package kind")
	ErrDatabaseError = errors.New("database error")
)

// =============================================================================
// PACKAGE KIND
// =============================================================================

// PackageKind names an inventory list.
type PackageKind string

const (
	SourcePackages PackageKind = "source"
	BinaryPackages PackageKind = "binary"
)

// Valid reports whether k is a known inventory.
func (k PackageKind) Valid() bool {
	return k == SourcePackages || k == BinaryPackages
}

// =============================================================================
// STORE
// =============================================================================

// Store is the SQLite-backed triage store. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex

	// now is replaced in tests
	now func() time.Time
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path cannot be empty")
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps ":memory:"
	// pointing at one database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{
		db:   db,
		path: path,
		now:  time.Now,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(Schema)
	return err
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database. Further calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) handle() (*sql.DB, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

// =============================================================================
// IGNORE REASONS
// =============================================================================

// AppendReason records one ignore reason.
func (s *Store) AppendReason(reason string) error {
	return s.AppendReasonContext(context.Background(), reason)
}

// AppendReasonContext records one ignore reason.
func (s *Store) AppendReasonContext(ctx context.Context, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrEmptyReason
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	db, err := s.handle()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO ignore_reasons (reason, added_at) VALUES (?, ?)",
		reason, s.now().Unix())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// Reasons returns every stored reason, oldest first. Duplicates are kept;
// callers that seed a history get the same order they were entered in.
func (s *Store) Reasons(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT reason FROM ignore_reasons ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var reasons []string
	for rows.Next() {
		var reason string
		if err := rows.Scan(&reason); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		reasons = append(reasons, reason)
	}
	return reasons, rows.Err()
}

// =============================================================================
// PACKAGE CACHE
// =============================================================================

// SavePackages replaces the cached list for kind.
func (s *Store) SavePackages(ctx context.Context, kind PackageKind, names []string, fetchedAt time.Time) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.handle()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM package_cache WHERE kind = ?", string(kind)); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO package_cache (kind, name) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer stmt.Close()

	for _, name := range names {
		if _, err := stmt.ExecContext(ctx, string(kind), name); err != nil {
			return fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO package_fetch (kind, fetched_at) VALUES (?, ?) ON CONFLICT(kind) DO UPDATE SET fetched_at = excluded.fetched_at",
		string(kind), fetchedAt.Unix())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return tx.Commit()
}

// LoadPackages returns the cached list for kind, sorted by name. ok is false
// when nothing is cached or the snapshot is older than maxAge. A maxAge of
// zero or less accepts any age.
func (s *Store) LoadPackages(ctx context.Context, kind PackageKind, maxAge time.Duration) (names []string, fetchedAt time.Time, ok bool, err error) {
	if !kind.Valid() {
		return nil, time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	db, err := s.handle()
	if err != nil {
		return nil, time.Time{}, false, err
	}

	var unix int64
	row := db.QueryRowContext(ctx, "SELECT fetched_at FROM package_fetch WHERE kind = ?", string(kind))
	if err := row.Scan(&unix); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	fetchedAt = time.Unix(unix, 0)

	if maxAge > 0 && s.now().Sub(fetchedAt) > maxAge {
		return nil, fetchedAt, false, nil
	}

	rows, err := db.QueryContext(ctx, "SELECT name FROM package_cache WHERE kind = ? ORDER BY name ASC", string(kind))
	if err != nil {
		return nil, fetchedAt, false, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fetchedAt, false, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fetchedAt, false, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return names, fetchedAt, true, nil
}
