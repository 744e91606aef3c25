// Package store provides the per-room embedded SQL persistence layer: one
// SQLite database per room, idempotent schema creation, and upsert-always
// reads/writes for presence, movement, input, structures, projectiles,
// room metadata, and gameplay state.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Store wraps a single room's SQLite database handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and runs
// schema migration idempotently.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS room_meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS presence_players (
			player_id TEXT PRIMARY KEY,
			connected INTEGER NOT NULL DEFAULT 0,
			last_seen INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS movement_state (
			player_id TEXT PRIMARY KEY,
			x REAL NOT NULL DEFAULT 0,
			y REAL NOT NULL DEFAULT 0,
			vx REAL NOT NULL DEFAULT 0,
			vy REAL NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS movement_input_state (
			player_id TEXT PRIMARY KEY,
			up INTEGER NOT NULL DEFAULT 0,
			down INTEGER NOT NULL DEFAULT 0,
			left INTEGER NOT NULL DEFAULT 0,
			right INTEGER NOT NULL DEFAULT 0,
			last_input_seq INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS build_structures (
			structure_id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS projectile_state (
			projectile_id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			vx REAL NOT NULL,
			vy REAL NOT NULL,
			expires_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		// Persists the gameplay subsystem as a single JSON blob keyed by
		// a constant row id.
		`CREATE TABLE IF NOT EXISTS gameplay_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}

	// Additive column, applied tolerantly: ignore "duplicate column" errors
	// from a database that already has it.
	if _, err := s.db.ExecContext(ctx, `ALTER TABLE projectile_state ADD COLUMN client_projectile_id TEXT`); err != nil {
		if !isDuplicateColumnError(err) {
			return fmt.Errorf("store: migrate: add client_projectile_id: %w", err)
		}
	}

	return nil
}

func isDuplicateColumnError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column")
}
