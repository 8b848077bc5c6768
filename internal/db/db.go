// Package db provides PostgreSQL-backed durable storage for client state.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/job-board-client/internal/storage"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS client_storage (
	profile_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (profile_id, key)
)`

// EnsureSchema creates the storage table when missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create client_storage: %w", err)
	}
	return nil
}

// ProfileStore is the storage.Store of one browser profile.
type ProfileStore struct {
	db      *DB
	profile string
}

// Store returns the store for profile.
func (db *DB) Store(profile string) *ProfileStore {
	return &ProfileStore{db: db, profile: profile}
}

// Factory returns a storage.Factory backed by this database.
func (db *DB) Factory() storage.Factory {
	return func(profile string) storage.Store {
		return db.Store(profile)
	}
}

// Get implements storage.Store.
func (s *ProfileStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.pool.QueryRow(ctx,
		`SELECT value FROM client_storage WHERE profile_id = $1 AND key = $2`,
		s.profile, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set implements storage.Store.
func (s *ProfileStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.pool.Exec(ctx,
		`INSERT INTO client_storage (profile_id, key, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (profile_id, key) DO UPDATE SET value = $3, updated_at = NOW()`,
		s.profile, key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Remove implements storage.Store.
func (s *ProfileStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.db.pool.Exec(ctx,
		`DELETE FROM client_storage WHERE profile_id = $1 AND key = ANY($2)`,
		s.profile, keys,
	)
	if err != nil {
		return fmt.Errorf("failed to remove keys: %w", err)
	}
	return nil
}

// ListProfiles returns every profile holding a persisted token.
func (db *DB) ListProfiles(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT profile_id FROM client_storage WHERE key = $1 ORDER BY updated_at DESC`,
		storage.KeyToken,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
