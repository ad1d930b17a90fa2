package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *DB) Close() {
	db.pool.Close()
}

// migrations run in order on every start; each statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS guess_sessions (
		id BIGSERIAL PRIMARY KEY,
		channel_id TEXT NOT NULL,
		guild_id BIGINT NOT NULL,
		organizer_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		location_id TEXT,
		answer_lat DOUBLE PRECISION,
		answer_lng DOUBLE PRECISION,
		answer_url TEXT,
		revealed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		closed_at TIMESTAMPTZ
	)`,
	// one active session per channel
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_guess_sessions_active_channel
		ON guess_sessions(channel_id) WHERE status = 'active'`,
	`CREATE TABLE IF NOT EXISTS guess_guesses (
		id BIGSERIAL PRIMARY KEY,
		session_id BIGINT NOT NULL REFERENCES guess_sessions(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		guess_lat DOUBLE PRECISION NOT NULL,
		guess_lng DOUBLE PRECISION NOT NULL,
		guess_url TEXT NOT NULL DEFAULT '',
		score INTEGER,
		distance_km DOUBLE PRECISION,
		approximate BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (session_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_guess_guesses_session_id ON guess_guesses(session_id)`,
}

// RunMigrations creates the guess tables.
func (db *DB) RunMigrations(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
