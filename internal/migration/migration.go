package migration

import (
	"context"

	"mezzanine/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.1.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Statements returns the DDL Run executes, in order
func (r *MigrationRunner) Statements() []string {
	return []string{createGameSessionsTable, addPriorHashColumn, createSessionObservationsTable, createIndexes}
}

// Run executes all database migrations in the correct order. Every
// statement is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, err)
	}
	defer tx.Rollback()

	steps := []string{"create game_sessions table", "add prior_hash column", "create session_observations table", "create indexes"}
	for i, statement := range r.Statements() {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), "failed to "+steps[i])
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, err)
	}
	return nil
}

const createGameSessionsTable = `
	CREATE TABLE IF NOT EXISTS game_sessions (
		id UUID PRIMARY KEY,
		game VARCHAR(32) NOT NULL,
		bound INTEGER NOT NULL DEFAULT 0,
		seed BIGINT NOT NULL,
		state VARCHAR(32) NOT NULL DEFAULT 'active',
		conclusion TEXT NOT NULL DEFAULT '',
		prior_hash VARCHAR(64) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

const createSessionObservationsTable = `
	CREATE TABLE IF NOT EXISTS session_observations (
		session_id UUID NOT NULL REFERENCES game_sessions(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		subject JSONB NOT NULL,
		verdict BOOLEAN NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (session_id, seq)
	)`

const addPriorHashColumn = `
	ALTER TABLE game_sessions ADD COLUMN IF NOT EXISTS prior_hash VARCHAR(64) NOT NULL DEFAULT ''`

const createIndexes = `
	CREATE INDEX IF NOT EXISTS idx_game_sessions_updated_at ON game_sessions(updated_at DESC)`
