package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mezzanine/domain/core"
	"mezzanine/models"
	"mezzanine/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for a duplicate key
const uniqueViolation = "23505"

// SessionRepositoryImpl implements SessionRepository for PostgreSQL
type SessionRepositoryImpl struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) ports.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

// CreateSession stores a new session header
func (r *SessionRepositoryImpl) CreateSession(ctx context.Context, session *models.GameSession) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO game_sessions (id, game, bound, seed, state, conclusion, prior_hash, created_at, updated_at)
		VALUES (:id, :game, :bound, :seed, :state, :conclusion, :prior_hash, :created_at, :updated_at)
	`, session)
	if isUniqueViolation(err) {
		return core.NewConfigurationError("session " + session.ID + " already exists")
	}
	return err
}

// GetSession retrieves a session header by ID
func (r *SessionRepositoryImpl) GetSession(ctx context.Context, sessionID string) (*models.GameSession, error) {
	var session models.GameSession
	err := r.db.GetContext(ctx, &session, `
		SELECT id, game, bound, seed, state, conclusion, prior_hash, created_at, updated_at
		FROM game_sessions
		WHERE id = $1
	`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("session", sessionID)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateSessionState records a state change and its conclusion text
func (r *SessionRepositoryImpl) UpdateSessionState(ctx context.Context, sessionID string, state models.SessionState, conclusion string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE game_sessions
		SET state = $2, conclusion = $3, updated_at = NOW()
		WHERE id = $1
	`, sessionID, state, conclusion)
	if err != nil {
		return err
	}
	return requireRow(result, sessionID)
}

// ListSessions returns the most recently updated sessions, optionally limited
func (r *SessionRepositoryImpl) ListSessions(ctx context.Context, limit int) ([]*models.GameSession, error) {
	query := `
		SELECT id, game, bound, seed, state, conclusion, prior_hash, created_at, updated_at
		FROM game_sessions
		ORDER BY updated_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var sessions []*models.GameSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, err
	}
	return sessions, nil
}

// AppendObservation stores one answered question and touches the session
func (r *SessionRepositoryImpl) AppendObservation(ctx context.Context, record *models.ObservationRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE game_sessions SET updated_at = NOW() WHERE id = $1
	`, record.SessionID)
	if err != nil {
		return err
	}
	if err := requireRow(result, record.SessionID); err != nil {
		return err
	}

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO session_observations (session_id, seq, subject, verdict, created_at)
		VALUES (:session_id, :seq, :subject, :verdict, :created_at)
	`, record); err != nil {
		if isUniqueViolation(err) {
			return core.NewConfigurationError(fmt.Sprintf("observation %d of session %s already stored", record.Seq, record.SessionID))
		}
		return err
	}
	return tx.Commit()
}

// ListObservations returns the answered questions of a session in order
func (r *SessionRepositoryImpl) ListObservations(ctx context.Context, sessionID string) ([]models.ObservationRecord, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM game_sessions WHERE id = $1)`, sessionID); err != nil {
		return nil, err
	}
	if !exists {
		return nil, core.NewNotFoundError("session", sessionID)
	}

	records := []models.ObservationRecord{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT session_id, seq, subject, verdict, created_at
		FROM session_observations
		WHERE session_id = $1
		ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func requireRow(result sql.Result, sessionID string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.NewNotFoundError("session", sessionID)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
