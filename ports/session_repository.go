package ports

import (
	"context"

	"mezzanine/models"
)

// SessionRepository defines the interface for guessing session storage
type SessionRepository interface {
	// CreateSession stores a new session header
	CreateSession(ctx context.Context, session *models.GameSession) error

	// GetSession retrieves a session header by ID
	GetSession(ctx context.Context, sessionID string) (*models.GameSession, error)

	// UpdateSessionState records a state change and its conclusion text
	UpdateSessionState(ctx context.Context, sessionID string, state models.SessionState, conclusion string) error

	// ListSessions returns the most recently updated sessions, optionally limited
	ListSessions(ctx context.Context, limit int) ([]*models.GameSession, error)

	// AppendObservation stores one answered question
	AppendObservation(ctx context.Context, record *models.ObservationRecord) error

	// ListObservations returns the answered questions of a session in order
	ListObservations(ctx context.Context, sessionID string) ([]models.ObservationRecord, error)
}
