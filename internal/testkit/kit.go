package testkit

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"mezzanine/domain/core"
	"mezzanine/models"
	"mezzanine/ports"
)

// TestKit provides in-process adapters for tests and for running without a database
type TestKit struct {
	sessions *InMemorySessionRepository
	rng      *RNGAdapter
}

// NewTestKit creates a new test kit instance
func NewTestKit() *TestKit {
	return &TestKit{
		sessions: NewInMemorySessionRepository(),
		rng:      &RNGAdapter{},
	}
}

// SessionRepository returns the shared in-memory session store
func (t *TestKit) SessionRepository() ports.SessionRepository {
	return t.sessions
}

// RNGAdapter returns an RNG adapter
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return t.rng
}

// RNGAdapter implements the RNGPort interface with math/rand sources
type RNGAdapter struct{}

// SeededStream creates a deterministic random number generator for a named operation
func (r *RNGAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name != "" {
		seed = int64(hashString(name)) + seed
	}
	return rand.New(rand.NewSource(seed)), nil
}

// Stream creates a deterministic RNG stream for a session and purpose.
// Only the purpose and seed select the stream, so a session rebuilt from its
// stored seed draws exactly what the original drew.
func (r *RNGAdapter) Stream(ctx context.Context, sessionID, purpose string, baseSeed int64) (*rand.Rand, error) {
	return r.SeededStream(ctx, purpose, baseSeed)
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}

// InMemorySessionRepository implements ports.SessionRepository in memory
type InMemorySessionRepository struct {
	sessions     map[string]models.GameSession
	observations map[string][]models.ObservationRecord
	mu           sync.RWMutex
}

func NewInMemorySessionRepository() *InMemorySessionRepository {
	return &InMemorySessionRepository{
		sessions:     make(map[string]models.GameSession),
		observations: make(map[string][]models.ObservationRecord),
	}
}

func (s *InMemorySessionRepository) CreateSession(ctx context.Context, session *models.GameSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return core.NewConfigurationError("session " + session.ID + " already exists")
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *InMemorySessionRepository) GetSession(ctx context.Context, sessionID string) (*models.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, core.NewNotFoundError("session", sessionID)
	}
	return &session, nil
}

func (s *InMemorySessionRepository) UpdateSessionState(ctx context.Context, sessionID string, state models.SessionState, conclusion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return core.NewNotFoundError("session", sessionID)
	}
	session.State = state
	session.Conclusion = conclusion
	session.UpdatedAt = time.Now().UTC()
	s.sessions[sessionID] = session
	return nil
}

func (s *InMemorySessionRepository) ListSessions(ctx context.Context, limit int) ([]*models.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.GameSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		session := session
		result = append(result, &session)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID < result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *InMemorySessionRepository) AppendObservation(ctx context.Context, record *models.ObservationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[record.SessionID]; !ok {
		return core.NewNotFoundError("session", record.SessionID)
	}
	stored := *record
	stored.Subject = append(models.JSONBRaw(nil), record.Subject...)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.observations[record.SessionID] = append(s.observations[record.SessionID], stored)
	return nil
}

func (s *InMemorySessionRepository) ListObservations(ctx context.Context, sessionID string) ([]models.ObservationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, core.NewNotFoundError("session", sessionID)
	}
	records := append([]models.ObservationRecord(nil), s.observations[sessionID]...)
	sort.SliceStable(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	return records, nil
}
