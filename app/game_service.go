package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mezzanine/domain/core"
	"mezzanine/internal/metrics"
	"mezzanine/models"
	"mezzanine/ports"

	"golang.org/x/sync/singleflight"
)

// RNG stream purposes. The prior and the question search draw from separate
// streams so that rebuilding a session reproduces its prior exactly.
const (
	streamPrior  = "prior"
	streamSearch = "search"
)

// GameService runs guessing sessions and keeps them in sync with storage
type GameService struct {
	repo     ports.SessionRepository
	rngPort  ports.RNGPort
	settings Settings
	logger   *slog.Logger
	events   ports.SessionEventBroadcaster

	mu    sync.Mutex
	live  map[core.SessionID]*liveGame
	loads singleflight.Group
}

type liveGame struct {
	mu     sync.Mutex
	header models.GameSession
	game   Game
	// stale is set once storage fell behind game; the session is then
	// rebuilt from storage on next use.
	stale bool
}

// StartRequest defines a new session. Zero fields take the service
// defaults; a zero Seed picks one from the clock and the chosen seed is
// stored with the session.
type StartRequest struct {
	Game  string `json:"game"`
	Bound int    `json:"bound"`
	Seed  int64  `json:"seed"`
}

// Oracle answers prompts on the player's behalf. Returning false for ok
// stops the autoplay.
type Oracle func(prompt Prompt) (verdict bool, ok bool)

// NewGameService creates a game service
func NewGameService(repo ports.SessionRepository, rngPort ports.RNGPort, settings Settings, logger *slog.Logger) *GameService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GameService{
		repo:     repo,
		rngPort:  rngPort,
		settings: settings,
		logger:   logger,
		live:     make(map[core.SessionID]*liveGame),
	}
}

// SetBroadcaster publishes session changes to b
func (s *GameService) SetBroadcaster(b ports.SessionEventBroadcaster) {
	s.events = b
}

// Start creates a session, stores its header and returns the first step
func (s *GameService) Start(ctx context.Context, req StartRequest) (*models.GameSession, Step, error) {
	if req.Game == "" {
		req.Game = s.settings.DefaultGame
	}
	if req.Bound == 0 {
		req.Bound = s.settings.DefaultBound
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}
	id := core.NewSessionID()
	header := models.NewGameSession(id.String(), req.Game, req.Bound, req.Seed)
	if req.Game == GameTriangle {
		header.Bound = 0
	}

	game, err := s.buildGame(ctx, header)
	if err != nil {
		return nil, Step{}, err
	}
	header.PriorHash = game.Fingerprint().String()
	if err := s.repo.CreateSession(ctx, header); err != nil {
		return nil, Step{}, fmt.Errorf("storing session: %w", err)
	}

	lg := &liveGame{header: *header, game: game}
	s.mu.Lock()
	s.live[id] = lg
	s.mu.Unlock()

	s.logger.Info("session started",
		"session_id", id,
		"game", header.Game,
		"seed", header.Seed,
		"hypotheses", game.Remaining(),
		"entropy_bits", game.Entropy())
	metrics.RecordSessionStarted(header.Game)

	lg.mu.Lock()
	defer lg.mu.Unlock()
	s.publish(lg, models.SessionEvent{EventType: models.EventSessionStarted})
	step, err := s.advance(ctx, lg)
	if err != nil {
		return nil, Step{}, err
	}
	return lg.snapshot(), step, nil
}

// Import starts a new session with the game, bound and seed of header and
// answers its questions with records, as when restoring an exported
// transcript. The records are stored under the new session.
func (s *GameService) Import(ctx context.Context, header models.GameSession, records []models.ObservationRecord) (*models.GameSession, Step, error) {
	id := core.NewSessionID()
	imported := models.NewGameSession(id.String(), header.Game, header.Bound, header.Seed)

	game, err := s.buildGame(ctx, imported)
	if err != nil {
		return nil, Step{}, err
	}
	if err := checkPrior(header, game); err != nil {
		return nil, Step{}, err
	}
	imported.PriorHash = game.Fingerprint().String()
	if err := game.Replay(records); err != nil {
		return nil, Step{}, fmt.Errorf("replaying imported answers: %w", err)
	}
	if err := s.repo.CreateSession(ctx, imported); err != nil {
		return nil, Step{}, fmt.Errorf("storing session: %w", err)
	}
	for _, entry := range game.Transcript() {
		record := &models.ObservationRecord{
			SessionID: imported.ID,
			Seq:       entry.Seq,
			Subject:   entry.SubjectJSON,
			Verdict:   entry.Verdict,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.repo.AppendObservation(ctx, record); err != nil {
			return nil, Step{}, fmt.Errorf("storing observation: %w", err)
		}
	}

	lg := &liveGame{header: *imported, game: game}
	s.mu.Lock()
	s.live[id] = lg
	s.mu.Unlock()

	s.logger.Info("session imported",
		"session_id", id,
		"from", header.ID,
		"game", imported.Game,
		"observations", len(records))
	metrics.RecordSessionStarted(imported.Game)

	lg.mu.Lock()
	defer lg.mu.Unlock()
	step, err := s.advance(ctx, lg)
	if err != nil {
		return nil, Step{}, err
	}
	return lg.snapshot(), step, nil
}

// Current returns the pending prompt or the outcome of a session
func (s *GameService) Current(ctx context.Context, id core.SessionID) (*models.GameSession, Step, error) {
	lg, err := s.acquire(ctx, id)
	if err != nil {
		return nil, Step{}, err
	}
	defer lg.mu.Unlock()

	step, err := s.advance(ctx, lg)
	if err != nil {
		return nil, Step{}, err
	}
	return lg.snapshot(), step, nil
}

// Answer records the verdict for the pending prompt of a session. When the
// verdict collapses the beliefs the returned step carries the collapsed
// outcome and the error wraps core.ErrDistributionCollapse.
func (s *GameService) Answer(ctx context.Context, id core.SessionID, verdict bool) (*models.GameSession, Step, error) {
	lg, err := s.acquire(ctx, id)
	if err != nil {
		return nil, Step{}, err
	}
	defer lg.mu.Unlock()

	// A rebuilt session has no pending question until it is chosen again.
	if _, err := s.advance(ctx, lg); err != nil {
		return nil, Step{}, err
	}
	asked := len(lg.game.Transcript())
	step, answerErr := lg.game.Answer(ctx, verdict)
	if answerErr != nil && !core.IsCollapse(answerErr) {
		return nil, Step{}, answerErr
	}

	if transcript := lg.game.Transcript(); len(transcript) > asked {
		entry := transcript[len(transcript)-1]
		record := &models.ObservationRecord{
			SessionID: lg.header.ID,
			Seq:       entry.Seq,
			Subject:   entry.SubjectJSON,
			Verdict:   entry.Verdict,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.repo.AppendObservation(ctx, record); err != nil {
			s.evict(lg)
			return nil, Step{}, fmt.Errorf("storing observation: %w", err)
		}
		s.logger.Debug("answer recorded",
			"session_id", id,
			"seq", entry.Seq,
			"subject", entry.Subject,
			"verdict", entry.Verdict,
			"bits_gained", entry.BitsGained(),
			"remaining", entry.Remaining)
		metrics.RecordAnswer(lg.header.Game, entry.BitsGained())
		verdict := entry.Verdict
		s.publish(lg, models.SessionEvent{
			EventType: models.EventAnswerRecorded,
			Seq:       entry.Seq,
			Subject:   entry.Subject,
			Verdict:   &verdict,
		})
	}

	if err := s.syncState(ctx, lg, step); err != nil {
		s.evict(lg)
		return nil, Step{}, err
	}
	if answerErr != nil {
		s.logger.Warn("beliefs collapsed", "session_id", id, "error", answerErr)
		return lg.snapshot(), step, answerErr
	}
	return lg.snapshot(), step, nil
}

// Autoplay answers prompts with oracle until the session ends, the oracle
// declines, or maxQuestions answers were given (no limit when zero).
func (s *GameService) Autoplay(ctx context.Context, id core.SessionID, oracle Oracle, maxQuestions int) (*models.GameSession, Step, error) {
	header, step, err := s.Current(ctx, id)
	for answered := 0; err == nil && step.Prompt != nil; answered++ {
		if maxQuestions > 0 && answered >= maxQuestions {
			break
		}
		verdict, ok := oracle(*step.Prompt)
		if !ok {
			break
		}
		header, step, err = s.Answer(ctx, id, verdict)
	}
	return header, step, err
}

// Beliefs lists the hypotheses still standing in a session
func (s *GameService) Beliefs(ctx context.Context, id core.SessionID, limit int) ([]models.BeliefView, error) {
	lg, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer lg.mu.Unlock()
	return lg.game.Beliefs(limit), nil
}

// Transcript returns the answered questions of a session
func (s *GameService) Transcript(ctx context.Context, id core.SessionID) (*models.GameSession, []models.TranscriptEntry, error) {
	lg, err := s.acquire(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	defer lg.mu.Unlock()
	return lg.snapshot(), lg.game.Transcript(), nil
}

// List returns the most recently updated sessions
func (s *GameService) List(ctx context.Context, limit int) ([]*models.GameSession, error) {
	sessions, err := s.repo.ListSessions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}

// Forget drops a session from memory; it is rebuilt from storage on next use
func (s *GameService) Forget(id core.SessionID) {
	s.mu.Lock()
	delete(s.live, id)
	s.mu.Unlock()
}

func (lg *liveGame) snapshot() *models.GameSession {
	header := lg.header
	return &header
}

// advance moves the game to its next step and stores a state change
func (s *GameService) advance(ctx context.Context, lg *liveGame) (Step, error) {
	step, err := lg.game.Next(ctx)
	if err != nil {
		return Step{}, err
	}
	if err := s.syncState(ctx, lg, step); err != nil {
		s.evict(lg)
		return Step{}, err
	}
	return step, nil
}

// evict marks lg stale and drops it from memory. lg.mu must be held.
func (s *GameService) evict(lg *liveGame) {
	lg.stale = true
	id := core.SessionID(lg.header.ID)
	s.mu.Lock()
	if s.live[id] == lg {
		delete(s.live, id)
	}
	s.mu.Unlock()
	s.logger.Warn("session evicted after a storage failure", "session_id", id)
}

func (s *GameService) syncState(ctx context.Context, lg *liveGame, step Step) error {
	if step.Outcome == nil || lg.header.State == step.Outcome.State {
		return nil
	}
	if err := s.repo.UpdateSessionState(ctx, lg.header.ID, step.Outcome.State, step.Outcome.Conclusion); err != nil {
		return fmt.Errorf("storing session state: %w", err)
	}
	lg.header.State = step.Outcome.State
	lg.header.Conclusion = step.Outcome.Conclusion
	lg.header.UpdatedAt = time.Now().UTC()

	s.logger.Info("session finished",
		"session_id", lg.header.ID,
		"state", step.Outcome.State,
		"conclusion", step.Outcome.Conclusion,
		"questions", len(lg.game.Transcript()))
	metrics.RecordSessionFinished(lg.header.Game, string(step.Outcome.State))
	s.publish(lg, models.SessionEvent{EventType: models.EventSessionFinished, Message: step.Outcome.Conclusion})
	return nil
}

func (s *GameService) publish(lg *liveGame, event models.SessionEvent) {
	if s.events == nil {
		return
	}
	event.SessionID = lg.header.ID
	event.State = lg.header.State
	event.Entropy = lg.game.Entropy()
	event.Remaining = lg.game.Remaining()
	event.Timestamp = time.Now().UTC()
	s.events.Broadcast(event)
}

// load returns the live game for id, rebuilding it from storage when needed.
// Concurrent loads of one session share a single rebuild.
func (s *GameService) load(ctx context.Context, id core.SessionID) (*liveGame, error) {
	if lg, ok := s.cached(id); ok {
		return lg, nil
	}
	v, err, _ := s.loads.Do(id.String(), func() (interface{}, error) {
		if lg, ok := s.cached(id); ok {
			return lg, nil
		}
		lg, err := s.rebuild(ctx, id)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.live[id] = lg
		s.mu.Unlock()
		return lg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*liveGame), nil
}

// acquire returns the live game for id with its lock held, skipping games
// evicted while the caller waited for the lock.
func (s *GameService) acquire(ctx context.Context, id core.SessionID) (*liveGame, error) {
	for {
		lg, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		lg.mu.Lock()
		if !lg.stale {
			return lg, nil
		}
		lg.mu.Unlock()
	}
}

func (s *GameService) cached(id core.SessionID) (*liveGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lg, ok := s.live[id]
	return lg, ok
}

// rebuild recreates a session from its stored header and observations
func (s *GameService) rebuild(ctx context.Context, id core.SessionID) (*liveGame, error) {
	header, err := s.repo.GetSession(ctx, id.String())
	if err != nil {
		if core.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	records, err := s.repo.ListObservations(ctx, id.String())
	if err != nil {
		return nil, fmt.Errorf("loading observations: %w", err)
	}

	game, err := s.buildGame(ctx, header)
	if err != nil {
		return nil, err
	}
	if err := checkPrior(*header, game); err != nil {
		return nil, err
	}
	if err := game.Replay(records); err != nil {
		return nil, fmt.Errorf("replaying session %s: %w", id, err)
	}

	s.logger.Info("session resumed",
		"session_id", id,
		"observations", len(records),
		"state", game.State())
	metrics.RecordSessionResumed(header.Game)
	return &liveGame{header: *header, game: game}, nil
}

// checkPrior fails when header names a prior other than the one game was
// rebuilt with. Headers without a fingerprint are accepted.
func checkPrior(header models.GameSession, game Game) error {
	if header.PriorHash == "" || header.PriorHash == game.Fingerprint().String() {
		return nil
	}
	return fmt.Errorf("%w: session %s was played against prior %.12s, rebuilt prior is %.12s",
		core.ErrPriorMismatch, header.ID, header.PriorHash, game.Fingerprint())
}

func (s *GameService) buildGame(ctx context.Context, header *models.GameSession) (Game, error) {
	switch header.Game {
	case GameNumber:
		game, err := NewNumberGame(header.Bound, s.settings)
		if err != nil {
			return nil, err
		}
		return game, nil
	case GameTriangle:
		priorRNG, err := s.rngPort.Stream(ctx, header.ID, streamPrior, header.Seed)
		if err != nil {
			return nil, err
		}
		searchRNG, err := s.rngPort.Stream(ctx, header.ID, streamSearch, header.Seed)
		if err != nil {
			return nil, err
		}
		game, err := NewTriangleGame(priorRNG, searchRNG, s.settings)
		if err != nil {
			return nil, err
		}
		return game, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownGame, header.Game)
	}
}
