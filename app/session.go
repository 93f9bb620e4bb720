package app

import (
	"context"
	"fmt"
	"math"

	"mezzanine/domain/belief"
	"mezzanine/domain/core"
	"mezzanine/models"
)

// Prompt is a question awaiting the player's verdict
type Prompt struct {
	Subject     string          `json:"subject"`
	SubjectJSON models.JSONBRaw `json:"subject_json"`
	// Value is the expected entropy reduction, in bits, of answering.
	Value     float64 `json:"value_of_information"`
	Entropy   float64 `json:"entropy"`
	Remaining int     `json:"remaining"`
	Asked     int     `json:"asked"`
}

// Outcome is how a session ended
type Outcome struct {
	State      models.SessionState `json:"state"`
	Conclusion string              `json:"conclusion"`
	// Candidates lists the hypotheses still standing when no subject could
	// tell them apart.
	Candidates []models.BeliefView `json:"candidates,omitempty"`
}

// Step is either the next prompt or the outcome of the session
type Step struct {
	Prompt  *Prompt  `json:"prompt,omitempty"`
	Outcome *Outcome `json:"outcome,omitempty"`
}

// Game is a running session with its subject and hypothesis types erased
type Game interface {
	// Next returns the pending prompt, choosing a new question if none is
	// pending, or the outcome once the session is over.
	Next(ctx context.Context) (Step, error)
	// Answer conditions on the verdict for the pending prompt and moves on.
	// An answer that no hypothesis agrees with ends the session in the
	// collapsed state and returns core.ErrDistributionCollapse; the answer
	// still appears in the transcript.
	Answer(ctx context.Context, verdict bool) (Step, error)
	// Replay conditions a freshly built game on stored observations.
	Replay(records []models.ObservationRecord) error
	Beliefs(limit int) []models.BeliefView
	Transcript() []models.TranscriptEntry
	State() models.SessionState
	Entropy() float64
	Remaining() int
	// Fingerprint identifies the prior the game started from.
	Fingerprint() core.PriorHash
}

// QuestionChooser picks the next subject to ask about. asked is the number
// of questions already answered; a chooser must return the same question
// for the same beliefs and asked so a rebuilt session asks what it asked
// before.
type QuestionChooser[S any, H belief.Hypothesis[S]] func(ctx context.Context, beliefs *belief.Distribution[S, H], asked int) (belief.Question[S], error)

// SubjectCodec converts subjects to and from their stored JSON form
type SubjectCodec[S any] struct {
	Encode func(subject S) ([]byte, error)
	Decode func(data []byte) (S, error)
}

// Session drives one game over a belief distribution. It is not safe for
// concurrent use; GameService serializes access.
type Session[S any, H belief.Hypothesis[S]] struct {
	prior      *belief.Distribution[S, H]
	current    *belief.Distribution[S, H]
	choose     QuestionChooser[S, H]
	codec      SubjectCodec[S]
	pending    *belief.Question[S]
	transcript []models.TranscriptEntry
	state      models.SessionState
	conclusion string
}

// NewSession starts a session at prior
func NewSession[S any, H belief.Hypothesis[S]](prior *belief.Distribution[S, H], choose QuestionChooser[S, H], codec SubjectCodec[S]) (*Session[S, H], error) {
	if prior == nil || choose == nil || codec.Encode == nil || codec.Decode == nil {
		return nil, core.NewConfigurationError("session needs a prior, a question chooser and a subject codec")
	}
	if err := prior.Validate(); err != nil {
		return nil, err
	}
	return &Session[S, H]{
		prior:   prior,
		current: prior,
		choose:  choose,
		codec:   codec,
		state:   models.SessionStateActive,
	}, nil
}

func (s *Session[S, H]) State() models.SessionState { return s.state }

func (s *Session[S, H]) Entropy() float64 { return s.current.Entropy() }

func (s *Session[S, H]) Remaining() int { return len(s.current.Positive()) }

func (s *Session[S, H]) Fingerprint() core.PriorHash {
	beliefs := s.prior.Hypotheses()
	descriptions := make([]string, len(beliefs))
	probabilities := make([]float64, len(beliefs))
	for i, b := range beliefs {
		descriptions[i] = b.Description
		probabilities[i] = b.Probability
	}
	return core.ComputePriorHash(descriptions, probabilities)
}

// Current returns the belief state after the last consistent answer.
func (s *Session[S, H]) Current() *belief.Distribution[S, H] { return s.current }

func (s *Session[S, H]) Transcript() []models.TranscriptEntry {
	return append([]models.TranscriptEntry(nil), s.transcript...)
}

// Beliefs lists the hypotheses with positive probability, most probable
// first. A positive limit truncates the list.
func (s *Session[S, H]) Beliefs(limit int) []models.BeliefView {
	return beliefViews(s.current.Positive(), limit)
}

func beliefViews[H any](beliefs []belief.Belief[H], limit int) []models.BeliefView {
	if limit > 0 && len(beliefs) > limit {
		beliefs = beliefs[:limit]
	}
	views := make([]models.BeliefView, 0, len(beliefs))
	for _, b := range beliefs {
		views = append(views, models.BeliefView{Description: b.Description, Probability: b.Probability})
	}
	return views
}

func (s *Session[S, H]) outcome() Step {
	out := &Outcome{State: s.state, Conclusion: s.conclusion}
	if s.state == models.SessionStateIndifferent {
		out.Candidates = s.Beliefs(0)
	}
	return Step{Outcome: out}
}

func (s *Session[S, H]) Next(ctx context.Context) (Step, error) {
	if s.state.Terminal() {
		return s.outcome(), nil
	}
	if s.pending != nil {
		return s.prompt(*s.pending)
	}
	if sole, ok := s.current.CompletelyCertain(); ok {
		s.finish(models.SessionStateCertain, sole.Description())
		return s.outcome(), nil
	}

	question, err := s.choose(ctx, s.current, len(s.transcript))
	if err != nil {
		return Step{}, fmt.Errorf("choosing a question: %w", err)
	}
	if math.IsNaN(question.Value) || math.IsInf(question.Value, 0) {
		return Step{}, core.NewDegeneracyError("value of information", question.Value)
	}
	if !question.Informative() {
		s.finish(models.SessionStateIndifferent, "no question can tell the remaining hypotheses apart")
		return s.outcome(), nil
	}
	s.pending = &question
	return s.prompt(question)
}

func (s *Session[S, H]) prompt(question belief.Question[S]) (Step, error) {
	entropy := s.current.Entropy()
	if math.IsNaN(entropy) || math.IsInf(entropy, 0) {
		return Step{}, core.NewDegeneracyError("entropy", entropy)
	}
	encoded, err := s.codec.Encode(question.Subject)
	if err != nil {
		return Step{}, fmt.Errorf("encoding subject: %w", err)
	}
	return Step{Prompt: &Prompt{
		Subject:     fmt.Sprint(question.Subject),
		SubjectJSON: encoded,
		Value:       question.Value,
		Entropy:     entropy,
		Remaining:   s.Remaining(),
		Asked:       len(s.transcript),
	}}, nil
}

func (s *Session[S, H]) finish(state models.SessionState, conclusion string) {
	s.state = state
	s.conclusion = conclusion
	s.pending = nil
}

func (s *Session[S, H]) Answer(ctx context.Context, verdict bool) (Step, error) {
	if s.state.Terminal() {
		return s.outcome(), core.ErrSessionFinished
	}
	if s.pending == nil {
		return Step{}, core.ErrNoPendingQuestion
	}
	question := *s.pending

	if err := s.observe(question.Subject, verdict, question.Value); err != nil {
		if core.IsCollapse(err) {
			return s.outcome(), err
		}
		return Step{}, err
	}
	return s.Next(ctx)
}

// observe records the answer and conditions on it. On collapse the belief
// state is left at the last consistent snapshot.
func (s *Session[S, H]) observe(subject S, verdict bool, value float64) error {
	next, err := s.current.Updated(subject, verdict)
	if err != nil && !core.IsCollapse(err) {
		return err
	}
	if err := s.record(subject, verdict, value, s.current, next); err != nil {
		return err
	}
	if err != nil {
		s.finish(models.SessionStateCollapsed, core.CollapseMessage)
		return err
	}
	s.current = next
	s.pending = nil
	return nil
}

// record appends a transcript entry for an answer that moved the beliefs
// from before to after. A nil after means the answer collapsed them.
func (s *Session[S, H]) record(subject S, verdict bool, value float64, before, after *belief.Distribution[S, H]) error {
	encoded, err := s.codec.Encode(subject)
	if err != nil {
		return fmt.Errorf("encoding subject: %w", err)
	}
	if after == nil {
		after = before
	}
	s.transcript = append(s.transcript, models.TranscriptEntry{
		Seq:           len(s.transcript) + 1,
		Subject:       fmt.Sprint(subject),
		SubjectJSON:   encoded,
		Verdict:       verdict,
		Value:         value,
		EntropyBefore: before.Entropy(),
		EntropyAfter:  after.Entropy(),
		Remaining:     len(after.Positive()),
	})
	return nil
}

// Replay rebuilds the session from stored observations by folding them
// over the prior in sequence order. A collapse among them leaves the session
// collapsed at the last consistent snapshot, exactly as the original answers
// did; observations after the collapse are ignored.
func (s *Session[S, H]) Replay(records []models.ObservationRecord) error {
	if len(s.transcript) > 0 || s.state.Terminal() {
		return core.NewConfigurationError("replay needs a fresh session")
	}
	observations := make([]belief.Observation[S], 0, len(records))
	for _, record := range records {
		subject, err := s.codec.Decode(record.Subject)
		if err != nil {
			return fmt.Errorf("decoding observation %d: %w", record.Seq, err)
		}
		observations = append(observations, belief.Observation[S]{Subject: subject, Verdict: record.Verdict})
	}

	snapshots, foldErr := belief.Fold(s.prior, observations)
	if foldErr != nil && !core.IsCollapse(foldErr) {
		return foldErr
	}
	for i := 1; i < len(snapshots); i++ {
		obs := observations[i-1]
		value := snapshots[i-1].ValueOfInformation(obs.Subject)
		if err := s.record(obs.Subject, obs.Verdict, value, snapshots[i-1], snapshots[i]); err != nil {
			return err
		}
	}
	s.current = snapshots[len(snapshots)-1]
	if foldErr != nil {
		obs := observations[len(snapshots)-1]
		if err := s.record(obs.Subject, obs.Verdict, s.current.ValueOfInformation(obs.Subject), s.current, nil); err != nil {
			return err
		}
		s.finish(models.SessionStateCollapsed, core.CollapseMessage)
	}
	return nil
}
