package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONBRaw is a raw JSON document stored in a PostgreSQL JSONB column
type JSONBRaw []byte

// Value implements driver.Valuer interface
func (j JSONBRaw) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	if !json.Valid(j) {
		return nil, fmt.Errorf("invalid JSON document")
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface
func (j *JSONBRaw) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = JSONBRaw(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONBRaw", value)
	}
	return nil
}

// MarshalJSON embeds the document as-is
func (j JSONBRaw) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON keeps a copy of the raw document
func (j *JSONBRaw) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}

// SessionState is the lifecycle state of a guessing session
type SessionState string

const (
	SessionStateActive      SessionState = "active"
	SessionStateCertain     SessionState = "certain"
	SessionStateIndifferent SessionState = "indifferent"
	SessionStateCollapsed   SessionState = "collapsed"
)

// Terminal reports whether no further questions will be asked.
func (s SessionState) Terminal() bool {
	return s != SessionStateActive
}

// GameSession is the persisted header of a guessing session. The belief state
// itself is never stored: it is rebuilt from Game, Bound and Seed, checked
// against PriorHash and then conditioned on the recorded observations.
type GameSession struct {
	ID         string       `json:"id" db:"id"`
	Game       string       `json:"game" db:"game"`
	Bound      int          `json:"bound" db:"bound"`
	Seed       int64        `json:"seed" db:"seed"`
	State      SessionState `json:"state" db:"state"`
	Conclusion string       `json:"conclusion,omitempty" db:"conclusion"`
	// PriorHash fingerprints the prior the session was started with.
	PriorHash  string       `json:"prior_hash" db:"prior_hash"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
}

// NewGameSession creates a session header in the active state
func NewGameSession(id, game string, bound int, seed int64) *GameSession {
	now := time.Now().UTC()
	return &GameSession{
		ID:        id,
		Game:      game,
		Bound:     bound,
		Seed:      seed,
		State:     SessionStateActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ObservationRecord is one answered question of a session
type ObservationRecord struct {
	SessionID string    `json:"session_id" db:"session_id"`
	Seq       int       `json:"seq" db:"seq"`
	Subject   JSONBRaw  `json:"subject" db:"subject"`
	Verdict   bool      `json:"verdict" db:"verdict"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BeliefView is a hypothesis with its current probability, for display
type BeliefView struct {
	Description string  `json:"description"`
	Probability float64 `json:"probability"`
}

// TranscriptEntry records one question, the answer given and what it did to
// the uncertainty of the session.
type TranscriptEntry struct {
	Seq           int      `json:"seq"`
	Subject       string   `json:"subject"`
	SubjectJSON   JSONBRaw `json:"subject_json"`
	Verdict       bool     `json:"verdict"`
	Value         float64  `json:"value_of_information"`
	EntropyBefore float64  `json:"entropy_before"`
	EntropyAfter  float64  `json:"entropy_after"`
	Remaining     int      `json:"remaining"`
}

// BitsGained is the entropy reduction this answer achieved
func (t TranscriptEntry) BitsGained() float64 {
	return t.EntropyBefore - t.EntropyAfter
}

// Session event types
const (
	EventSessionStarted  = "session_started"
	EventAnswerRecorded  = "answer_recorded"
	EventSessionFinished = "session_finished"
)

// SessionEvent is a change to a session pushed to live subscribers
type SessionEvent struct {
	SessionID string       `json:"session_id"`
	EventType string       `json:"event_type"`
	State     SessionState `json:"state"`
	Seq       int          `json:"seq,omitempty"`
	Subject   string       `json:"subject,omitempty"`
	Verdict   *bool        `json:"verdict,omitempty"`
	Entropy   float64      `json:"entropy"`
	Remaining int          `json:"remaining"`
	Message   string       `json:"message,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}
