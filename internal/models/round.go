package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RoundStatus defines the status of a round.
type RoundStatus string

const (
	RoundStatusPending RoundStatus = "PENDING"
	RoundStatusActive  RoundStatus = "ACTIVE"
	RoundStatusScored  RoundStatus = "SCORED"
	RoundStatusExpired RoundStatus = "EXPIRED"
	RoundStatusAborted RoundStatus = "ABORTED"
)

// Terminal reports whether no further transitions are possible.
func (s RoundStatus) Terminal() bool {
	return s == RoundStatusScored || s == RoundStatusExpired || s == RoundStatusAborted
}

// GuessOutcome classifies a single submission against the round target.
type GuessOutcome string

const (
	GuessOutcomeCorrect   GuessOutcome = "CORRECT"
	GuessOutcomeIncorrect GuessOutcome = "INCORRECT"
	GuessOutcomePartial   GuessOutcome = "PARTIAL"
)

// GuessEvent records one submission. Events are appended to the owning
// round's log and never mutated afterwards.
type GuessEvent struct {
	PlayerID string       `json:"player_id"`
	Payload  string       `json:"payload"`
	Outcome  GuessOutcome `json:"outcome"`
	Elapsed  time.Duration `json:"elapsed_ns"` // relative to round start
}

// Round represents one timed unit of play with a single actor, prompt and
// outcome.
type Round struct {
	ID          uuid.UUID       `json:"id"`
	SessionID   uuid.UUID       `json:"session_id"`
	Seq         int             `json:"seq"` // 1-based, strictly increasing
	ActorID     string          `json:"actor_id"`
	Prompt      json.RawMessage `json:"prompt,omitempty"`
	Target      string          `json:"target"`
	DurationSec int             `json:"duration_sec"`
	Status      RoundStatus     `json:"status"`
	WinnerID    string          `json:"winner_id,omitempty"` // submitter of the correct guess
	Events      []GuessEvent    `json:"events,omitempty"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	ClosedAt    *time.Time      `json:"closed_at,omitempty"`
}
