package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SessionStatus defines the status of a game session.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
	SessionStatusAborted    SessionStatus = "ABORTED"
)

// SessionConfig holds JSONB configuration for a game session. It is fixed at
// session creation; players, teams and turn order never change mid-session.
type SessionConfig struct {
	Rounds           int      `json:"rounds"`
	RoundDurationSec int      `json:"round_duration_sec"`
	RuleSet          string   `json:"rule_set"`
	MaxAttempts      int      `json:"max_attempts,omitempty"` // 0 = unlimited
	Players          []Player `json:"players"`
	Teams            []Team   `json:"teams,omitempty"` // non-empty enables team mode
	ShuffleSeed      *int64   `json:"shuffle_seed,omitempty"`
}

// TeamMode reports whether scoring and turn order run over teams rather than
// individual players.
func (c SessionConfig) TeamMode() bool {
	return len(c.Teams) > 0
}

// GameSession represents one game instance: its configuration, archived
// rounds and cumulative score totals.
type GameSession struct {
	ID          uuid.UUID      `json:"id"`
	Status      SessionStatus  `json:"status"`
	Config      SessionConfig  `json:"config"`
	Rounds      []Round        `json:"rounds,omitempty"` // terminal rounds, ordered by Seq
	Scores      map[string]int `json:"scores,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// RoundPrompt is the game-specific content for one round. The payload is
// opaque to the engine; only the target is inspected, by the configured
// comparator.
type RoundPrompt struct {
	Payload json.RawMessage `json:"payload,omitempty"`
	Target  string          `json:"target"`
}
