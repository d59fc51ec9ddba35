package events

import (
	"encoding/json"
	"time"

	"github.com/spingames/partyround/internal/engine/rules"
	"github.com/spingames/partyround/internal/engine/score"
	"github.com/spingames/partyround/internal/models"
)

// SessionStartedPayload is the payload for a SessionStarted event.
type SessionStartedPayload struct {
	SessionID   string    `json:"session_id"`
	RuleSet     string    `json:"rule_set"`
	TotalRounds int       `json:"total_rounds"`
	DurationSec int       `json:"round_duration_sec"`
	RosterSize  int       `json:"roster_size"`
	TeamMode    bool      `json:"team_mode"`
	TurnOrder   []string  `json:"turn_order"`
	StartedAt   time.Time `json:"started_at"`
}

// RoundStartedPayload is the payload for a RoundStarted event.
type RoundStartedPayload struct {
	RoundID     string          `json:"round_id"`
	Seq         int             `json:"seq"`
	ActorID     string          `json:"actor_id"`
	Prompt      json.RawMessage `json:"prompt,omitempty"`
	DurationSec int             `json:"duration_sec"`
	StartedAt   time.Time       `json:"started_at"`
	DeadlineAt  time.Time       `json:"deadline_at"`
}

// GuessMadePayload is the payload for a GuessMade event. Emitted for every
// recorded submission, whatever its outcome.
type GuessMadePayload struct {
	RoundID   string              `json:"round_id"`
	Seq       int                 `json:"seq"`
	PlayerID  string              `json:"player_id"`
	Payload   string              `json:"payload"`
	Outcome   models.GuessOutcome `json:"outcome"`
	ElapsedMS int64               `json:"elapsed_ms"`
}

// RoundScoredPayload is the payload for a RoundScored event.
type RoundScoredPayload struct {
	RoundID  string        `json:"round_id"`
	Seq      int           `json:"seq"`
	WinnerID string        `json:"winner_id"`
	Awards   []rules.Award `json:"awards,omitempty"`
	ScoredAt time.Time     `json:"scored_at"`
}

// RoundExpiredPayload is the payload for a RoundExpired event.
type RoundExpiredPayload struct {
	RoundID   string        `json:"round_id"`
	Seq       int           `json:"seq"`
	Awards    []rules.Award `json:"awards,omitempty"` // consolation, if the rule set grants any
	ExpiredAt time.Time     `json:"expired_at"`
}

// RoundAbortedPayload is the payload for a RoundAborted event.
type RoundAbortedPayload struct {
	RoundID   string    `json:"round_id"`
	Seq       int       `json:"seq"`
	Reason    string    `json:"reason,omitempty"`
	AbortedAt time.Time `json:"aborted_at"`
}

// SessionCompletedPayload is the payload for a SessionCompleted event.
type SessionCompletedPayload struct {
	SessionID    string           `json:"session_id"`
	Standings    []score.Standing `json:"standings"`
	RoundsPlayed int              `json:"rounds_played"`
	CompletedAt  time.Time        `json:"completed_at"`
}

// SessionAbortedPayload is the payload for a SessionAborted event.
type SessionAbortedPayload struct {
	SessionID    string    `json:"session_id"`
	Reason       string    `json:"reason,omitempty"`
	RoundsPlayed int       `json:"rounds_played"`
	AbortedAt    time.Time `json:"aborted_at"`
}

// TimerTickPayload carries periodic countdown updates for rendering. Ticks
// are ephemeral; they bypass the outbox and are broadcast directly.
type TimerTickPayload struct {
	RoundID      string    `json:"round_id"`
	Seq          int       `json:"seq"`
	RemainingSec int       `json:"remaining_sec"`
	TickedAt     time.Time `json:"ticked_at"`
}

// ParsePayload parses an event's data into the matching payload struct.
func ParsePayload(evt Event) (any, error) {
	switch evt.Type {
	case TypeSessionStarted:
		return parseAs[SessionStartedPayload](evt)
	case TypeRoundStarted:
		return parseAs[RoundStartedPayload](evt)
	case TypeGuessMade:
		return parseAs[GuessMadePayload](evt)
	case TypeRoundScored:
		return parseAs[RoundScoredPayload](evt)
	case TypeRoundExpired:
		return parseAs[RoundExpiredPayload](evt)
	case TypeRoundAborted:
		return parseAs[RoundAbortedPayload](evt)
	case TypeSessionCompleted:
		return parseAs[SessionCompletedPayload](evt)
	case TypeSessionAborted:
		return parseAs[SessionAbortedPayload](evt)
	case TypeTimerTick:
		return parseAs[TimerTickPayload](evt)
	case TypeStateSnapshot:
		// Schema owned by the gateway; handed through opaque.
		return json.RawMessage(evt.Data), nil
	default:
		return nil, nil
	}
}

func parseAs[T any](evt Event) (T, error) {
	var payload T
	err := json.Unmarshal(evt.Data, &payload)
	return payload, err
}
