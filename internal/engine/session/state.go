package session

import (
	"encoding/json"
	"time"

	"github.com/spingames/partyround/internal/engine/score"
	"github.com/spingames/partyround/internal/models"
)

// State is the read-only projection a presentation layer renders. It is a
// copy; holding one has no effect on the session.
type State struct {
	SessionID       string               `json:"session_id"`
	Status          models.SessionStatus `json:"status"`
	RuleSet         string               `json:"rule_set"`
	CurrentRound    *RoundState          `json:"current_round,omitempty"`
	Scores          map[string]int       `json:"scores"`
	Standings       []score.Standing     `json:"standings"`
	RoundsCompleted int                  `json:"rounds_completed"`
	RoundsRemaining int                  `json:"rounds_remaining"`
}

// RoundState describes the round currently on the clock.
type RoundState struct {
	RoundID      string             `json:"round_id"`
	Seq          int                `json:"seq"`
	ActorID      string             `json:"actor_id"`
	Status       models.RoundStatus `json:"status"`
	Prompt       json.RawMessage    `json:"prompt,omitempty"`
	DurationSec  int                `json:"duration_sec"`
	RemainingSec int                `json:"remaining_sec"`
	Guesses      int                `json:"guesses"`
}

// CurrentState builds the projection. Free of side effects; safe to call
// between any two commands.
func (s *Session) CurrentState() State {
	st := State{
		SessionID:       s.id.String(),
		Status:          s.status,
		RuleSet:         s.ruleSet.Name,
		Scores:          s.board.Snapshot(),
		Standings:       s.board.Ranking(),
		RoundsCompleted: len(s.history),
		RoundsRemaining: s.cfg.Rounds - len(s.history),
	}
	if s.current != nil {
		r := s.current.Round()
		st.CurrentRound = &RoundState{
			RoundID:      r.ID.String(),
			Seq:          r.Seq,
			ActorID:      r.ActorID,
			Status:       r.Status,
			Prompt:       r.Prompt,
			DurationSec:  r.DurationSec,
			RemainingSec: int(s.current.Remaining() / time.Second),
			Guesses:      len(r.Events),
		}
	}
	return st
}
