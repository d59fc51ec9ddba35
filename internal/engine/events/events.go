// Package events defines the domain events a session emits and the envelope
// they travel in, from the round engine through the outbox to the gateway.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type represents the type of session event.
type Type string

const (
	TypeSessionStarted   Type = "SessionStarted"
	TypeRoundStarted     Type = "RoundStarted"
	TypeGuessMade        Type = "GuessMade"
	TypeRoundScored      Type = "RoundScored"
	TypeRoundExpired     Type = "RoundExpired"
	TypeRoundAborted     Type = "RoundAborted"
	TypeSessionCompleted Type = "SessionCompleted"
	TypeSessionAborted   Type = "SessionAborted"
	TypeTimerTick        Type = "TimerTick"
	TypeStateSnapshot    Type = "StateSnapshot"
)

// Event is the wire envelope for all session events.
type Event struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New wraps a payload in an envelope with a fresh event id.
func New(sessionID uuid.UUID, t Type, at time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Event{
		ID:        uuid.New().String(),
		SessionID: sessionID.String(),
		Type:      t,
		Timestamp: at,
		Data:      data,
	}, nil
}
