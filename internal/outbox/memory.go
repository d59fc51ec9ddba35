package outbox

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spingames/partyround/internal/engine/events"
	"github.com/spingames/partyround/internal/rooms"
)

// MemorySink keeps events in memory and forwards them straight to an
// optional broadcaster. It stands in for the outbox when the service runs
// without Postgres and NATS (local play, tests).
type MemorySink struct {
	mu          sync.Mutex
	eventLog    []events.Event
	broadcaster rooms.Broadcaster
}

// NewMemorySink builds a sink; broadcaster may be nil.
func NewMemorySink(broadcaster rooms.Broadcaster) *MemorySink {
	return &MemorySink{broadcaster: broadcaster}
}

// Append records the event and forwards it to the broadcaster.
func (m *MemorySink) Append(ctx context.Context, evt events.Event) error {
	m.mu.Lock()
	m.eventLog = append(m.eventLog, evt)
	m.mu.Unlock()

	log.Debug().
		Str("session_id", evt.SessionID).
		Str("event_type", string(evt.Type)).
		Msg("event recorded")

	if m.broadcaster != nil {
		if id, err := uuid.Parse(evt.SessionID); err == nil {
			m.broadcaster.Broadcast(id, evt)
		}
	}
	return nil
}

// Events returns a copy of everything appended so far.
func (m *MemorySink) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.Event(nil), m.eventLog...)
}

// Tee appends to the wrapped sink and mirrors the event to a broadcaster.
// Used when the outbox persists to Postgres but no message bus carries events
// back to the gateway.
type Tee struct {
	Sink        rooms.Sink
	Broadcaster rooms.Broadcaster
}

// Append writes to the durable sink first; the broadcast only happens once
// the event is safely recorded.
func (t Tee) Append(ctx context.Context, evt events.Event) error {
	if err := t.Sink.Append(ctx, evt); err != nil {
		return err
	}
	if t.Broadcaster != nil {
		if id, err := uuid.Parse(evt.SessionID); err == nil {
			t.Broadcaster.Broadcast(id, evt)
		}
	}
	return nil
}
