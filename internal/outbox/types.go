// Package outbox stores session events durably and relays them to the
// message bus. Rooms append events in the request path; a background worker
// publishes them to NATS JetStream and marks them sent, so a bus outage
// never loses an event.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is one row of the outbox table.
type OutboxEvent struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	EventType string
	Payload   json.RawMessage
	CreatedAt time.Time
	SentAt    *time.Time
}

// EventPublisher pushes an event to the bus.
type EventPublisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
}
