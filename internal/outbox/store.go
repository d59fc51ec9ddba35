package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/spingames/partyround/internal/engine/events"
	"github.com/spingames/partyround/internal/sqlutil"
)

// Store reads and writes the outbox table. It implements rooms.Sink.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts a domain event into the outbox inside the request path.
func (s *Store) Append(ctx context.Context, evt events.Event) error {
	id, err := uuid.Parse(evt.ID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}
	sessionID, err := uuid.Parse(evt.SessionID)
	if err != nil {
		return fmt.Errorf("parse session id: %w", err)
	}

	payload := pqtype.NullRawMessage{}
	if len(evt.Data) > 0 {
		payload = pqtype.NullRawMessage{RawMessage: json.RawMessage(evt.Data), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outbox (id, session_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, sessionID, string(evt.Type), payload, evt.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// FetchUnsent claims up to limit unsent events inside tx, oldest first.
// SKIP LOCKED keeps concurrent workers from double-publishing.
func (s *Store) FetchUnsent(ctx context.Context, tx *sql.Tx, limit int32) ([]OutboxEvent, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, session_id, event_type, payload, created_at, sent_at
		FROM outbox
		WHERE sent_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var out []OutboxEvent
	for rows.Next() {
		var (
			evt     OutboxEvent
			payload pqtype.NullRawMessage
			sentAt  sql.NullTime
		)
		if err := rows.Scan(&evt.ID, &evt.SessionID, &evt.EventType, &payload, &evt.CreatedAt, &sentAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		if payload.Valid {
			evt.Payload = payload.RawMessage
		}
		evt.SentAt = sqlutil.FromSqlTime(sentAt)
		out = append(out, evt)
	}
	return out, rows.Err()
}

// MarkSent stamps the given events as published inside tx.
func (s *Store) MarkSent(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE outbox SET sent_at = now() WHERE id = ANY($1::uuid[])`,
		pq.Array(strs),
	); err != nil {
		return fmt.Errorf("mark outbox events sent: %w", err)
	}
	return nil
}
