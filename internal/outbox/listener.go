package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// ListenerConfig holds settings for the LISTEN/NOTIFY relay.
type ListenerConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // Channel name to LISTEN on
	FallbackInterval time.Duration // How often to poll for missed events
	PingInterval     time.Duration
	BatchSize        int32
}

// DefaultListenerConfig returns the default listener settings.
func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		NotifyChannel:    "partyround_outbox",
		FallbackInterval: 30 * time.Second,
		PingInterval:     90 * time.Second,
		BatchSize:        100,
	}
}

// Listener drains the outbox on NOTIFY instead of a short poll interval.
// A fallback timer still sweeps for anything a missed notification left
// behind, so the poll worker's guarantees hold here too.
type Listener struct {
	db        *sql.DB
	store     *Store
	listener  *pq.Listener
	publisher EventPublisher
	cfg       ListenerConfig
}

// NewListener opens a dedicated LISTEN connection.
func NewListener(db *sql.DB, store *Store, publisher EventPublisher, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("outbox listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.NotifyChannel, err)
	}
	return &Listener{
		db:        db,
		store:     store,
		listener:  l,
		publisher: publisher,
		cfg:       cfg,
	}, nil
}

// Run drains the outbox whenever a notification or the fallback timer fires.
// It blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	defer func() {
		if err := l.listener.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close outbox listener")
		}
	}()

	fallback := time.NewTicker(l.cfg.FallbackInterval)
	defer fallback.Stop()
	ping := time.NewTicker(l.cfg.PingInterval)
	defer ping.Stop()

	// Sweep once on start for events enqueued before we subscribed.
	l.drain(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.listener.Notify:
			l.drain(ctx)
		case <-fallback.C:
			l.drain(ctx)
		case <-ping.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("outbox listener ping failed")
			}
		}
	}
}

func (l *Listener) drain(ctx context.Context) {
	for {
		n, err := l.drainBatch(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to drain outbox batch")
			return
		}
		if n < int(l.cfg.BatchSize) {
			return
		}
	}
}

func (l *Listener) drainBatch(ctx context.Context) (int, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	batch, err := l.store.FetchUnsent(ctx, tx, l.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}

	var sent []uuid.UUID
	for _, event := range batch {
		if err := l.publisher.Publish(ctx, event); err != nil {
			log.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", event.EventType).
				Msg("failed to publish outbox event")
			continue
		}
		sent = append(sent, event.ID)
	}

	if err := l.store.MarkSent(ctx, tx, sent); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return len(batch), nil
}
