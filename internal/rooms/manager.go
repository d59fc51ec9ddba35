// Package rooms hosts live sessions. Every session runs as a single
// goroutine consuming commands and clock ticks from one serialized stream,
// so the engine underneath never needs locks. Rooms are fully independent of
// each other and run in parallel.
package rooms

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/spingames/partyround/internal/engine/events"
	"github.com/spingames/partyround/internal/engine/rules"
	"github.com/spingames/partyround/internal/engine/score"
	"github.com/spingames/partyround/internal/engine/session"
	"github.com/spingames/partyround/internal/models"
)

var ErrSessionNotFound = errors.New("rooms: session not found")

// Sink receives the durable domain events a room produces.
type Sink interface {
	Append(ctx context.Context, evt events.Event) error
}

// Broadcaster receives ephemeral events (timer ticks) that skip the outbox.
type Broadcaster interface {
	Broadcast(sessionID uuid.UUID, evt events.Event)
}

// Store persists session snapshots for resumability. May be nil when the
// service runs without a database.
type Store interface {
	CreateSession(ctx context.Context, sess models.GameSession) error
	ArchiveRound(ctx context.Context, r models.Round) error
	SaveScores(ctx context.Context, sessionID uuid.UUID, totals map[string]int) error
	UpdateSessionStatus(ctx context.Context, sessionID uuid.UUID, status models.SessionStatus, completedAt *time.Time) error
}

// Config holds room runtime settings.
type Config struct {
	TickInterval   time.Duration
	PersistTimeout time.Duration

	// IdleTimeout closes rooms with no round on the clock and no commands
	// for this long. Zero disables the reaper.
	IdleTimeout time.Duration
}

// DefaultConfig returns the default room settings.
func DefaultConfig() Config {
	return Config{
		TickInterval:   time.Second,
		PersistTimeout: 5 * time.Second,
		IdleTimeout:    30 * time.Minute,
	}
}

// Manager owns the map of live rooms.
type Manager struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]*room

	clock       clockwork.Clock
	registry    *rules.Registry
	sink        Sink
	broadcaster Broadcaster
	store       Store
	cfg         Config

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewManager wires a manager. broadcaster and store may be nil.
func NewManager(clk clockwork.Clock, registry *rules.Registry, sink Sink, broadcaster Broadcaster, store Store, cfg Config) *Manager {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 5 * time.Second
	}
	return &Manager{
		rooms:       make(map[uuid.UUID]*room),
		clock:       clk,
		registry:    registry,
		sink:        sink,
		broadcaster: broadcaster,
		store:       store,
		cfg:         cfg,
		stopped:     make(chan struct{}),
	}
}

// CreateSession validates the configuration, persists the initial snapshot
// and starts the room goroutine.
func (m *Manager) CreateSession(ctx context.Context, cfg models.SessionConfig) (session.State, error) {
	ruleSet, err := m.registry.Lookup(cfg.RuleSet)
	if err != nil {
		return session.State{}, err
	}

	now := m.clock.Now()
	sess, err := session.New(uuid.New(), cfg, ruleSet, now)
	if err != nil {
		return session.State{}, err
	}

	if m.store != nil {
		if err := m.store.CreateSession(ctx, sess.Snapshot()); err != nil {
			return session.State{}, err
		}
	}

	rm := &room{
		id:         sess.ID(),
		sess:       sess,
		cmds:       make(chan func(), 64),
		closed:     make(chan struct{}),
		manager:    m,
		lastTick:   now,
		lastActive: now,
	}
	m.mu.Lock()
	m.rooms[rm.id] = rm
	m.mu.Unlock()
	go rm.run()

	if evt, err := sess.Started(now); err == nil {
		rm.emit(evt)
	} else {
		log.Error().Err(err).Str("session_id", rm.id.String()).Msg("failed to build SessionStarted event")
	}

	log.Info().
		Str("session_id", rm.id.String()).
		Str("rule_set", cfg.RuleSet).
		Int("rounds", cfg.Rounds).
		Bool("team_mode", cfg.TeamMode()).
		Msg("session created")

	return sess.CurrentState(), nil
}

// StartRound begins the next round with the given prompt.
func (m *Manager) StartRound(ctx context.Context, id uuid.UUID, prompt models.RoundPrompt) (session.State, error) {
	var st session.State
	err := m.do(ctx, id, func(rm *room) error {
		now := m.clock.Now()
		_, evts, err := rm.sess.StartNextRound(prompt, now)
		if err != nil {
			return err
		}
		// Elapsed time starts now; the next tick must not charge the
		// round for the wall time spent waiting between rounds.
		rm.lastTick = now
		rm.dispatch(evts)
		st = rm.sess.CurrentState()
		return nil
	})
	return st, err
}

// Submit routes a guess into the session's serialized stream.
func (m *Manager) Submit(ctx context.Context, id uuid.UUID, playerID, payload string) (models.GuessEvent, session.State, error) {
	var (
		guess models.GuessEvent
		st    session.State
	)
	err := m.do(ctx, id, func(rm *room) error {
		now := m.clock.Now()
		g, evts, err := rm.sess.Submit(playerID, payload, now)
		if err != nil {
			return err
		}
		guess = g
		rm.dispatch(evts)
		st = rm.sess.CurrentState()
		return nil
	})
	return guess, st, err
}

// Abort cancels the current round.
func (m *Manager) Abort(ctx context.Context, id uuid.UUID, reason string) (session.State, error) {
	var st session.State
	err := m.do(ctx, id, func(rm *room) error {
		evts, err := rm.sess.Abort(reason, m.clock.Now())
		if err != nil {
			return err
		}
		rm.dispatch(evts)
		st = rm.sess.CurrentState()
		return nil
	})
	return st, err
}

// Finalize computes final standings once all rounds are terminal. On success
// the room is closed; the archived snapshot is the only view afterwards.
func (m *Manager) Finalize(ctx context.Context, id uuid.UUID) ([]score.Standing, session.State, error) {
	var (
		standings []score.Standing
		st        session.State
	)
	err := m.do(ctx, id, func(rm *room) error {
		s, evts, err := rm.sess.Finalize(m.clock.Now())
		if err != nil {
			return err
		}
		standings = s
		rm.dispatch(evts)
		st = rm.sess.CurrentState()
		return nil
	})
	if err == nil {
		m.remove(id)
	}
	return standings, st, err
}

// CancelSession aborts the whole session and closes its room. The persisted
// snapshot stays readable through the archive.
func (m *Manager) CancelSession(ctx context.Context, id uuid.UUID, reason string) (session.State, error) {
	var st session.State
	err := m.do(ctx, id, func(rm *room) error {
		evts, err := rm.sess.Cancel(reason, m.clock.Now())
		if err != nil {
			return err
		}
		rm.dispatch(evts)
		st = rm.sess.CurrentState()
		return nil
	})
	if err == nil {
		m.remove(id)
	}
	return st, err
}

// State returns the read-only projection for a session.
func (m *Manager) State(ctx context.Context, id uuid.UUID) (session.State, error) {
	var st session.State
	err := m.do(ctx, id, func(rm *room) error {
		st = rm.sess.CurrentState()
		return nil
	})
	return st, err
}

// Close stops every room. Safe to call more than once.
func (m *Manager) Close() {
	m.stopOnce.Do(func() {
		close(m.stopped)
	})
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rm := range m.rooms {
		rm.close()
		delete(m.rooms, id)
	}
}

// remove closes a room and forgets it.
func (m *Manager) remove(id uuid.UUID) {
	m.mu.Lock()
	rm, ok := m.rooms[id]
	if ok {
		delete(m.rooms, id)
	}
	m.mu.Unlock()
	if ok {
		rm.close()
		log.Info().Str("session_id", id.String()).Msg("room closed")
	}
}

// do executes fn on the room's goroutine and waits for the result.
func (m *Manager) do(ctx context.Context, id uuid.UUID, fn func(rm *room) error) error {
	m.mu.RLock()
	rm, ok := m.rooms[id]
	m.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	done := make(chan error, 1)
	cmd := func() { done <- fn(rm) }
	select {
	case rm.cmds <- cmd:
	case <-rm.closed:
		return ErrSessionNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-rm.closed:
		// The room exited with the command still queued. A result may
		// have landed just before the close; prefer it.
		select {
		case err := <-done:
			return err
		default:
			return ErrSessionNotFound
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
