// Package session composes the round engine, scoreboard and turn sequencer
// across a configured number of rounds. All methods must be called from a
// single goroutine per session; the rooms manager enforces that discipline.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spingames/partyround/internal/engine/events"
	"github.com/spingames/partyround/internal/engine/round"
	"github.com/spingames/partyround/internal/engine/rules"
	"github.com/spingames/partyround/internal/engine/score"
	"github.com/spingames/partyround/internal/engine/sequence"
	"github.com/spingames/partyround/internal/models"
)

var (
	ErrInvalidDuration   = errors.New("session: round duration must be positive")
	ErrInvalidRoundCount = errors.New("session: round count must be positive")
	ErrEmptyRoster       = sequence.ErrEmptyRoster
	ErrSessionComplete   = errors.New("session: all configured rounds played")
	ErrRoundInProgress   = errors.New("session: a round is already in progress")
	ErrSessionNotReady   = errors.New("session: rounds still outstanding")
)

// Session is one game instance: configuration, the at-most-one current
// round, archived rounds and cumulative scores.
type Session struct {
	id        uuid.UUID
	cfg       models.SessionConfig
	status    models.SessionStatus
	ruleSet   rules.RuleSet
	seq       *sequence.Sequencer
	board     *score.Board
	current   *round.Engine
	history   []models.Round
	entityFor map[string]string // player id -> scored entity id
	createdAt time.Time
}

// New validates the configuration and builds a session. The turn order and
// roster are frozen here.
func New(id uuid.UUID, cfg models.SessionConfig, ruleSet rules.RuleSet, now time.Time) (*Session, error) {
	if cfg.RoundDurationSec <= 0 {
		return nil, ErrInvalidDuration
	}
	if cfg.Rounds <= 0 {
		return nil, ErrInvalidRoundCount
	}
	roster, entityFor, err := rosterEntities(cfg)
	if err != nil {
		return nil, err
	}

	var opts []sequence.Option
	if cfg.ShuffleSeed != nil {
		opts = append(opts, sequence.WithShuffleSeed(*cfg.ShuffleSeed))
	}
	seq, err := sequence.New(roster, opts...)
	if err != nil {
		return nil, err
	}

	if cfg.MaxAttempts > 0 {
		ruleSet.MaxAttempts = cfg.MaxAttempts
	}

	return &Session{
		id:        id,
		cfg:       cfg,
		status:    models.SessionStatusInProgress,
		ruleSet:   ruleSet,
		seq:       seq,
		board:     score.NewBoard(roster),
		entityFor: entityFor,
		createdAt: now,
	}, nil
}

// rosterEntities derives the scored/sequenced entities from the config:
// team ids in team mode, player ids otherwise.
func rosterEntities(cfg models.SessionConfig) ([]string, map[string]string, error) {
	if len(cfg.Players) == 0 {
		return nil, nil, ErrEmptyRoster
	}
	entityFor := make(map[string]string, len(cfg.Players))
	if !cfg.TeamMode() {
		roster := make([]string, 0, len(cfg.Players))
		for _, p := range cfg.Players {
			roster = append(roster, p.ID)
			entityFor[p.ID] = p.ID
		}
		return roster, entityFor, nil
	}

	roster := make([]string, 0, len(cfg.Teams))
	for _, t := range cfg.Teams {
		roster = append(roster, t.ID)
		for _, pid := range t.PlayerIDs {
			if existing, dup := entityFor[pid]; dup && existing != t.ID {
				return nil, nil, fmt.Errorf("session: player %s assigned to multiple teams", pid)
			}
			entityFor[pid] = t.ID
		}
	}
	for _, p := range cfg.Players {
		if _, ok := entityFor[p.ID]; !ok {
			return nil, nil, fmt.Errorf("session: player %s has no team", p.ID)
		}
	}
	return roster, entityFor, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Config returns the session configuration.
func (s *Session) Config() models.SessionConfig { return s.cfg }

// Started builds the SessionStarted event for a freshly created session.
func (s *Session) Started(now time.Time) (events.Event, error) {
	return events.New(s.id, events.TypeSessionStarted, now, events.SessionStartedPayload{
		SessionID:   s.id.String(),
		RuleSet:     s.ruleSet.Name,
		TotalRounds: s.cfg.Rounds,
		DurationSec: s.cfg.RoundDurationSec,
		RosterSize:  s.seq.Len(),
		TeamMode:    s.cfg.TeamMode(),
		TurnOrder:   s.seq.Order(),
		StartedAt:   now,
	})
}

// StartNextRound asks the sequencer for the next actor, creates a Pending
// round and begins it. At most one round may be active at any instant.
func (s *Session) StartNextRound(prompt models.RoundPrompt, now time.Time) (models.Round, []events.Event, error) {
	if s.status != models.SessionStatusInProgress || len(s.history) >= s.cfg.Rounds {
		return models.Round{}, nil, ErrSessionComplete
	}
	if s.current != nil {
		return models.Round{}, nil, ErrRoundInProgress
	}

	r := &models.Round{
		ID:          uuid.New(),
		SessionID:   s.id,
		Seq:         len(s.history) + 1,
		ActorID:     s.seq.Next(),
		Prompt:      prompt.Payload,
		Target:      prompt.Target,
		DurationSec: s.cfg.RoundDurationSec,
		Status:      models.RoundStatusPending,
	}
	eng := round.New(r, s.board, s.ruleSet, func(playerID string) (string, bool) {
		entity, ok := s.entityFor[playerID]
		return entity, ok
	})
	if err := eng.Begin(now); err != nil {
		return models.Round{}, nil, err
	}
	s.current = eng

	evt, err := events.New(s.id, events.TypeRoundStarted, now, events.RoundStartedPayload{
		RoundID:     r.ID.String(),
		Seq:         r.Seq,
		ActorID:     r.ActorID,
		Prompt:      prompt.Payload,
		DurationSec: r.DurationSec,
		StartedAt:   now,
		DeadlineAt:  now.Add(time.Duration(r.DurationSec) * time.Second),
	})
	if err != nil {
		return eng.Round(), nil, err
	}
	return eng.Round(), []events.Event{evt}, nil
}

// Submit routes a guess to the current round. Rejected calls do not change
// state; races lost against expiry surface as round.ErrRoundAlreadyClosed.
func (s *Session) Submit(playerID, payload string, now time.Time) (models.GuessEvent, []events.Event, error) {
	if s.current == nil {
		return models.GuessEvent{}, nil, round.ErrRoundAlreadyClosed
	}
	guess, awards, err := s.current.Submit(playerID, payload, now)
	if err != nil {
		return models.GuessEvent{}, nil, err
	}

	r := s.current.Round()
	evts := make([]events.Event, 0, 2)
	guessEvt, err := events.New(s.id, events.TypeGuessMade, now, events.GuessMadePayload{
		RoundID:   r.ID.String(),
		Seq:       r.Seq,
		PlayerID:  playerID,
		Payload:   payload,
		Outcome:   guess.Outcome,
		ElapsedMS: guess.Elapsed.Milliseconds(),
	})
	if err != nil {
		return guess, nil, err
	}
	evts = append(evts, guessEvt)

	if r.Status == models.RoundStatusScored {
		scoredEvt, err := events.New(s.id, events.TypeRoundScored, now, events.RoundScoredPayload{
			RoundID:  r.ID.String(),
			Seq:      r.Seq,
			WinnerID: playerID,
			Awards:   awards,
			ScoredAt: now,
		})
		if err != nil {
			return guess, evts, err
		}
		evts = append(evts, scoredEvt)
		s.archive()
	}
	return guess, evts, nil
}

// Tick advances the current round's clock. When the countdown crosses its
// deadline the round expires and is archived.
func (s *Session) Tick(delta time.Duration, now time.Time) ([]events.Event, error) {
	if s.current == nil {
		return nil, nil
	}
	expired, awards, err := s.current.Tick(delta, now)
	if err != nil || !expired {
		return nil, err
	}

	r := s.current.Round()
	evt, err := events.New(s.id, events.TypeRoundExpired, now, events.RoundExpiredPayload{
		RoundID:   r.ID.String(),
		Seq:       r.Seq,
		Awards:    awards,
		ExpiredAt: now,
	})
	if err != nil {
		return nil, err
	}
	s.archive()
	return []events.Event{evt}, nil
}

// Abort cancels the current round, if any. Safe to call from any state.
func (s *Session) Abort(reason string, now time.Time) ([]events.Event, error) {
	if s.current == nil {
		return nil, nil
	}
	if !s.current.Abort(now) {
		return nil, nil
	}
	r := s.current.Round()
	evt, err := events.New(s.id, events.TypeRoundAborted, now, events.RoundAbortedPayload{
		RoundID:   r.ID.String(),
		Seq:       r.Seq,
		Reason:    reason,
		AbortedAt: now,
	})
	if err != nil {
		return nil, err
	}
	s.archive()
	return []events.Event{evt}, nil
}

// Cancel aborts the whole session. The current round, if any, is aborted
// first, then the session transitions to Aborted; no further commands are
// accepted. Cancelling twice is a no-op.
func (s *Session) Cancel(reason string, now time.Time) ([]events.Event, error) {
	if s.status == models.SessionStatusCompleted {
		return nil, ErrSessionComplete
	}
	if s.status == models.SessionStatusAborted {
		return nil, nil
	}

	evts, err := s.Abort(reason, now)
	if err != nil {
		return nil, err
	}
	s.status = models.SessionStatusAborted

	evt, err := events.New(s.id, events.TypeSessionAborted, now, events.SessionAbortedPayload{
		SessionID:    s.id.String(),
		Reason:       reason,
		RoundsPlayed: len(s.history),
		AbortedAt:    now,
	})
	if err != nil {
		return evts, err
	}
	return append(evts, evt), nil
}

// Finalize computes final standings once every configured round is terminal
// and transitions the session to Completed.
func (s *Session) Finalize(now time.Time) ([]score.Standing, []events.Event, error) {
	if s.status == models.SessionStatusAborted {
		return nil, nil, ErrSessionComplete
	}
	if s.current != nil || len(s.history) < s.cfg.Rounds {
		return nil, nil, ErrSessionNotReady
	}
	if s.status == models.SessionStatusCompleted {
		return s.board.Ranking(), nil, nil
	}
	s.status = models.SessionStatusCompleted
	standings := s.board.Ranking()
	evt, err := events.New(s.id, events.TypeSessionCompleted, now, events.SessionCompletedPayload{
		SessionID:    s.id.String(),
		Standings:    standings,
		RoundsPlayed: len(s.history),
		CompletedAt:  now,
	})
	if err != nil {
		return standings, nil, err
	}
	return standings, []events.Event{evt}, nil
}

// Remaining returns the time left on the current round, 0 when idle.
func (s *Session) Remaining() time.Duration {
	if s.current == nil {
		return 0
	}
	return s.current.Remaining()
}

// CurrentRound returns a copy of the active round, if any.
func (s *Session) CurrentRound() (models.Round, bool) {
	if s.current == nil {
		return models.Round{}, false
	}
	return s.current.Round(), true
}

// archive folds the terminal current round into session history.
func (s *Session) archive() {
	s.history = append(s.history, s.current.Round())
	s.current = nil
}

// Snapshot serializes the session for persistence: config, archived rounds
// and score totals, keyed by session id and round sequence numbers.
func (s *Session) Snapshot() models.GameSession {
	return models.GameSession{
		ID:        s.id,
		Status:    s.status,
		Config:    s.cfg,
		Rounds:    append([]models.Round(nil), s.history...),
		Scores:    s.board.Snapshot(),
		CreatedAt: s.createdAt,
	}
}
