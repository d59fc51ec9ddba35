// Package round runs exactly one round from Pending to a terminal status,
// validating submissions and applying the configured scoring rule.
package round

import (
	"errors"
	"time"

	"github.com/spingames/partyround/internal/engine/clock"
	"github.com/spingames/partyround/internal/engine/rules"
	"github.com/spingames/partyround/internal/engine/score"
	"github.com/spingames/partyround/internal/models"
)

var (
	ErrAlreadyStarted     = errors.New("round: already started")
	ErrRoundNotStarted    = errors.New("round: not started")
	ErrRoundAlreadyClosed = errors.New("round: already closed")
	ErrAttemptsExhausted  = errors.New("round: attempts exhausted")
)

// Engine drives a single round. The round's status is the single source of
// truth for every transition: whichever event (qualifying submit or clock
// expiry) observes the round still Active wins; the loser is rejected with
// ErrRoundAlreadyClosed. Callers serialize all calls per session, so the
// check-then-transition here is atomic.
type Engine struct {
	round     *models.Round
	countdown *clock.Countdown
	ruleSet   rules.RuleSet
	board     *score.Board

	// entityFor maps a submitting player to the entity credited on the
	// scoreboard (the player's team in team mode, the player otherwise).
	entityFor func(playerID string) (string, bool)

	attempts map[string]int
}

// New wires an engine around a Pending round.
func New(r *models.Round, board *score.Board, rs rules.RuleSet, entityFor func(string) (string, bool)) *Engine {
	return &Engine{
		round:     r,
		countdown: clock.New(),
		ruleSet:   rs,
		board:     board,
		entityFor: entityFor,
		attempts:  make(map[string]int),
	}
}

// Begin starts the countdown and transitions Pending -> Active.
func (e *Engine) Begin(now time.Time) error {
	if e.round.Status != models.RoundStatusPending {
		return ErrAlreadyStarted
	}
	if err := e.countdown.Start(time.Duration(e.round.DurationSec) * time.Second); err != nil {
		return err
	}
	e.round.Status = models.RoundStatusActive
	started := now
	e.round.StartedAt = &started
	return nil
}

// Submit validates a guess against the round target. A qualifying guess
// transitions Active -> Scored and applies the award policy through the
// scoreboard; a non-qualifying guess is recorded and leaves the round Active.
func (e *Engine) Submit(playerID, payload string, now time.Time) (models.GuessEvent, []rules.Award, error) {
	switch e.round.Status {
	case models.RoundStatusActive:
	case models.RoundStatusPending:
		return models.GuessEvent{}, nil, ErrRoundNotStarted
	default:
		return models.GuessEvent{}, nil, ErrRoundAlreadyClosed
	}

	entity, ok := e.entityFor(playerID)
	if !ok {
		return models.GuessEvent{}, nil, score.ErrUnknownEntity
	}

	if max := e.maxAttempts(); max > 0 && e.attempts[playerID] >= max {
		return models.GuessEvent{}, nil, ErrAttemptsExhausted
	}
	e.attempts[playerID]++

	outcome := e.ruleSet.Comparator.Compare(e.round.Target, payload)
	evt := models.GuessEvent{
		PlayerID: playerID,
		Payload:  payload,
		Outcome:  outcome,
		Elapsed:  e.countdown.Elapsed(),
	}
	e.round.Events = append(e.round.Events, evt)

	ctx := rules.RoundContext{
		Submitter: entity,
		Actor:     e.round.ActorID,
		Remaining: e.countdown.Remaining(),
		Duration:  time.Duration(e.round.DurationSec) * time.Second,
	}

	var awards []rules.Award
	switch outcome {
	case models.GuessOutcomeCorrect:
		awards = e.apply(e.ruleSet.Policy.OnCorrect(ctx))
		e.round.Status = models.RoundStatusScored
		e.round.WinnerID = playerID
		closed := now
		e.round.ClosedAt = &closed
		e.countdown.Cancel()
	case models.GuessOutcomePartial:
		awards = e.apply(e.ruleSet.Policy.OnPartial(ctx))
	}
	return evt, awards, nil
}

// Tick advances the round clock. On the tick that crosses the deadline it
// transitions Active -> Expired and applies any consolation awards; ticks
// after a terminal status are no-ops.
func (e *Engine) Tick(delta time.Duration, now time.Time) (bool, []rules.Award, error) {
	if e.round.Status != models.RoundStatusActive {
		return false, nil, nil
	}
	expired, err := e.countdown.Tick(delta)
	if err != nil {
		return false, nil, err
	}
	if !expired {
		return false, nil, nil
	}
	e.round.Status = models.RoundStatusExpired
	closed := now
	e.round.ClosedAt = &closed
	awards := e.apply(e.ruleSet.Policy.OnExpiry(e.round.ActorID))
	return true, awards, nil
}

// Abort moves any non-terminal round to Aborted. Safe to call from any
// state; aborting a terminal round is a no-op.
func (e *Engine) Abort(now time.Time) bool {
	if e.round.Status.Terminal() {
		return false
	}
	e.round.Status = models.RoundStatusAborted
	closed := now
	e.round.ClosedAt = &closed
	e.countdown.Cancel()
	return true
}

// Remaining returns the time left on the round clock.
func (e *Engine) Remaining() time.Duration {
	return e.countdown.Remaining()
}

// Round returns a copy of the round's current state.
func (e *Engine) Round() models.Round {
	r := *e.round
	r.Events = append([]models.GuessEvent(nil), e.round.Events...)
	return r
}

func (e *Engine) maxAttempts() int {
	return e.ruleSet.MaxAttempts
}

// apply pushes awards through the scoreboard, dropping any for entities the
// board does not know. Policies only ever name roster entities, so a drop
// here indicates a misconfigured rule set, not a user error.
func (e *Engine) apply(awards []rules.Award) []rules.Award {
	applied := awards[:0]
	for _, a := range awards {
		if _, err := e.board.Award(a.EntityID, a.Points); err == nil {
			applied = append(applied, a)
		}
	}
	return applied
}
