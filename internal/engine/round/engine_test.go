package round

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spingames/partyround/internal/engine/rules"
	"github.com/spingames/partyround/internal/engine/score"
	"github.com/spingames/partyround/internal/models"
)

func identity(playerID string) (string, bool) {
	switch playerID {
	case "alice", "bob", "carol":
		return playerID, true
	}
	return "", false
}

func newTestEngine(rs rules.RuleSet) (*Engine, *models.Round, *score.Board) {
	r := &models.Round{
		ID:          uuid.New(),
		SessionID:   uuid.New(),
		Seq:         1,
		ActorID:     "alice",
		Target:      "APPLE",
		DurationSec: 30,
		Status:      models.RoundStatusPending,
	}
	board := score.NewBoard([]string{"alice", "bob", "carol"})
	return New(r, board, rs, identity), r, board
}

func fixedRules() rules.RuleSet {
	return rules.RuleSet{
		Name:       "test",
		Comparator: rules.FoldComparator{},
		Policy:     rules.FixedPolicy{Correct: 3, ActorBonus: 1},
	}
}

func TestSubmitBeforeBegin(t *testing.T) {
	eng, _, _ := newTestEngine(fixedRules())

	_, _, err := eng.Submit("bob", "apple", time.Now())
	assert.ErrorIs(t, err, ErrRoundNotStarted)
}

func TestBeginTwice(t *testing.T) {
	eng, _, _ := newTestEngine(fixedRules())
	now := time.Now()

	require.NoError(t, eng.Begin(now))
	assert.ErrorIs(t, eng.Begin(now), ErrAlreadyStarted)
}

func TestIncorrectGuessKeepsRoundActive(t *testing.T) {
	eng, _, board := newTestEngine(fixedRules())
	require.NoError(t, eng.Begin(time.Now()))

	guess, awards, err := eng.Submit("bob", "pear", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.GuessOutcomeIncorrect, guess.Outcome)
	assert.Empty(t, awards)

	r := eng.Round()
	assert.Equal(t, models.RoundStatusActive, r.Status)
	assert.Len(t, r.Events, 1)
	assert.Equal(t, 0, board.Total("bob"))
}

func TestCorrectGuessScoresRound(t *testing.T) {
	eng, _, board := newTestEngine(fixedRules())
	start := time.Now()
	require.NoError(t, eng.Begin(start))

	_, _, err := eng.Tick(4*time.Second, start.Add(4*time.Second))
	require.NoError(t, err)

	closed := start.Add(5 * time.Second)
	guess, awards, err := eng.Submit("bob", "  apple ", closed)
	require.NoError(t, err)
	assert.Equal(t, models.GuessOutcomeCorrect, guess.Outcome)
	assert.Equal(t, 4*time.Second, guess.Elapsed)
	assert.Equal(t, []rules.Award{
		{EntityID: "bob", Points: 3},
		{EntityID: "alice", Points: 1},
	}, awards)

	r := eng.Round()
	assert.Equal(t, models.RoundStatusScored, r.Status)
	assert.Equal(t, "bob", r.WinnerID)
	require.NotNil(t, r.ClosedAt)
	assert.Equal(t, closed, *r.ClosedAt)
	assert.Equal(t, 3, board.Total("bob"))
	assert.Equal(t, 1, board.Total("alice"))
}

func TestSubmitAfterScored(t *testing.T) {
	eng, _, _ := newTestEngine(fixedRules())
	require.NoError(t, eng.Begin(time.Now()))

	_, _, err := eng.Submit("bob", "apple", time.Now())
	require.NoError(t, err)

	_, _, err = eng.Submit("carol", "apple", time.Now())
	assert.ErrorIs(t, err, ErrRoundAlreadyClosed)
}

func TestExpiry(t *testing.T) {
	rs := fixedRules()
	rs.Policy = rules.FixedPolicy{Correct: 3, Consolation: 1}
	eng, _, board := newTestEngine(rs)
	start := time.Now()
	require.NoError(t, eng.Begin(start))

	expired, awards, err := eng.Tick(29*time.Second, start.Add(29*time.Second))
	require.NoError(t, err)
	assert.False(t, expired)

	deadline := start.Add(30 * time.Second)
	expired, awards, err = eng.Tick(time.Second, deadline)
	require.NoError(t, err)
	assert.True(t, expired)
	assert.Equal(t, []rules.Award{{EntityID: "alice", Points: 1}}, awards)

	r := eng.Round()
	assert.Equal(t, models.RoundStatusExpired, r.Status)
	require.NotNil(t, r.ClosedAt)
	assert.Equal(t, deadline, *r.ClosedAt)
	assert.Equal(t, 1, board.Total("alice"))

	// Ticks after expiry are no-ops.
	expired, awards, err = eng.Tick(time.Second, deadline.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Empty(t, awards)
}

// A guess that loses the race against the deadline must not score.
func TestSubmitAfterExpiryLosesRace(t *testing.T) {
	eng, _, board := newTestEngine(fixedRules())
	start := time.Now()
	require.NoError(t, eng.Begin(start))

	expired, _, err := eng.Tick(30*time.Second, start.Add(30*time.Second))
	require.NoError(t, err)
	require.True(t, expired)

	_, _, err = eng.Submit("bob", "apple", start.Add(30*time.Second))
	assert.ErrorIs(t, err, ErrRoundAlreadyClosed)
	assert.Equal(t, 0, board.Total("bob"))
	assert.Equal(t, models.RoundStatusExpired, eng.Round().Status)
}

func TestAttemptCapIsPerPlayer(t *testing.T) {
	rs := fixedRules()
	rs.MaxAttempts = 1
	eng, _, _ := newTestEngine(rs)
	require.NoError(t, eng.Begin(time.Now()))

	_, _, err := eng.Submit("bob", "pear", time.Now())
	require.NoError(t, err)

	_, _, err = eng.Submit("bob", "apple", time.Now())
	assert.ErrorIs(t, err, ErrAttemptsExhausted)

	// Another player still has their attempt.
	guess, _, err := eng.Submit("carol", "apple", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.GuessOutcomeCorrect, guess.Outcome)
}

func TestSubmitUnknownPlayer(t *testing.T) {
	eng, _, _ := newTestEngine(fixedRules())
	require.NoError(t, eng.Begin(time.Now()))

	_, _, err := eng.Submit("mallory", "apple", time.Now())
	assert.ErrorIs(t, err, score.ErrUnknownEntity)
	assert.Empty(t, eng.Round().Events)
}

func TestAbort(t *testing.T) {
	eng, _, _ := newTestEngine(fixedRules())
	require.NoError(t, eng.Begin(time.Now()))

	now := time.Now()
	assert.True(t, eng.Abort(now))
	r := eng.Round()
	assert.Equal(t, models.RoundStatusAborted, r.Status)
	require.NotNil(t, r.ClosedAt)

	// Aborting a terminal round is a no-op.
	assert.False(t, eng.Abort(now.Add(time.Second)))
	assert.Equal(t, models.RoundStatusAborted, eng.Round().Status)

	_, _, err := eng.Submit("bob", "apple", now)
	assert.ErrorIs(t, err, ErrRoundAlreadyClosed)
}

func TestAbortPendingRound(t *testing.T) {
	eng, _, _ := newTestEngine(fixedRules())
	assert.True(t, eng.Abort(time.Now()))
	assert.Equal(t, models.RoundStatusAborted, eng.Round().Status)
}
