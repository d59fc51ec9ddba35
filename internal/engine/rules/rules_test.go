package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spingames/partyround/internal/models"
)

func TestExactComparator(t *testing.T) {
	c := ExactComparator{}
	assert.Equal(t, models.GuessOutcomeCorrect, c.Compare("Apple", "Apple"))
	assert.Equal(t, models.GuessOutcomeIncorrect, c.Compare("Apple", "apple"))
	assert.Equal(t, models.GuessOutcomeIncorrect, c.Compare("Apple", "Apple "))
}

func TestFoldComparator(t *testing.T) {
	c := FoldComparator{}

	tests := []struct {
		name   string
		target string
		guess  string
		want   models.GuessOutcome
	}{
		{"exact", "apple", "apple", models.GuessOutcomeCorrect},
		{"case folded", "Apple", "aPPLE", models.GuessOutcomeCorrect},
		{"surrounding whitespace", "apple", "  apple \t", models.GuessOutcomeCorrect},
		{"inner whitespace collapsed", "red panda", "red\npanda", models.GuessOutcomeCorrect},
		{"wrong word", "apple", "pear", models.GuessOutcomeIncorrect},
		{"prefix only", "apple", "app", models.GuessOutcomeIncorrect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Compare(tt.target, tt.guess))
		})
	}
}

func TestNumericComparator(t *testing.T) {
	c := NumericComparator{Tolerance: 10}

	tests := []struct {
		name   string
		target string
		guess  string
		want   models.GuessOutcome
	}{
		{"exact", "100", "100", models.GuessOutcomeCorrect},
		{"exact float", "99.5", " 99.5 ", models.GuessOutcomeCorrect},
		{"within tolerance below", "100", "92", models.GuessOutcomePartial},
		{"within tolerance above", "100", "110", models.GuessOutcomePartial},
		{"outside tolerance", "100", "111", models.GuessOutcomeIncorrect},
		{"not a number", "100", "lots", models.GuessOutcomeIncorrect},
		{"target not a number", "many", "100", models.GuessOutcomeIncorrect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Compare(tt.target, tt.guess))
		})
	}
}

func TestFixedPolicyOnCorrect(t *testing.T) {
	p := FixedPolicy{Correct: 3, ActorBonus: 1, StealPenalty: 2}

	// Actor solving their own prompt only gets the base award.
	awards := p.OnCorrect(RoundContext{Submitter: "alice", Actor: "alice"})
	assert.Equal(t, []Award{{EntityID: "alice", Points: 3}}, awards)

	// Someone else solving it triggers both the bonus and the penalty.
	awards = p.OnCorrect(RoundContext{Submitter: "bob", Actor: "alice"})
	assert.Equal(t, []Award{
		{EntityID: "bob", Points: 3},
		{EntityID: "alice", Points: 1},
		{EntityID: "alice", Points: -2},
	}, awards)
}

func TestFixedPolicyOnPartial(t *testing.T) {
	assert.Nil(t, FixedPolicy{Correct: 3}.OnPartial(RoundContext{Submitter: "bob"}))

	awards := FixedPolicy{Correct: 3, Partial: 1}.OnPartial(RoundContext{Submitter: "bob"})
	assert.Equal(t, []Award{{EntityID: "bob", Points: 1}}, awards)
}

func TestFixedPolicyOnExpiry(t *testing.T) {
	assert.Nil(t, FixedPolicy{Correct: 3}.OnExpiry("alice"))

	awards := FixedPolicy{Correct: 3, Consolation: 1}.OnExpiry("alice")
	assert.Equal(t, []Award{{EntityID: "alice", Points: 1}}, awards)
}

func TestSpeedPolicyScalesWithRemainingTime(t *testing.T) {
	p := SpeedPolicy{MaxCorrect: 10}
	ctx := RoundContext{Submitter: "bob", Actor: "alice", Duration: 30 * time.Second}

	ctx.Remaining = 30 * time.Second
	assert.Equal(t, []Award{{EntityID: "bob", Points: 10}}, p.OnCorrect(ctx))

	ctx.Remaining = 15 * time.Second
	assert.Equal(t, []Award{{EntityID: "bob", Points: 5}}, p.OnCorrect(ctx))

	// Even a buzzer beater scores at least one point.
	ctx.Remaining = 0
	assert.Equal(t, []Award{{EntityID: "bob", Points: 1}}, p.OnCorrect(ctx))
}

func TestSpeedPolicyActorBonus(t *testing.T) {
	p := SpeedPolicy{MaxCorrect: 4, ActorBonus: 2}
	ctx := RoundContext{
		Submitter: "bob",
		Actor:     "alice",
		Remaining: 10 * time.Second,
		Duration:  10 * time.Second,
	}

	awards := p.OnCorrect(ctx)
	assert.Equal(t, []Award{
		{EntityID: "bob", Points: 4},
		{EntityID: "alice", Points: 2},
	}, awards)

	// No bonus when the actor answers their own prompt.
	ctx.Submitter = "alice"
	assert.Equal(t, []Award{{EntityID: "alice", Points: 4}}, p.OnCorrect(ctx))
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(Builtin()...)

	rs, err := reg.Lookup("charades")
	require.NoError(t, err)
	assert.Equal(t, "charades", rs.Name)

	_, err = reg.Lookup("no-such-game")
	assert.ErrorIs(t, err, ErrUnknownRuleSet)
}

func TestBuiltinRuleSets(t *testing.T) {
	reg := NewRegistry(Builtin()...)
	for _, name := range []string{"card-clash", "charades", "party-poll", "spin-freeze"} {
		rs, err := reg.Lookup(name)
		require.NoError(t, err)
		assert.NotNil(t, rs.Comparator, name)
		assert.NotNil(t, rs.Policy, name)
	}

	// card-clash is the one-shot variant.
	rs, err := reg.Lookup("card-clash")
	require.NoError(t, err)
	assert.Equal(t, 1, rs.MaxAttempts)
}
