package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spingames/partyround/internal/engine/rules"
)

func TestLoadRulesEmptyPathYieldsBuiltins(t *testing.T) {
	reg, err := LoadRules("")
	require.NoError(t, err)

	for _, name := range []string{"card-clash", "charades", "party-poll", "spin-freeze"} {
		_, err := reg.Lookup(name)
		assert.NoError(t, err, name)
	}
}

func TestLoadRulesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
rule_sets:
  - name: trivia-blitz
    comparator: fold
    max_attempts: 2
    points:
      correct: 2
      actor_bonus: 1
  - name: price-is-close
    comparator: numeric
    tolerance: 25
    points:
      correct: 5
      partial: 2
  - name: lightning-round
    speed_bonus: true
    points:
      correct: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reg, err := LoadRules(path)
	require.NoError(t, err)

	rs, err := reg.Lookup("trivia-blitz")
	require.NoError(t, err)
	assert.Equal(t, 2, rs.MaxAttempts)
	assert.IsType(t, rules.FoldComparator{}, rs.Comparator)
	assert.Equal(t, rules.FixedPolicy{Correct: 2, ActorBonus: 1}, rs.Policy)

	rs, err = reg.Lookup("price-is-close")
	require.NoError(t, err)
	assert.Equal(t, rules.NumericComparator{Tolerance: 25}, rs.Comparator)

	rs, err = reg.Lookup("lightning-round")
	require.NoError(t, err)
	assert.Equal(t, rules.SpeedPolicy{MaxCorrect: 10}, rs.Policy)

	// Builtins survive alongside file entries.
	_, err = reg.Lookup("charades")
	assert.NoError(t, err)
}

func TestLoadRulesRejectsBadEntries(t *testing.T) {
	dir := t.TempDir()

	noName := filepath.Join(dir, "noname.yaml")
	require.NoError(t, os.WriteFile(noName, []byte("rule_sets:\n  - comparator: fold\n"), 0o644))
	_, err := LoadRules(noName)
	assert.ErrorContains(t, err, "without a name")

	badCmp := filepath.Join(dir, "badcmp.yaml")
	require.NoError(t, os.WriteFile(badCmp, []byte("rule_sets:\n  - name: x\n    comparator: psychic\n"), 0o644))
	_, err = LoadRules(badCmp)
	assert.ErrorContains(t, err, "unknown comparator")

	_, err = LoadRules(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
