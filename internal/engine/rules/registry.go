// Package rules defines the pluggable comparison and scoring strategies a
// round engine runs with. One engine serves every game variant; the variant
// is just a named rule set.
package rules

import (
	"errors"
	"fmt"
)

var ErrUnknownRuleSet = errors.New("rules: unknown rule set")

// RuleSet bundles the strategies selected by a session's scoring rule
// identifier.
type RuleSet struct {
	Name        string
	Comparator  Comparator
	Policy      AwardPolicy
	MaxAttempts int // per player per round; 0 = unlimited
}

// Registry resolves rule-set identifiers at session creation.
type Registry struct {
	sets map[string]RuleSet
}

// NewRegistry builds a registry from the given rule sets, keyed by name.
func NewRegistry(sets ...RuleSet) *Registry {
	r := &Registry{sets: make(map[string]RuleSet, len(sets))}
	for _, rs := range sets {
		r.sets[rs.Name] = rs
	}
	return r
}

// Lookup returns the rule set registered under name.
func (r *Registry) Lookup(name string) (RuleSet, error) {
	rs, ok := r.sets[name]
	if !ok {
		return RuleSet{}, fmt.Errorf("%w: %q", ErrUnknownRuleSet, name)
	}
	return rs, nil
}

// Names lists the registered rule-set identifiers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	return names
}

// Builtin returns the rule sets for the stock party games. Deployments can
// replace or extend these from configuration.
func Builtin() []RuleSet {
	return []RuleSet{
		{
			// One guess, winner takes all, actor loses points when beaten.
			Name:        "card-clash",
			Comparator:  FoldComparator{},
			Policy:      FixedPolicy{Correct: 3, StealPenalty: 1},
			MaxAttempts: 1,
		},
		{
			// Unlimited guessing, the performer scores with the guesser.
			Name:       "charades",
			Comparator: FoldComparator{},
			Policy:     FixedPolicy{Correct: 2, ActorBonus: 1},
		},
		{
			// Numeric estimates, near misses score a consolation point.
			Name:       "party-poll",
			Comparator: NumericComparator{Tolerance: 10},
			Policy:     FixedPolicy{Correct: 3, Partial: 1},
		},
		{
			// Faster answers score more.
			Name:       "spin-freeze",
			Comparator: FoldComparator{},
			Policy:     SpeedPolicy{MaxCorrect: 5},
		},
	}
}
