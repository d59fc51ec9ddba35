package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spingames/partyround/internal/engine/rules"
)

// RulesFile is the on-disk shape of custom rule-set definitions.
type RulesFile struct {
	RuleSets []RuleSetConfig `yaml:"rule_sets"`
}

// RuleSetConfig describes one rule set.
type RuleSetConfig struct {
	Name        string  `yaml:"name"`
	Comparator  string  `yaml:"comparator"` // exact | fold | numeric
	Tolerance   float64 `yaml:"tolerance,omitempty"`
	MaxAttempts int     `yaml:"max_attempts,omitempty"`
	SpeedBonus  bool    `yaml:"speed_bonus,omitempty"`
	Points      struct {
		Correct      int `yaml:"correct"`
		Partial      int `yaml:"partial,omitempty"`
		ActorBonus   int `yaml:"actor_bonus,omitempty"`
		StealPenalty int `yaml:"steal_penalty,omitempty"`
		Consolation  int `yaml:"consolation,omitempty"`
	} `yaml:"points"`
}

// LoadRules builds a registry from the builtin rule sets plus any defined in
// the YAML file at path. File entries override builtins with the same name.
// An empty path yields the builtins alone.
func LoadRules(path string) (*rules.Registry, error) {
	sets := rules.Builtin()
	if path == "" {
		return rules.NewRegistry(sets...), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var file RulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	for _, rc := range file.RuleSets {
		rs, err := rc.build()
		if err != nil {
			return nil, err
		}
		sets = append(sets, rs)
	}
	return rules.NewRegistry(sets...), nil
}

func (rc RuleSetConfig) build() (rules.RuleSet, error) {
	if rc.Name == "" {
		return rules.RuleSet{}, fmt.Errorf("rule set without a name")
	}

	var cmp rules.Comparator
	switch rc.Comparator {
	case "", "fold":
		cmp = rules.FoldComparator{}
	case "exact":
		cmp = rules.ExactComparator{}
	case "numeric":
		cmp = rules.NumericComparator{Tolerance: rc.Tolerance}
	default:
		return rules.RuleSet{}, fmt.Errorf("rule set %q: unknown comparator %q", rc.Name, rc.Comparator)
	}

	var policy rules.AwardPolicy
	if rc.SpeedBonus {
		policy = rules.SpeedPolicy{
			MaxCorrect: rc.Points.Correct,
			ActorBonus: rc.Points.ActorBonus,
		}
	} else {
		policy = rules.FixedPolicy{
			Correct:      rc.Points.Correct,
			Partial:      rc.Points.Partial,
			ActorBonus:   rc.Points.ActorBonus,
			StealPenalty: rc.Points.StealPenalty,
			Consolation:  rc.Points.Consolation,
		}
	}

	return rules.RuleSet{
		Name:        rc.Name,
		Comparator:  cmp,
		Policy:      policy,
		MaxAttempts: rc.MaxAttempts,
	}, nil
}
