package rules

import (
	"strconv"
	"strings"

	"github.com/spingames/partyround/internal/models"
)

// Comparator decides whether a submission counts as a match for the round
// target. Implementations must be pure: same inputs, same outcome.
type Comparator interface {
	Compare(target, guess string) models.GuessOutcome
}

// ExactComparator matches the target byte for byte.
type ExactComparator struct{}

func (ExactComparator) Compare(target, guess string) models.GuessOutcome {
	if guess == target {
		return models.GuessOutcomeCorrect
	}
	return models.GuessOutcomeIncorrect
}

// FoldComparator matches case-insensitively with surrounding and repeated
// whitespace collapsed, the usual rule for typed word games.
type FoldComparator struct{}

func (FoldComparator) Compare(target, guess string) models.GuessOutcome {
	if normalize(guess) == normalize(target) {
		return models.GuessOutcomeCorrect
	}
	return models.GuessOutcomeIncorrect
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NumericComparator compares numeric guesses against a numeric target.
// An exact value is Correct; a value within Tolerance is Partial.
type NumericComparator struct {
	Tolerance float64
}

func (c NumericComparator) Compare(target, guess string) models.GuessOutcome {
	want, err := strconv.ParseFloat(strings.TrimSpace(target), 64)
	if err != nil {
		return models.GuessOutcomeIncorrect
	}
	got, err := strconv.ParseFloat(strings.TrimSpace(guess), 64)
	if err != nil {
		return models.GuessOutcomeIncorrect
	}
	diff := want - got
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return models.GuessOutcomeCorrect
	case diff <= c.Tolerance:
		return models.GuessOutcomePartial
	default:
		return models.GuessOutcomeIncorrect
	}
}
