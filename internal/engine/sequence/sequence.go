// Package sequence produces the deterministic order in which roster entities
// act across rounds, independent of scoring.
package sequence

import (
	"errors"
	"math/rand"
)

var ErrEmptyRoster = errors.New("sequence: roster is empty")

// Sequencer walks a fixed roster in round-robin order, wrapping after the
// last entry. The order is frozen at construction time.
type Sequencer struct {
	order  []string
	cursor int
}

// Option configures a Sequencer at construction.
type Option func(*Sequencer)

// WithShuffleSeed shuffles the roster once with the given seed. The same seed
// and roster always yield the same sequence.
func WithShuffleSeed(seed int64) Option {
	return func(s *Sequencer) {
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(s.order), func(i, j int) {
			s.order[i], s.order[j] = s.order[j], s.order[i]
		})
	}
}

// New builds a sequencer over the given roster, in the order given.
func New(roster []string, opts ...Option) (*Sequencer, error) {
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}
	s := &Sequencer{order: append([]string(nil), roster...)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Next returns the next actor and advances the cursor, wrapping to the start
// after the last entry.
func (s *Sequencer) Next() string {
	id := s.order[s.cursor]
	s.cursor = (s.cursor + 1) % len(s.order)
	return id
}

// Reset returns the cursor to the first roster position without altering the
// roster.
func (s *Sequencer) Reset() {
	s.cursor = 0
}

// Len returns the roster size.
func (s *Sequencer) Len() int {
	return len(s.order)
}

// Order returns a copy of the effective turn order.
func (s *Sequencer) Order() []string {
	return append([]string(nil), s.order...)
}
