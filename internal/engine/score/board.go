// Package score owns cumulative totals for a session. All mutation goes
// through Award; other components only ever see copies.
package score

import (
	"errors"
	"sort"
)

var ErrUnknownEntity = errors.New("score: unknown entity")

// Standing is one row of a ranking.
type Standing struct {
	EntityID string `json:"entity_id"`
	Score    int    `json:"score"`
}

// Board accumulates points per roster entity. Registration order is fixed at
// construction and breaks ranking ties.
type Board struct {
	order  []string
	totals map[string]int
}

// NewBoard registers the given entities with a zero total each.
func NewBoard(roster []string) *Board {
	b := &Board{
		order:  append([]string(nil), roster...),
		totals: make(map[string]int, len(roster)),
	}
	for _, id := range roster {
		b.totals[id] = 0
	}
	return b
}

// Award adds points (negative allowed) to an entity's running total and
// returns the new total. Totals never reset mid-session.
func (b *Board) Award(entityID string, points int) (int, error) {
	if _, ok := b.totals[entityID]; !ok {
		return 0, ErrUnknownEntity
	}
	b.totals[entityID] += points
	return b.totals[entityID], nil
}

// Total returns the current cumulative score, 0 if never awarded.
func (b *Board) Total(entityID string) int {
	return b.totals[entityID]
}

// Ranking returns standings ordered by score descending, ties broken by
// roster registration order. The result is deterministic across calls.
func (b *Board) Ranking() []Standing {
	standings := make([]Standing, 0, len(b.order))
	for _, id := range b.order {
		standings = append(standings, Standing{EntityID: id, Score: b.totals[id]})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})
	return standings
}

// Snapshot returns an immutable copy of all totals.
func (b *Board) Snapshot() map[string]int {
	out := make(map[string]int, len(b.totals))
	for id, total := range b.totals {
		out[id] = total
	}
	return out
}
