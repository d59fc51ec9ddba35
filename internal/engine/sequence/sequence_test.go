package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptyRoster(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrEmptyRoster)

	_, err = New([]string{})
	assert.ErrorIs(t, err, ErrEmptyRoster)
}

func TestNextWrapsRoundRobin(t *testing.T) {
	s, err := New([]string{"a", "b", "c"})
	require.NoError(t, err)

	got := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		got = append(got, s.Next())
	}
	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c", "a"}, got)
}

func TestReset(t *testing.T) {
	s, err := New([]string{"a", "b", "c"})
	require.NoError(t, err)

	s.Next()
	s.Next()
	s.Reset()
	assert.Equal(t, "a", s.Next())
}

func TestShuffleSeedIsDeterministic(t *testing.T) {
	roster := []string{"a", "b", "c", "d", "e"}

	s1, err := New(roster, WithShuffleSeed(42))
	require.NoError(t, err)
	s2, err := New(roster, WithShuffleSeed(42))
	require.NoError(t, err)

	assert.Equal(t, s1.Order(), s2.Order())

	// The shuffle permutes, never adds or drops.
	assert.ElementsMatch(t, roster, s1.Order())
	assert.Equal(t, len(roster), s1.Len())
}

func TestOrderReturnsCopy(t *testing.T) {
	s, err := New([]string{"a", "b"})
	require.NoError(t, err)

	order := s.Order()
	order[0] = "mutated"
	assert.Equal(t, "a", s.Next())
}

func TestNewCopiesRoster(t *testing.T) {
	roster := []string{"a", "b"}
	s, err := New(roster)
	require.NoError(t, err)

	roster[0] = "mutated"
	assert.Equal(t, "a", s.Next())
}
