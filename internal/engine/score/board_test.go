package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwardAccumulates(t *testing.T) {
	b := NewBoard([]string{"alice", "bob"})

	total, err := b.Award("alice", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	total, err = b.Award("alice", 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, 5, b.Total("alice"))
	assert.Equal(t, 0, b.Total("bob"))
}

func TestAwardNegativePoints(t *testing.T) {
	b := NewBoard([]string{"alice"})

	total, err := b.Award("alice", -2)
	require.NoError(t, err)
	assert.Equal(t, -2, total)
}

func TestAwardUnknownEntity(t *testing.T) {
	b := NewBoard([]string{"alice"})

	_, err := b.Award("mallory", 1)
	assert.ErrorIs(t, err, ErrUnknownEntity)
	assert.Equal(t, 0, b.Total("mallory"))
}

func TestRankingOrdersByScoreThenRegistration(t *testing.T) {
	b := NewBoard([]string{"alice", "bob", "carol", "dave"})
	_, err := b.Award("bob", 5)
	require.NoError(t, err)
	_, err = b.Award("carol", 5)
	require.NoError(t, err)
	_, err = b.Award("dave", 7)
	require.NoError(t, err)

	want := []Standing{
		{EntityID: "dave", Score: 7},
		{EntityID: "bob", Score: 5},   // ties break by registration order
		{EntityID: "carol", Score: 5}, // bob registered before carol
		{EntityID: "alice", Score: 0},
	}
	assert.Equal(t, want, b.Ranking())

	// Ranking is stable across repeated calls.
	assert.Equal(t, want, b.Ranking())
}

func TestSnapshotIsACopy(t *testing.T) {
	b := NewBoard([]string{"alice"})
	_, err := b.Award("alice", 1)
	require.NoError(t, err)

	snap := b.Snapshot()
	snap["alice"] = 99
	assert.Equal(t, 1, b.Total("alice"))
}
