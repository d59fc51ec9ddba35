package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownLifecycle(t *testing.T) {
	c := New()
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, time.Duration(0), c.Remaining())

	require.NoError(t, c.Start(5*time.Second))
	assert.Equal(t, StateRunning, c.State())
	assert.Equal(t, 5*time.Second, c.Remaining())

	expired, err := c.Tick(2 * time.Second)
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, 3*time.Second, c.Remaining())
	assert.Equal(t, 2*time.Second, c.Elapsed())

	expired, err = c.Tick(3 * time.Second)
	require.NoError(t, err)
	assert.True(t, expired)
	assert.Equal(t, StateExpired, c.State())
	assert.Equal(t, time.Duration(0), c.Remaining())
}

func TestCountdownStartValidation(t *testing.T) {
	c := New()
	assert.ErrorIs(t, c.Start(0), ErrInvalidDuration)
	assert.ErrorIs(t, c.Start(-time.Second), ErrInvalidDuration)
	assert.Equal(t, StateIdle, c.State())
}

func TestCountdownNegativeDelta(t *testing.T) {
	c := New()
	require.NoError(t, c.Start(time.Second))

	_, err := c.Tick(-time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidDelta)
	assert.Equal(t, StateRunning, c.State())
}

func TestCountdownExpiresExactlyOnce(t *testing.T) {
	c := New()
	require.NoError(t, c.Start(time.Second))

	expired, err := c.Tick(time.Second)
	require.NoError(t, err)
	assert.True(t, expired)

	// Further ticks never re-report expiry.
	for i := 0; i < 3; i++ {
		expired, err = c.Tick(time.Second)
		require.NoError(t, err)
		assert.False(t, expired)
	}
}

func TestCountdownExpiresOnExactBoundary(t *testing.T) {
	c := New()
	require.NoError(t, c.Start(10*time.Second))

	expired, err := c.Tick(9 * time.Second)
	require.NoError(t, err)
	assert.False(t, expired)

	expired, err = c.Tick(time.Second)
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestCountdownCancel(t *testing.T) {
	c := New()

	// Cancel on an idle countdown is a no-op.
	c.Cancel()
	assert.Equal(t, StateIdle, c.State())

	require.NoError(t, c.Start(10*time.Second))
	_, err := c.Tick(4 * time.Second)
	require.NoError(t, err)

	c.Cancel()
	assert.Equal(t, StateCancelled, c.State())
	assert.True(t, c.State().Terminal())

	// Remaining is frozen, ticks are no-ops.
	assert.Equal(t, 6*time.Second, c.Remaining())
	expired, err := c.Tick(time.Hour)
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, 6*time.Second, c.Remaining())

	// Cancel is idempotent.
	c.Cancel()
	assert.Equal(t, StateCancelled, c.State())
}

func TestCountdownRestartFromTerminal(t *testing.T) {
	c := New()
	require.NoError(t, c.Start(time.Second))
	_, err := c.Tick(time.Second)
	require.NoError(t, err)
	assert.Equal(t, StateExpired, c.State())

	require.NoError(t, c.Start(3*time.Second))
	assert.Equal(t, StateRunning, c.State())
	assert.Equal(t, time.Duration(0), c.Elapsed())
	assert.Equal(t, 3*time.Second, c.Remaining())
}
