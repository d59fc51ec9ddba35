// Package clock implements the per-round countdown. It is a pure state
// machine: time only advances when the owner feeds it deltas, so it never
// drifts with the wall clock and is fully deterministic under test.
package clock

import (
	"errors"
	"time"
)

// State defines the lifecycle of a countdown.
type State string

const (
	StateIdle      State = "IDLE"
	StateRunning   State = "RUNNING"
	StateExpired   State = "EXPIRED"
	StateCancelled State = "CANCELLED"
)

// Terminal reports whether the countdown can no longer advance.
func (s State) Terminal() bool {
	return s == StateExpired || s == StateCancelled
}

var (
	ErrInvalidDuration = errors.New("clock: duration must be positive")
	ErrInvalidDelta    = errors.New("clock: tick delta must not be negative")
)

// Countdown tracks elapsed time against a fixed duration.
// Idle -> Running -> {Expired | Cancelled}; re-entry only via a fresh Start.
type Countdown struct {
	state    State
	duration time.Duration
	elapsed  time.Duration
}

// New returns an idle countdown.
func New() *Countdown {
	return &Countdown{state: StateIdle}
}

// Start arms the countdown. It resets elapsed time and transitions to
// Running, including from a terminal state.
func (c *Countdown) Start(d time.Duration) error {
	if d <= 0 {
		return ErrInvalidDuration
	}
	c.duration = d
	c.elapsed = 0
	c.state = StateRunning
	return nil
}

// Tick advances elapsed time by delta. It reports expired=true exactly once,
// on the tick that crosses the duration. Ticks after a terminal state are
// no-ops, not errors.
func (c *Countdown) Tick(delta time.Duration) (expired bool, err error) {
	if delta < 0 {
		return false, ErrInvalidDelta
	}
	if c.state != StateRunning {
		return false, nil
	}
	c.elapsed += delta
	if c.elapsed >= c.duration {
		c.state = StateExpired
		return true, nil
	}
	return false, nil
}

// Remaining returns the time left, never negative.
func (c *Countdown) Remaining() time.Duration {
	if c.state == StateIdle {
		return 0
	}
	rem := c.duration - c.elapsed
	if rem < 0 {
		return 0
	}
	return rem
}

// Elapsed returns the time consumed so far.
func (c *Countdown) Elapsed() time.Duration {
	return c.elapsed
}

// Cancel stops a running countdown. Calling it in a terminal or idle state is
// a no-op.
func (c *Countdown) Cancel() {
	if c.state == StateRunning {
		c.state = StateCancelled
	}
}

// State returns the current lifecycle state.
func (c *Countdown) State() State {
	return c.state
}
