/**
 * @description
 * This file implements the OTP resend cooldown: after a successful resend the
 * user must wait out a fixed countdown before the next attempt. While the
 * countdown is running, Allow rejects locally and no network call is made.
 *
 * The countdown state is a deadline, so correctness never depends on the
 * ticker goroutine; the ticker only feeds a channel for rendering the
 * "resend in Ns" label and is guaranteed to stop on Stop or expiry.
 */

package flow

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCooldownActive is returned by Allow while the countdown is running.
var ErrCooldownActive = errors.New("flow: resend is on cooldown")

// Cooldown is a restartable resend countdown.
type Cooldown struct {
	duration time.Duration
	tick     time.Duration
	now      func() time.Time

	mu       sync.Mutex
	deadline time.Time
	stop     chan struct{}
}

// CooldownOption customizes a Cooldown.
type CooldownOption func(*Cooldown)

// WithCooldownClock replaces the time source. Used in tests.
func WithCooldownClock(now func() time.Time) CooldownOption {
	return func(c *Cooldown) { c.now = now }
}

// WithTickInterval replaces the one-second render tick. Used in tests.
func WithTickInterval(d time.Duration) CooldownOption {
	return func(c *Cooldown) { c.tick = d }
}

// NewCooldown creates a cooldown of the given duration.
func NewCooldown(duration time.Duration, opts ...CooldownOption) *Cooldown {
	c := &Cooldown{
		duration: duration,
		tick:     time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Allow reports whether a resend may proceed now. While the countdown is
// running it returns ErrCooldownActive with the remaining time; the caller
// shows the message inline and issues no network call.
func (c *Cooldown) Allow() error {
	if remaining := c.Remaining(); remaining > 0 {
		return fmt.Errorf("%w: wait %ds", ErrCooldownActive, int(remaining.Round(time.Second).Seconds()))
	}
	return nil
}

// Remaining returns how long until the cooldown expires; zero when idle.
func (c *Cooldown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.deadline.Sub(c.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Start arms the countdown and returns a channel carrying the remaining
// whole seconds once per tick. The channel closes when the countdown expires
// or Stop is called; the feeding goroutine never outlives either.
func (c *Cooldown) Start() <-chan int {
	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
	}
	stop := make(chan struct{})
	c.stop = stop
	c.deadline = c.now().Add(c.duration)
	c.mu.Unlock()

	ticks := make(chan int, 1)
	go func() {
		defer close(ticks)
		ticker := time.NewTicker(c.tick)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				remaining := c.Remaining()
				seconds := int(remaining.Round(time.Second).Seconds())
				select {
				case ticks <- seconds:
				default:
				}
				if remaining <= 0 {
					return
				}
			}
		}
	}()
	return ticks
}

// Stop cancels the countdown and releases the ticker goroutine. It is safe
// to call on an idle cooldown and must be called when the screen unmounts.
func (c *Cooldown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.deadline = time.Time{}
}
