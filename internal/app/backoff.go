package app

import (
	"context"
	"math/rand"
	"time"
)

// backoff produces retry delays. When max is greater than initial the delay
// doubles after every wait with ±20% jitter; otherwise it is fixed.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

// newBackoff creates a new backoff with the given initial and max durations.
// A max below initial is raised to initial.
func newBackoff(initial, max time.Duration) *backoff {
	if max < initial {
		max = initial
	}
	return &backoff{
		initial: initial,
		max:     max,
		current: initial,
	}
}

// next returns the delay to wait now and advances the backoff.
func (b *backoff) next() time.Duration {
	d := b.current
	if b.max == b.initial {
		return d
	}

	jitter := float64(d) * 0.2 * (rand.Float64()*2 - 1)
	d = time.Duration(float64(d) + jitter)

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

// Wait blocks for the next delay. It returns ctx.Err() if ctx is done first.
func (b *backoff) Wait(ctx context.Context) error {
	timer := time.NewTimer(b.next())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Reset resets the backoff to the initial duration.
func (b *backoff) Reset() {
	b.current = b.initial
}

// Current returns the current backoff duration.
func (b *backoff) Current() time.Duration {
	return b.current
}
