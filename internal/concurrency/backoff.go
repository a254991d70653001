// File: internal/concurrency/backoff.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Exponential idle backoff with a reusable timer, for loops polling a
// non-blocking ring.

package concurrency

import (
	"context"
	"time"
)

// Backoff doubles its delay on every Wait, from min up to max.
// Not safe for concurrent use; each polling goroutine owns one.
type Backoff struct {
	min, max time.Duration
	cur      time.Duration
	timer    *time.Timer
}

// NewBackoff creates a Backoff. Non-positive min defaults to 1ns, and max
// is raised to min when smaller.
func NewBackoff(min, max time.Duration) *Backoff {
	if min <= 0 {
		min = time.Nanosecond
	}
	if max < min {
		max = min
	}
	// Create a reusable timer, initially stopped
	b := &Backoff{min: min, max: max, cur: min, timer: time.NewTimer(0)}
	b.stopTimer()
	return b
}

// Reset returns the delay to min after progress was made.
func (b *Backoff) Reset() {
	b.cur = b.min
}

// Current returns the delay the next Wait will use.
func (b *Backoff) Current() time.Duration {
	return b.cur
}

// Wait sleeps for the current delay, then doubles it. It returns early
// with ctx.Err() when ctx is done, or with nil when wake fires.
// A nil wake channel never fires.
func (b *Backoff) Wait(ctx context.Context, wake <-chan struct{}) error {
	b.timer.Reset(b.cur)
	select {
	case <-ctx.Done():
		b.stopTimer()
		return ctx.Err()
	case <-wake:
		b.stopTimer()
		return nil
	case <-b.timer.C:
	}
	b.cur *= 2
	if b.cur > b.max {
		b.cur = b.max
	}
	return nil
}

func (b *Backoff) stopTimer() {
	if !b.timer.Stop() {
		select {
		case <-b.timer.C:
		default:
		}
	}
}
