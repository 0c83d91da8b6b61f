// Package retry computes retry backoff delays for the queue and sync layers.
// No library from our stack covers this: the delays here are persisted as
// absolute next-attempt timestamps rather than driving an in-process retry
// loop, which is the shape retry helpers such as cenkalti/backoff assume.
package retry

import (
	"math/rand"
	"time"
)

// Exponential returns base * 2^(attempt-1) capped at max. Attempt counts
// start at 1; a non-positive attempt is treated as the first.
func Exponential(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// ExponentialWithJitter adds up to 20% random jitter on top of the
// exponential delay so that retrying writers spread out. The jittered value
// may exceed max by at most the jitter fraction.
func ExponentialWithJitter(attempt int, base, max time.Duration) time.Duration {
	d := Exponential(attempt, base, max)
	jitter := time.Duration(rand.Int63n(int64(d)/5 + 1))
	return d + jitter
}

// Linear returns attempt * step capped at max. Attempt counts start at 1.
func Linear(attempt int, step, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(attempt) * step
	if d > max {
		return max
	}
	return d
}
