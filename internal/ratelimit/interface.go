package ratelimit

import "time"

// Limiter enforces a per-key request cap within a fixed time window. The
// per-call limit is passed in because it varies by tier, not by limiter.
type Limiter interface {
	// Allow records one call against key and reports whether it fits
	// within limit for the current window. A denied call is not counted.
	Allow(key string, limit int) bool

	// Remaining returns how many calls key has left in its current window.
	Remaining(key string, limit int) int

	// Reset returns when key's current window ends.
	Reset(key string) time.Time

	Window() time.Duration
}
