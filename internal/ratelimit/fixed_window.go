package ratelimit

import (
	"sync"
	"time"
)

// FixedWindowLimiter is a process-local fixed-window counter keyed by
// credential fingerprint. State lives only in memory: a restart starts every
// key on a fresh window, and each process enforces its own limit, so running
// N replicas multiplies the effective allowance by N. Both are accepted
// behavior, not bugs to fix with a shared store.
//
// The window is fixed, not sliding: a client timing bursts across a window
// boundary can briefly reach 2x the nominal rate.
type FixedWindowLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	window  time.Duration
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

func NewFixedWindow(windowLen time.Duration) *FixedWindowLimiter {
	if windowLen <= 0 {
		windowLen = time.Minute
	}

	return &FixedWindowLimiter{
		windows: make(map[string]*window),
		window:  windowLen,
		now:     time.Now,
	}
}

// Allow records one call for key if it fits within limit in the current
// window. A call past the cap is denied without incrementing.
func (f *FixedWindowLimiter) Allow(key string, limit int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()

	w, ok := f.windows[key]
	if !ok || now.Sub(w.start) > f.window {
		f.windows[key] = &window{start: now, count: 1}
		return 1 <= limit
	}

	if w.count >= limit {
		return false
	}

	w.count++
	return true
}

func (f *FixedWindowLimiter) Remaining(key string, limit int) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	w, ok := f.windows[key]
	if !ok || f.now().Sub(w.start) > f.window {
		return limit
	}

	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}

	return remaining
}

// Returns the time at which key's current window rolls over
func (f *FixedWindowLimiter) Reset(key string) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	w, ok := f.windows[key]
	if !ok {
		return f.now()
	}

	return w.start.Add(f.window)
}

func (f *FixedWindowLimiter) Window() time.Duration {
	return f.window
}
