package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*FixedWindowLimiter, *time.Time) {
	t.Helper()

	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	l := NewFixedWindow(time.Minute)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 0; i < 10; i++ {
		require.True(t, l.Allow("k", 10), "call %d", i+1)
	}
	require.False(t, l.Allow("k", 10))
}

func TestDeniedCallDoesNotConsume(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 0; i < 10; i++ {
		l.Allow("k", 10)
	}

	// Hammering past the cap must not extend the penalty within the window.
	for i := 0; i < 50; i++ {
		require.False(t, l.Allow("k", 10))
	}
	require.Equal(t, 0, l.Remaining("k", 10))
}

func TestWindowRollover(t *testing.T) {
	l, now := newTestLimiter(t)

	for i := 0; i < 10; i++ {
		require.True(t, l.Allow("k", 10))
	}
	require.False(t, l.Allow("k", 10))

	*now = now.Add(61 * time.Second)

	require.True(t, l.Allow("k", 10))
	require.Equal(t, 9, l.Remaining("k", 10))
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 0; i < 10; i++ {
		require.True(t, l.Allow("a", 10))
	}
	require.False(t, l.Allow("a", 10))
	require.True(t, l.Allow("b", 10))
}

func TestZeroLimitDeniesEverything(t *testing.T) {
	l, _ := newTestLimiter(t)
	require.False(t, l.Allow("k", 0))
	require.False(t, l.Allow("k", 0))
}

func TestRemainingFreshKey(t *testing.T) {
	l, _ := newTestLimiter(t)
	require.Equal(t, 10, l.Remaining("never-seen", 10))
}

func TestReset(t *testing.T) {
	l, now := newTestLimiter(t)

	start := *now
	require.True(t, l.Allow("k", 10))
	require.Equal(t, start.Add(time.Minute), l.Reset("k"))

	// An unseen key's window would start now.
	require.Equal(t, *now, l.Reset("unseen"))
}

func TestAllowConcurrentAdmitsExactlyLimit(t *testing.T) {
	l := NewFixedWindow(time.Minute)
	const limit = 32

	var wg sync.WaitGroup
	var allowed int64
	for i := 0; i < 2*limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("k", limit) {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, limit, allowed)
	require.Equal(t, 0, l.Remaining("k", limit))
}

func TestWindowDefault(t *testing.T) {
	l := NewFixedWindow(0)
	require.Equal(t, time.Minute, l.Window())
}
