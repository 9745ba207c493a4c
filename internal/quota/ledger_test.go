package quota

import (
	"testing"
	"time"

	"github.com/mythos-labs/mythos-api/internal/models"
	"github.com/stretchr/testify/require"
)

func rec(count int64, resetAt *time.Time) *models.APIKey {
	return &models.APIKey{
		MonthlyRequestCount: count,
		MonthlyResetAt:      resetAt,
	}
}

func TestEvaluateUnderLimit(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	reset := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	ev := Evaluate(rec(42, &reset), 500, now)

	require.False(t, ev.Exceeded)
	require.False(t, ev.ResetDue)
	require.EqualValues(t, 42, ev.EffectiveCount)
	require.EqualValues(t, 500-42-1, ev.Remaining())
}

func TestEvaluateAtLimit(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	reset := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	ev := Evaluate(rec(500, &reset), 500, now)
	require.True(t, ev.Exceeded)

	// One below the limit still admits; that call consumes the last slot.
	ev = Evaluate(rec(499, &reset), 500, now)
	require.False(t, ev.Exceeded)
	require.EqualValues(t, 0, ev.Remaining())
}

func TestEvaluateZeroLimitAlwaysBlocked(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	reset := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	// A zero count against a zero limit is still blocked: zero means no
	// access, not unlimited.
	ev := Evaluate(rec(0, &reset), 0, now)
	require.True(t, ev.Exceeded)

	// Even with the boundary crossed the answer does not change.
	past := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	ev = Evaluate(rec(0, &past), 0, now)
	require.True(t, ev.Exceeded)
	require.True(t, ev.ResetDue)
}

func TestEvaluateResetDue(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	past := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	// The boundary passed but the persisted count is stale: judge on zero.
	ev := Evaluate(rec(500, &past), 500, now)
	require.False(t, ev.Exceeded)
	require.True(t, ev.ResetDue)
	require.EqualValues(t, 0, ev.EffectiveCount)
	require.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), ev.NextReset)
}

func TestEvaluateExactBoundaryInstant(t *testing.T) {
	boundary := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	// now == boundary starts the new period.
	ev := Evaluate(rec(500, &boundary), 500, boundary)
	require.True(t, ev.ResetDue)
	require.False(t, ev.Exceeded)

	// A nanosecond earlier is still the old period.
	ev = Evaluate(rec(500, &boundary), 500, boundary.Add(-time.Nanosecond))
	require.False(t, ev.ResetDue)
	require.True(t, ev.Exceeded)
}

func TestEvaluateNilResetCountsAsDue(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	ev := Evaluate(rec(123, nil), 500, now)
	require.True(t, ev.ResetDue)
	require.EqualValues(t, 0, ev.EffectiveCount)
	require.False(t, ev.Exceeded)
}

func TestNextReset(t *testing.T) {
	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{
			time.Date(2026, time.March, 15, 12, 30, 45, 0, time.UTC),
			time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			// December rolls over the year.
			time.Date(2026, time.December, 31, 23, 59, 59, 0, time.UTC),
			time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			// First instant of a month still points at the next one.
			time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, NextReset(tt.now))
	}
}

func TestNextResetAnchorsToUTC(t *testing.T) {
	// 2026-03-31 20:00 in UTC-10 is already April in UTC.
	loc := time.FixedZone("UTC-10", -10*3600)
	now := time.Date(2026, time.March, 31, 20, 0, 0, 0, loc)

	require.Equal(t,
		time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
		NextReset(now),
	)
}

func TestRemainingNeverNegative(t *testing.T) {
	ev := Evaluation{EffectiveCount: 600, Limit: 500}
	require.EqualValues(t, 0, ev.Remaining())
}
