// Package quota implements the monthly usage ledger arithmetic: given a
// credential record and the current time, decide whether the call fits the
// tier's monthly limit and plan the write that records it. Evaluation is
// pure; the persisted write happens elsewhere, after admission, off the
// request's critical path.
package quota

import (
	"time"

	"github.com/mythos-labs/mythos-api/internal/models"
)

// Evaluation is the admission-relevant view of the ledger, computed before
// any write is issued.
type Evaluation struct {
	// EffectiveCount is the current-period count after accounting for a
	// due reset: zero when the boundary has passed, the persisted count
	// otherwise.
	EffectiveCount int64

	Limit int64

	// Exceeded is true when the tier's limit cannot accommodate this call.
	// A limit of zero means no API access at all and is always exceeded;
	// there is no unlimited tier.
	Exceeded bool

	// ResetDue marks that the persisted boundary has been crossed (or was
	// never set). The recording write must then store an absolute count of
	// 1 and advance the boundary to NextReset, rather than increment.
	ResetDue bool

	// NextReset is the first instant of the UTC calendar month following
	// now. Only meaningful when ResetDue is set.
	NextReset time.Time
}

// Remaining returns how many calls are left this month assuming the current
// call is admitted and recorded. Never negative.
func (e Evaluation) Remaining() int64 {
	r := e.Limit - e.EffectiveCount - 1
	if r < 0 {
		return 0
	}
	return r
}

// Evaluate computes the admission decision inputs for one call.
//
// The reset check happens before the limit comparison: a record whose
// boundary has passed is judged on a count of zero even though the persisted
// reset write has not happened yet. This keeps the read-time decision
// correct when the deferred write is still in flight or lost.
func Evaluate(rec *models.APIKey, limit int64, now time.Time) Evaluation {
	ev := Evaluation{Limit: limit}

	if rec.MonthlyResetAt == nil || !now.Before(*rec.MonthlyResetAt) {
		ev.ResetDue = true
		ev.NextReset = NextReset(now)
	} else {
		ev.EffectiveCount = rec.MonthlyRequestCount
	}

	// Zero is "blocked", not "unlimited"; check it before the comparison.
	if limit <= 0 {
		ev.Exceeded = true
		return ev
	}

	ev.Exceeded = ev.EffectiveCount >= limit
	return ev
}

// NextReset returns the first instant of the calendar month after now,
// anchored to UTC so the boundary does not drift with host timezone.
func NextReset(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}
