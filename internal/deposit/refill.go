package deposit

import (
	"time"

	"gymdesk/internal/caldate"
	"gymdesk/internal/membership"
)

// Refill cycles run weekly, anchored on this weekday. The cycle containing
// a given day starts on the most recent Sunday.
const refillWeekday = time.Sunday

// Decision is the outcome of a refill evaluation. It is a proposal only;
// the repository's cycle guard decides whether the commit actually lands.
type Decision struct {
	ShouldRefill bool         `json:"should_refill"`
	NewBalance   int          `json:"new_balance"`
	CycleStart   caldate.Date `json:"cycle_start"`
	Reason       string       `json:"reason"`
}

// EvaluateRefill decides whether a weekly refill is due for the given
// membership and deposit at the given moment. It is a pure function of its
// inputs and safe to call any number of times.
//
// force waives the weekday precondition (the manual admin trigger) but
// never the once-per-cycle guarantee: a cycle that already saw a refill
// stays refilled.
func EvaluateRefill(m membership.Membership, dep *Deposit, now time.Time, force bool) Decision {
	today := caldate.FromTime(now)
	cycleStart := today.SundayOnOrBefore()

	target := m.PackageType.RefillTarget()
	if target == 0 {
		return Decision{CycleStart: cycleStart, Reason: "package has no weekly refill"}
	}

	// Refill eligibility tracks the derived status, not the stored flags.
	// Balance is irrelevant here: an empty Ultimate deposit is exactly
	// what the refill exists to fix.
	status := membership.EvaluateStatus(m, nil, today)
	if !status.IsActive {
		return Decision{CycleStart: cycleStart, Reason: "membership not active"}
	}

	if !force && today.Weekday() != refillWeekday {
		return Decision{CycleStart: cycleStart, Reason: "not the refill day"}
	}

	if dep == nil || !dep.IsActive {
		return Decision{CycleStart: cycleStart, Reason: "no active deposit"}
	}

	if dep.LastRefillAt != nil {
		last := caldate.FromTime(dep.LastRefillAt.In(now.Location()))
		if !last.Before(cycleStart) {
			return Decision{CycleStart: cycleStart, Reason: "already refilled this cycle"}
		}
	}

	if dep.Remaining >= target {
		return Decision{CycleStart: cycleStart, Reason: "balance already at target"}
	}

	return Decision{
		ShouldRefill: true,
		NewBalance:   target,
		CycleStart:   cycleStart,
		Reason:       "weekly refill due",
	}
}
