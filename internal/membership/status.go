package membership

import (
	"fmt"

	"gymdesk/internal/caldate"
)

// StatusResult is the derived lifecycle state of a membership on a given
// day, with a human-readable reason for audits.
type StatusResult struct {
	IsActive bool   `json:"is_active"`
	Status   Status `json:"status"`
	Reason   string `json:"reason"`
}

// EvaluateStatus derives the true status of m on the given day.
//
// depositRemaining is the user's Pilates credit balance, or nil when the
// caller has none loaded; it only matters for consumable (plain Pilates)
// packages, which end early once their bucket is empty.
//
// The stored is_active/status flags are never trusted past the end date:
// a row whose dates say expired is expired no matter what the flags claim.
// Malformed rows fail closed to expired.
func EvaluateStatus(m Membership, depositRemaining *int, today caldate.Date) StatusResult {
	if m.StartDate.IsZero() || m.EndDate.IsZero() {
		return StatusResult{
			Status: StatusExpired,
			Reason: "missing start or end date",
		}
	}
	if m.EndDate.Before(m.StartDate) {
		return StatusResult{
			Status: StatusExpired,
			Reason: fmt.Sprintf("end date %s before start date %s", m.EndDate, m.StartDate),
		}
	}

	if today.Before(m.StartDate) {
		return StatusResult{
			Status: StatusPending,
			Reason: fmt.Sprintf("starts on %s", m.StartDate),
		}
	}

	// End date is inclusive: still active on the end date itself.
	if today.After(m.EndDate) {
		reason := fmt.Sprintf("ended on %s", m.EndDate)
		if m.IsActive && m.Status == StatusActive {
			reason += " (stored flags are stale and still say active)"
		}
		return StatusResult{Status: StatusExpired, Reason: reason}
	}

	if !m.IsActive || m.Status != StatusActive {
		return StatusResult{
			Status: StatusExpired,
			Reason: "deactivated before end date",
		}
	}

	if m.PackageType.Consumable() && depositRemaining != nil && *depositRemaining == 0 {
		return StatusResult{
			Status: StatusExpired,
			Reason: "lessons exhausted",
		}
	}

	return StatusResult{
		IsActive: true,
		Status:   StatusActive,
		Reason:   fmt.Sprintf("active until %s", m.EndDate),
	}
}
