package installment

import "gymdesk/internal/caldate"

// Evaluate derives the status of a single installment for the given day.
// Stored data never carries an "overdue" flag; the state is computed here
// every time. An unpaid installment whose due date is today or earlier is
// overdue, so the due date itself is already late.
func Evaluate(i Installment, today caldate.Date) Status {
	if i.Paid {
		return StatusPaid
	}
	if i.DueDate.Compare(today) <= 0 {
		return StatusOverdue
	}
	return StatusPending
}

// EvaluatedInstallment pairs an installment with its derived status.
type EvaluatedInstallment struct {
	Installment
	Status Status `json:"status"`
}

// Summary aggregates the participating installments of a request.
type Summary struct {
	RequestID      int                    `json:"request_id"`
	Installments   []EvaluatedInstallment `json:"installments"`
	TotalCents     int64                  `json:"total_cents"`
	PaidCents      int64                  `json:"paid_cents"`
	RemainingCents int64                  `json:"remaining_cents"`
	AllPaid        bool                   `json:"all_paid"`
	HasOverdue     bool                   `json:"has_overdue"`
}

// Summarize evaluates every participating installment of a request and
// rolls up the totals. Deleted and zero-amount records are excluded from
// both the list and the sums.
func Summarize(r Request, today caldate.Date) Summary {
	s := Summary{RequestID: r.ID, AllPaid: true}
	for _, inst := range r.Installments() {
		if !inst.Participates() {
			continue
		}
		st := Evaluate(inst, today)
		s.Installments = append(s.Installments, EvaluatedInstallment{Installment: inst, Status: st})
		s.TotalCents += inst.AmountCents
		if inst.Paid {
			s.PaidCents += inst.AmountCents
		} else {
			s.AllPaid = false
		}
		if st == StatusOverdue {
			s.HasOverdue = true
		}
	}
	s.RemainingCents = s.TotalCents - s.PaidCents
	if len(s.Installments) == 0 {
		s.AllPaid = false
	}
	return s
}

// AllPaid reports whether every participating installment of the request
// has been paid. A request with no participating installments is not
// considered paid up.
func AllPaid(r Request) bool {
	any := false
	for _, inst := range r.Installments() {
		if !inst.Participates() {
			continue
		}
		any = true
		if !inst.Paid {
			return false
		}
	}
	return any
}

// HasOverdueLocked reports whether the request carries at least one
// locked, unpaid, participating installment whose due date has been
// reached. Such a request blocks gym access until the debt is settled.
func HasOverdueLocked(r Request, today caldate.Date) bool {
	for _, inst := range r.Installments() {
		if !inst.Participates() || !inst.Locked {
			continue
		}
		if Evaluate(inst, today) == StatusOverdue {
			return true
		}
	}
	return false
}
