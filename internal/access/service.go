package access

import (
	"context"

	"gymdesk/internal/caldate"
)

// Result is the gate decision for one user on one day. Reason is set on
// denials only.
type Result struct {
	Allowed             bool   `json:"allowed"`
	Reason              string `json:"reason,omitempty"`
	HasActiveMembership bool   `json:"has_active_membership"`
	HasOverduePayment   bool   `json:"has_overdue_payment"`
}

// MembershipGate is satisfied by membership.Service.
type MembershipGate interface {
	HasActiveMembership(ctx context.Context, userID int, today caldate.Date) (bool, error)
}

// DebtGate is satisfied by installment.Service.
type DebtGate interface {
	HasOverdueLocked(ctx context.Context, userID int, today caldate.Date) (bool, error)
}

type Service interface {
	// Check is the single gate for QR check-in and class booking. Access
	// requires an active membership and no locked installment past its
	// due date.
	Check(ctx context.Context, userID int, today caldate.Date) (Result, error)
}

type service struct {
	memberships MembershipGate
	debts       DebtGate
}

func NewService(memberships MembershipGate, debts DebtGate) Service {
	return &service{memberships: memberships, debts: debts}
}

func (s *service) Check(ctx context.Context, userID int, today caldate.Date) (Result, error) {
	active, err := s.memberships.HasActiveMembership(ctx, userID, today)
	if err != nil {
		return Result{}, err
	}
	if !active {
		return Result{Reason: "no active membership"}, nil
	}

	overdue, err := s.debts.HasOverdueLocked(ctx, userID, today)
	if err != nil {
		return Result{}, err
	}
	if overdue {
		return Result{
			HasActiveMembership: true,
			HasOverduePayment:   true,
			Reason:              "overdue installment payment",
		}, nil
	}

	return Result{Allowed: true, HasActiveMembership: true}, nil
}
