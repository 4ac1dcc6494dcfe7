package membership

import (
	"context"

	"gymdesk/internal/caldate"
	"gymdesk/internal/logger"
)

// DepositLookup is the slice of the deposit repository the evaluator needs.
type DepositLookup interface {
	RemainingForUser(ctx context.Context, userID int) (*int, error)
}

type Service interface {
	ListWithDerived(ctx context.Context, userID int, today caldate.Date) ([]MembershipWithStatus, error)
	// HasActiveMembership reports whether any of the user's memberships
	// evaluates as active today.
	HasActiveMembership(ctx context.Context, userID int, today caldate.Date) (bool, error)
	// UsesDepositToday reports whether any active membership draws class
	// credits from a deposit. Free Gym members book without one.
	UsesDepositToday(ctx context.Context, userID int, today caldate.Date) (bool, error)
	// SyncStatuses repairs rows whose stored flags went stale and returns
	// how many were fixed.
	SyncStatuses(ctx context.Context, today caldate.Date) (int, error)
	ListPackages(ctx context.Context) ([]Package, error)
}

type service struct {
	repo     Repository
	deposits DepositLookup
}

func NewService(repo Repository, deposits DepositLookup) Service {
	return &service{repo: repo, deposits: deposits}
}

func (s *service) ListWithDerived(ctx context.Context, userID int, today caldate.Date) ([]MembershipWithStatus, error) {
	ms, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	remaining, err := s.remainingFor(ctx, userID, ms)
	if err != nil {
		return nil, err
	}

	out := make([]MembershipWithStatus, 0, len(ms))
	for _, m := range ms {
		out = append(out, MembershipWithStatus{
			Membership: m,
			Derived:    EvaluateStatus(m, remaining, today),
		})
	}

	return out, nil
}

func (s *service) HasActiveMembership(ctx context.Context, userID int, today caldate.Date) (bool, error) {
	ms, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}

	remaining, err := s.remainingFor(ctx, userID, ms)
	if err != nil {
		return false, err
	}

	for _, m := range ms {
		if EvaluateStatus(m, remaining, today).IsActive {
			return true, nil
		}
	}

	return false, nil
}

func (s *service) UsesDepositToday(ctx context.Context, userID int, today caldate.Date) (bool, error) {
	ms, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}

	remaining, err := s.remainingFor(ctx, userID, ms)
	if err != nil {
		return false, err
	}

	for _, m := range ms {
		if m.PackageType.UsesDeposit() && EvaluateStatus(m, remaining, today).IsActive {
			return true, nil
		}
	}

	return false, nil
}

// remainingFor loads the user's deposit balance once, and only when one of
// the rows actually consumes it.
func (s *service) remainingFor(ctx context.Context, userID int, ms []Membership) (*int, error) {
	needed := false
	for _, m := range ms {
		if m.PackageType.Consumable() {
			needed = true
			break
		}
	}
	if !needed {
		return nil, nil
	}
	return s.deposits.RemainingForUser(ctx, userID)
}

func (s *service) SyncStatuses(ctx context.Context, today caldate.Date) (int, error) {
	stale, err := s.repo.ListStale(ctx, today)
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, m := range stale {
		res := EvaluateStatus(m, nil, today)
		if err := s.repo.SyncStoredStatus(ctx, m.ID, res.Status, res.IsActive); err != nil {
			logger.Error("failed to sync membership status", "membership_id", m.ID, "error", err)
			continue
		}
		fixed++
	}

	if fixed > 0 {
		logger.Info("repaired stale membership flags", "count", fixed)
	}

	return fixed, nil
}

func (s *service) ListPackages(ctx context.Context) ([]Package, error) {
	return s.repo.ListPackages(ctx)
}
