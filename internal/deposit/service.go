package deposit

import (
	"context"
	"errors"
	"time"

	"gymdesk/internal/caldate"
	"gymdesk/internal/logger"
	"gymdesk/internal/membership"
	"gymdesk/internal/metrics"
)

var ErrNoRefillableMembership = errors.New("no refillable membership for user")

// Notifier announces committed refills to the member. Wired to the email
// queue in production, nil disables notifications.
type Notifier interface {
	NotifyRefill(ctx context.Context, userID, credits int)
}

type Service interface {
	GetMyDeposit(ctx context.Context, userID int) (*Deposit, error)
	// RunWeeklyRefills evaluates every refillable membership and commits
	// the refills that are due. Returns how many were committed.
	RunWeeklyRefills(ctx context.Context, now time.Time) (int, error)
	// ForceRefill is the manual admin trigger. It waives the weekday
	// check but keeps the once-per-cycle guarantee.
	ForceRefill(ctx context.Context, userID int, now time.Time) (Decision, error)
}

type service struct {
	repo        Repository
	memberships membership.Repository
	notifier    Notifier
}

func NewService(repo Repository, memberships membership.Repository, notifier Notifier) Service {
	return &service{repo: repo, memberships: memberships, notifier: notifier}
}

func (s *service) GetMyDeposit(ctx context.Context, userID int) (*Deposit, error) {
	return s.repo.GetByUser(ctx, userID)
}

func (s *service) RunWeeklyRefills(ctx context.Context, now time.Time) (int, error) {
	today := caldate.FromTime(now)

	ms, err := s.memberships.ListRefillable(ctx, today)
	if err != nil {
		return 0, err
	}

	committed := 0
	for _, m := range ms {
		dec, err := s.evaluateAndApply(ctx, m, now, false)
		if err != nil {
			logger.Error("refill failed", "membership_id", m.ID, "user_id", m.UserID, "error", err)
			continue
		}
		if dec.ShouldRefill {
			committed++
		}
	}

	logger.Info("weekly refill run finished", "eligible", len(ms), "committed", committed)
	return committed, nil
}

func (s *service) ForceRefill(ctx context.Context, userID int, now time.Time) (Decision, error) {
	today := caldate.FromTime(now)

	ms, err := s.memberships.ListByUser(ctx, userID)
	if err != nil {
		return Decision{}, err
	}

	for _, m := range ms {
		if m.PackageType.RefillTarget() == 0 {
			continue
		}
		if !membership.EvaluateStatus(m, nil, today).IsActive {
			continue
		}
		return s.evaluateAndApply(ctx, m, now, true)
	}

	return Decision{}, ErrNoRefillableMembership
}

// evaluateAndApply runs the pure evaluation and, when a refill is due,
// commits it through the cycle guard. A guard rejection is reported as a
// "not refilled" decision, not an error: somebody else already did the
// work.
func (s *service) evaluateAndApply(ctx context.Context, m membership.Membership, now time.Time, force bool) (Decision, error) {
	dep, err := s.repo.GetByUser(ctx, m.UserID)
	if err != nil && !errors.Is(err, ErrDepositNotFound) {
		return Decision{}, err
	}

	dec := EvaluateRefill(m, dep, now, force)
	if !dec.ShouldRefill {
		metrics.RecordRefillSkipped(dec.Reason)
		return dec, nil
	}

	err = s.repo.ApplyRefill(ctx, m.ID, m.UserID, dec.NewBalance, dec.CycleStart, now)
	if err != nil {
		if errors.Is(err, ErrAlreadyRefilled) {
			dec.ShouldRefill = false
			dec.Reason = "already refilled this cycle"
			metrics.RecordRefillSkipped(dec.Reason)
			return dec, nil
		}
		return Decision{}, err
	}

	metrics.RecordRefill(string(m.PackageType))
	if s.notifier != nil {
		s.notifier.NotifyRefill(ctx, m.UserID, dec.NewBalance)
	}
	logger.Info("deposit refilled",
		"membership_id", m.ID,
		"user_id", m.UserID,
		"new_balance", dec.NewBalance,
		"cycle_start", dec.CycleStart.String(),
	)
	return dec, nil
}
