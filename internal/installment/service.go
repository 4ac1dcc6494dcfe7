package installment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymdesk/internal/caldate"
	"gymdesk/internal/deposit"
	"gymdesk/internal/membership"
	"gymdesk/internal/metrics"
)

var (
	ErrRequestNotPending = errors.New("request is not pending")
	ErrInvalidPlan       = errors.New("invalid installment plan")
)

// reminderWindowDays is how far ahead of the due date a payment reminder
// goes out.
const reminderWindowDays = 3

// Notifier carries request decisions and payment reminders to the member.
// Wired to the email queue in production, nil disables notifications.
type Notifier interface {
	NotifyDecision(ctx context.Context, userID int, decision string)
	NotifyReminder(ctx context.Context, userID int, amountCents int64, dueDate caldate.Date)
}

type Service interface {
	CreateRequest(ctx context.Context, userID, packageID int, plan []PlannedInstallment) (*Request, error)
	ListMine(ctx context.Context, userID int, today caldate.Date) ([]Summary, error)
	ListByStatus(ctx context.Context, status RequestStatus) ([]Request, error)
	// Approve turns a pending request into a membership row valid over
	// [start, end] and grants the package's Pilates credits, if any.
	Approve(ctx context.Context, requestID int, start, end caldate.Date) (*membership.Membership, error)
	Reject(ctx context.Context, requestID int) error
	RecordPayment(ctx context.Context, requestID, number int, amountCents int64, method Method, now time.Time) (*Request, error)
	DeleteThirdInstallment(ctx context.Context, requestID int) error
	// HasOverdueLocked reports whether any approved request of the user
	// carries a locked installment past its due date.
	HasOverdueLocked(ctx context.Context, userID int, today caldate.Date) (bool, error)
	// RemindDueInstallments notifies members whose unpaid installments
	// fall due within the reminder window. Returns how many reminders
	// went out.
	RemindDueInstallments(ctx context.Context, today caldate.Date) (int, error)
}

type service struct {
	repo        Repository
	memberships membership.Repository
	deposits    deposit.Repository
	notifier    Notifier
}

func NewService(repo Repository, memberships membership.Repository, deposits deposit.Repository, notifier Notifier) Service {
	return &service{repo: repo, memberships: memberships, deposits: deposits, notifier: notifier}
}

func (s *service) CreateRequest(ctx context.Context, userID, packageID int, plan []PlannedInstallment) (*Request, error) {
	if len(plan) > 3 {
		return nil, ErrTooManyInstallments
	}
	for _, p := range plan {
		if p.AmountCents <= 0 || p.DueDate.IsZero() {
			return nil, ErrInvalidPlan
		}
	}
	if _, err := s.memberships.GetPackageByID(ctx, packageID); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, userID, packageID, plan)
}

func (s *service) ListMine(ctx context.Context, userID int, today caldate.Date) ([]Summary, error) {
	reqs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(reqs))
	for _, r := range reqs {
		summaries = append(summaries, Summarize(r, today))
	}
	return summaries, nil
}

func (s *service) ListByStatus(ctx context.Context, status RequestStatus) ([]Request, error) {
	return s.repo.ListByStatus(ctx, status)
}

func (s *service) Approve(ctx context.Context, requestID int, start, end caldate.Date) (*membership.Membership, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != RequestPending {
		return nil, ErrRequestNotPending
	}
	pkg, err := s.memberships.GetPackageByID(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}

	m, err := s.memberships.Create(ctx, req.UserID, pkg.ID, pkg.PackageType, start, end, &req.ID)
	if err != nil {
		return nil, fmt.Errorf("creating membership for request %d: %w", requestID, err)
	}
	if pkg.PackageType.UsesDeposit() && pkg.DepositCredits > 0 {
		if _, err := s.deposits.Grant(ctx, req.UserID, pkg.DepositCredits); err != nil {
			return nil, fmt.Errorf("granting deposit for request %d: %w", requestID, err)
		}
	}
	if err := s.repo.SetStatus(ctx, requestID, RequestApproved); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.NotifyDecision(ctx, req.UserID, string(RequestApproved))
	}
	return m, nil
}

func (s *service) Reject(ctx context.Context, requestID int) error {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status != RequestPending {
		return ErrRequestNotPending
	}
	if err := s.repo.SetStatus(ctx, requestID, RequestRejected); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.NotifyDecision(ctx, req.UserID, string(RequestRejected))
	}
	return nil
}

func (s *service) RecordPayment(ctx context.Context, requestID, number int, amountCents int64, method Method, now time.Time) (*Request, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("unknown payment method %q", method)
	}
	req, err := s.repo.RecordPayment(ctx, requestID, number, amountCents, method, now)
	if err != nil {
		return nil, err
	}
	metrics.RecordInstallmentPayment(string(method))
	return req, nil
}

func (s *service) DeleteThirdInstallment(ctx context.Context, requestID int) error {
	return s.repo.DeleteThirdInstallment(ctx, requestID)
}

func (s *service) RemindDueInstallments(ctx context.Context, today caldate.Date) (int, error) {
	if s.notifier == nil {
		return 0, nil
	}
	reqs, err := s.repo.ListByStatus(ctx, RequestApproved)
	if err != nil {
		return 0, err
	}

	horizon := today.AddDays(reminderWindowDays)
	sent := 0
	for _, r := range reqs {
		for _, inst := range r.Installments() {
			if !inst.Participates() || inst.Paid || inst.DueDate.IsZero() {
				continue
			}
			if inst.DueDate.Before(today) || horizon.Before(inst.DueDate) {
				continue
			}
			s.notifier.NotifyReminder(ctx, r.UserID, inst.AmountCents, inst.DueDate)
			sent++
		}
	}
	return sent, nil
}

func (s *service) HasOverdueLocked(ctx context.Context, userID int, today caldate.Date) (bool, error) {
	reqs, err := s.repo.ListApprovedByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, r := range reqs {
		if HasOverdueLocked(r, today) {
			return true, nil
		}
	}
	return false, nil
}
