package referral

import (
	"context"
	"fmt"

	"gymdesk/internal/metrics"
)

type Service interface {
	MyAccount(ctx context.Context, userID int) (*Account, error)
	// ApplyCode credits the owner of the code for referring the given
	// user.
	ApplyCode(ctx context.Context, userID int, code string) (*Account, error)
	Award(ctx context.Context, userID, points int, reason string) (*Account, error)
	Redeem(ctx context.Context, userID, points int, reason string) (*Account, error)
	Transactions(ctx context.Context, userID int) ([]Transaction, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) MyAccount(ctx context.Context, userID int) (*Account, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

func (s *service) ApplyCode(ctx context.Context, userID int, code string) (*Account, error) {
	referrer, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if referrer.UserID == userID {
		return nil, ErrOwnCode
	}

	acc, err := s.repo.Apply(ctx, referrer.UserID, SignupAward, fmt.Sprintf("referred user %d", userID))
	if err != nil {
		return nil, err
	}
	metrics.RecordReferralAward()
	return acc, nil
}

func (s *service) Award(ctx context.Context, userID, points int, reason string) (*Account, error) {
	if points <= 0 {
		return nil, fmt.Errorf("award must be positive, got %d", points)
	}
	if _, err := s.repo.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}
	acc, err := s.repo.Apply(ctx, userID, points, reason)
	if err != nil {
		return nil, err
	}
	metrics.RecordReferralAward()
	return acc, nil
}

func (s *service) Redeem(ctx context.Context, userID, points int, reason string) (*Account, error) {
	if points <= 0 {
		return nil, fmt.Errorf("redemption must be positive, got %d", points)
	}
	return s.repo.Apply(ctx, userID, -points, reason)
}

func (s *service) Transactions(ctx context.Context, userID int) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, userID, 100)
}
