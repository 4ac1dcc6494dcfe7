package membership

import (
	"context"
	"testing"
	"time"

	"gymdesk/internal/caldate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepo struct{ mock.Mock }

func (m *MockRepo) Create(ctx context.Context, userID, packageID int, ptype PackageType, start, end caldate.Date, sourceRequestID *int) (*Membership, error) {
	args := m.Called(ctx, userID, packageID, ptype, start, end, sourceRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Membership), args.Error(1)
}

func (m *MockRepo) GetByID(ctx context.Context, id int) (*Membership, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Membership), args.Error(1)
}

func (m *MockRepo) ListByUser(ctx context.Context, userID int) ([]Membership, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Membership), args.Error(1)
}

func (m *MockRepo) ListRefillable(ctx context.Context, today caldate.Date) ([]Membership, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Membership), args.Error(1)
}

func (m *MockRepo) SyncStoredStatus(ctx context.Context, id int, status Status, isActive bool) error {
	return m.Called(ctx, id, status, isActive).Error(0)
}

func (m *MockRepo) ListStale(ctx context.Context, today caldate.Date) ([]Membership, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Membership), args.Error(1)
}

func (m *MockRepo) ListPackages(ctx context.Context) ([]Package, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Package), args.Error(1)
}

func (m *MockRepo) GetPackageByID(ctx context.Context, id int) (*Package, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Package), args.Error(1)
}

type MockDeposits struct{ mock.Mock }

func (m *MockDeposits) RemainingForUser(ctx context.Context, userID int) (*int, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int), args.Error(1)
}

func TestListWithDerived_AttachesStatus(t *testing.T) {
	repo := new(MockRepo)
	deposits := new(MockDeposits)
	svc := NewService(repo, deposits)

	today := caldate.New(2026, time.January, 15)
	repo.On("ListByUser", mock.Anything, 10).Return([]Membership{
		activeMembership(PackageFreeGym),
		{
			ID:          2,
			UserID:      10,
			PackageType: PackageFreeGym,
			StartDate:   caldate.New(2025, time.November, 1),
			EndDate:     caldate.New(2025, time.November, 30),
			IsActive:    true,
			Status:      StatusActive,
		},
	}, nil)

	out, err := svc.ListWithDerived(context.Background(), 10, today)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.True(t, out[0].Derived.IsActive)
	assert.False(t, out[1].Derived.IsActive)
	assert.Equal(t, StatusExpired, out[1].Derived.Status)

	// No consumable package in the list, so the deposit is never loaded.
	deposits.AssertNotCalled(t, "RemainingForUser", mock.Anything, mock.Anything)
}

func TestListWithDerived_LoadsDepositForPilates(t *testing.T) {
	repo := new(MockRepo)
	deposits := new(MockDeposits)
	svc := NewService(repo, deposits)

	today := caldate.New(2026, time.January, 15)
	repo.On("ListByUser", mock.Anything, 10).Return([]Membership{
		activeMembership(PackagePilates),
	}, nil)
	zero := 0
	deposits.On("RemainingForUser", mock.Anything, 10).Return(&zero, nil)

	out, err := svc.ListWithDerived(context.Background(), 10, today)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.False(t, out[0].Derived.IsActive)
	assert.Contains(t, out[0].Derived.Reason, "exhausted")
}

func TestHasActiveMembership(t *testing.T) {
	repo := new(MockRepo)
	deposits := new(MockDeposits)
	svc := NewService(repo, deposits)

	today := caldate.New(2026, time.January, 15)
	repo.On("ListByUser", mock.Anything, 10).Return([]Membership{
		activeMembership(PackageUltimate),
	}, nil)

	ok, err := svc.HasActiveMembership(context.Background(), 10, today)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasActiveMembership_NoneActive(t *testing.T) {
	repo := new(MockRepo)
	deposits := new(MockDeposits)
	svc := NewService(repo, deposits)

	today := caldate.New(2026, time.March, 15)
	repo.On("ListByUser", mock.Anything, 10).Return([]Membership{
		activeMembership(PackageFreeGym), // ends 2026-01-31
	}, nil)

	ok, err := svc.HasActiveMembership(context.Background(), 10, today)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUsesDepositToday(t *testing.T) {
	today := caldate.New(2026, time.January, 15)

	t.Run("ultimate member draws from the deposit", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, new(MockDeposits))
		repo.On("ListByUser", mock.Anything, 10).Return([]Membership{
			activeMembership(PackageUltimate),
		}, nil)

		uses, err := svc.UsesDepositToday(context.Background(), 10, today)
		require.NoError(t, err)
		assert.True(t, uses)
	})

	t.Run("free gym member does not", func(t *testing.T) {
		repo := new(MockRepo)
		svc := NewService(repo, new(MockDeposits))
		repo.On("ListByUser", mock.Anything, 10).Return([]Membership{
			activeMembership(PackageFreeGym),
		}, nil)

		uses, err := svc.UsesDepositToday(context.Background(), 10, today)
		require.NoError(t, err)
		assert.False(t, uses)
	})

	t.Run("expired deposit plan does not", func(t *testing.T) {
		repo := new(MockRepo)
		deposits := new(MockDeposits)
		svc := NewService(repo, deposits)
		one := 1
		repo.On("ListByUser", mock.Anything, 10).Return([]Membership{
			activeMembership(PackageUltimate), // ends 2026-01-31
		}, nil)
		deposits.On("RemainingForUser", mock.Anything, 10).Return(&one, nil).Maybe()

		uses, err := svc.UsesDepositToday(context.Background(), 10, caldate.New(2026, time.March, 15))
		require.NoError(t, err)
		assert.False(t, uses)
	})
}

func TestSyncStatuses_RepairsStaleRows(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, new(MockDeposits))

	today := caldate.New(2026, time.February, 10)
	stale := activeMembership(PackageFreeGym) // ended 2026-01-31, flags still active
	repo.On("ListStale", mock.Anything, today).Return([]Membership{stale}, nil)
	repo.On("SyncStoredStatus", mock.Anything, stale.ID, StatusExpired, false).Return(nil)

	fixed, err := svc.SyncStatuses(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)
	repo.AssertExpectations(t)
}
