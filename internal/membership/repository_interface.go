package membership

import (
	"context"

	"gymdesk/internal/caldate"
)

type Repository interface {
	Create(ctx context.Context, userID, packageID int, ptype PackageType, start, end caldate.Date, sourceRequestID *int) (*Membership, error)
	GetByID(ctx context.Context, id int) (*Membership, error)
	ListByUser(ctx context.Context, userID int) ([]Membership, error)
	// ListRefillable returns memberships of weekly-refill package types
	// whose stored flags and date range cover the given day.
	ListRefillable(ctx context.Context, today caldate.Date) ([]Membership, error)
	SyncStoredStatus(ctx context.Context, id int, status Status, isActive bool) error
	// ListStale returns rows whose stored flags say active although the
	// end date has passed.
	ListStale(ctx context.Context, today caldate.Date) ([]Membership, error)

	ListPackages(ctx context.Context) ([]Package, error)
	GetPackageByID(ctx context.Context, id int) (*Package, error)
}
