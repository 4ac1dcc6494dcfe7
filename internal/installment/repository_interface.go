package installment

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, userID, packageID int, plan []PlannedInstallment) (*Request, error)
	GetByID(ctx context.Context, id int) (*Request, error)
	ListByUser(ctx context.Context, userID int) ([]Request, error)
	ListByStatus(ctx context.Context, status RequestStatus) ([]Request, error)
	ListApprovedByUser(ctx context.Context, userID int) ([]Request, error)
	SetStatus(ctx context.Context, id int, status RequestStatus) error
	RecordPayment(ctx context.Context, requestID, number int, amountCents int64, method Method, now time.Time) (*Request, error)
	DeleteThirdInstallment(ctx context.Context, requestID int) error
}
