package deposit

import (
	"context"
	"time"

	"gymdesk/internal/caldate"
)

type Repository interface {
	GetByUser(ctx context.Context, userID int) (*Deposit, error)
	// GetOrCreate returns the user's deposit, creating an empty one if
	// none exists yet.
	GetOrCreate(ctx context.Context, userID int) (*Deposit, error)
	// Grant sets the balance to credits (a purchase/renewal top-up, not a
	// weekly refill).
	Grant(ctx context.Context, userID, credits int) (*Deposit, error)
	// ApplyRefill commits a refill decision. The deposit_refills unique
	// index on (membership_id, cycle_start) is the idempotence guard:
	// a second commit for the same cycle returns ErrAlreadyRefilled and
	// changes nothing.
	ApplyRefill(ctx context.Context, membershipID, userID, newBalance int, cycleStart caldate.Date, now time.Time) error
	// Spend consumes one credit; ErrNoCredits when the balance is empty.
	Spend(ctx context.Context, userID int) error
	// Refund returns one credit after a cancelled booking.
	Refund(ctx context.Context, userID int) error
	// RemainingForUser returns the balance or nil when the user has no
	// deposit row. Satisfies membership.DepositLookup.
	RemainingForUser(ctx context.Context, userID int) (*int, error)
}
