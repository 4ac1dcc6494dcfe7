package membership

import (
	"time"

	"gymdesk/internal/caldate"
)

type PackageType string

const (
	PackageFreeGym        PackageType = "free_gym"
	PackagePilates        PackageType = "pilates"
	PackageUltimate       PackageType = "ultimate"
	PackageUltimateMedium PackageType = "ultimate_medium"
)

// UsesDeposit reports whether the package grants a Pilates credit balance.
func (p PackageType) UsesDeposit() bool {
	return p == PackagePilates || p == PackageUltimate || p == PackageUltimateMedium
}

// Consumable reports whether the deposit is a fixed bucket bought up front
// and never refilled. Ultimate tiers refill weekly instead, so running the
// balance to zero does not end the membership for them.
func (p PackageType) Consumable() bool {
	return p == PackagePilates
}

// RefillTarget returns the balance a weekly refill tops the deposit up to,
// or 0 for packages with no weekly refill.
func (p PackageType) RefillTarget() int {
	switch p {
	case PackageUltimate:
		return 3
	case PackageUltimateMedium:
		return 1
	default:
		return 0
	}
}

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// Package is immutable reference data describing a sellable membership tier.
type Package struct {
	ID          int         `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	PackageType PackageType `db:"package_type" json:"package_type"`
	PriceCents  int64       `db:"price_cents" json:"price_cents"`
	// DepositCredits sizes the Pilates bucket granted on approval.
	DepositCredits int       `db:"deposit_credits" json:"deposit_credits"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Membership is one row of the renewal chain. Stored status and is_active
// can go stale; EvaluateStatus derives the truth from the dates.
type Membership struct {
	ID              int          `db:"id" json:"id"`
	UserID          int          `db:"user_id" json:"user_id"`
	PackageID       int          `db:"package_id" json:"package_id"`
	PackageType     PackageType  `db:"package_type" json:"package_type"`
	StartDate       caldate.Date `db:"start_date" json:"start_date"`
	EndDate         caldate.Date `db:"end_date" json:"end_date"`
	IsActive        bool         `db:"is_active" json:"is_active"`
	Status          Status       `db:"status" json:"status"`
	SourceRequestID *int         `db:"source_request_id" json:"source_request_id,omitempty"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
}

// MembershipWithStatus pairs a stored row with its derived status.
type MembershipWithStatus struct {
	Membership
	Derived StatusResult `json:"derived"`
}
