package deposit

import "time"

// Deposit is a user's Pilates class credit balance. For Ultimate tiers it
// is topped up weekly; for plain Pilates packages it is a bucket sized at
// purchase and only spent. Remaining never goes below zero.
type Deposit struct {
	ID           int        `db:"id" json:"id"`
	UserID       int        `db:"user_id" json:"user_id"`
	Remaining    int        `db:"remaining" json:"remaining"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastRefillAt *time.Time `db:"last_refill_at" json:"last_refill_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
