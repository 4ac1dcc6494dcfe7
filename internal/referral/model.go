package referral

import "time"

// Account holds a member's referral code and points balance. The balance
// is derived state; the transactions table is the source of truth.
type Account struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Code      string    `db:"code" json:"code"`
	Points    int       `db:"points" json:"points"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is one append-only ledger entry. Positive delta awards
// points, negative delta redeems them.
type Transaction struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Delta     int       `db:"delta" json:"delta"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SignupAward is what a referrer earns when a new member applies their
// code.
const SignupAward = 10
