package access

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Checkin is one recorded gate decision, allowed or not.
type Checkin struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Allowed   bool      `db:"allowed" json:"allowed"`
	Reason    string    `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Repository interface {
	Record(ctx context.Context, userID int, allowed bool, reason string) (*Checkin, error)
	ListByUser(ctx context.Context, userID, limit int) ([]Checkin, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Record(ctx context.Context, userID int, allowed bool, reason string) (*Checkin, error) {
	var ci Checkin
	query := `INSERT INTO check_ins (user_id, allowed, reason)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, allowed, reason, created_at`
	err := r.db.QueryRowxContext(ctx, query, userID, allowed, reason).StructScan(&ci)
	if err != nil {
		return nil, fmt.Errorf("recording check-in: %w", err)
	}
	return &ci, nil
}

func (r *repository) ListByUser(ctx context.Context, userID, limit int) ([]Checkin, error) {
	checkins := []Checkin{}
	query := `SELECT id, user_id, allowed, reason, created_at FROM check_ins
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &checkins, query, userID, limit); err != nil {
		return nil, fmt.Errorf("listing check-ins: %w", err)
	}
	return checkins, nil
}
