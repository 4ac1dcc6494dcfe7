package deposit

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gymdesk/internal/caldate"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrAlreadyRefilled = errors.New("deposit already refilled this cycle")
	ErrNoCredits       = errors.New("no pilates credits remaining")
	ErrDepositNotFound = errors.New("deposit not found")
)

const uniqueViolation = "23505"

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const depositColumns = `id, user_id, remaining, is_active, last_refill_at, created_at, updated_at`

func (r *repository) GetByUser(ctx context.Context, userID int) (*Deposit, error) {
	var d Deposit
	err := r.db.GetContext(ctx, &d, `SELECT `+depositColumns+` FROM pilates_deposits WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDepositNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *repository) GetOrCreate(ctx context.Context, userID int) (*Deposit, error) {
	d, err := r.GetByUser(ctx, userID)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, ErrDepositNotFound) {
		return nil, err
	}

	var created Deposit
	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO pilates_deposits (user_id)
		 VALUES ($1)
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		 RETURNING `+depositColumns,
		userID,
	).StructScan(&created)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) Grant(ctx context.Context, userID, credits int) (*Deposit, error) {
	var d Deposit
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO pilates_deposits (user_id, remaining, is_active)
		 VALUES ($1, $2, true)
		 ON CONFLICT (user_id)
		 DO UPDATE SET remaining = $2, is_active = true, updated_at = NOW()
		 RETURNING `+depositColumns,
		userID, credits,
	).StructScan(&d)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repository) ApplyRefill(ctx context.Context, membershipID, userID, newBalance int, cycleStart caldate.Date, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The unique index is the single source of truth for "this cycle
	// already happened"; two concurrent callers cannot both pass it.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO deposit_refills (membership_id, cycle_start, refilled_at)
		 VALUES ($1, $2, $3)`,
		membershipID, cycleStart, now,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrAlreadyRefilled
		}
		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE pilates_deposits
		 SET remaining = $1, last_refill_at = $2, updated_at = NOW()
		 WHERE user_id = $3`,
		newBalance, now, userID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrDepositNotFound
	}

	return tx.Commit()
}

func (r *repository) Spend(ctx context.Context, userID int) error {
	// Conditional update keeps remaining >= 0 without a read-modify-write
	// race.
	result, err := r.db.ExecContext(ctx,
		`UPDATE pilates_deposits
		 SET remaining = remaining - 1, updated_at = NOW()
		 WHERE user_id = $1 AND is_active = true AND remaining > 0`,
		userID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNoCredits
	}

	return nil
}

func (r *repository) Refund(ctx context.Context, userID int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE pilates_deposits
		 SET remaining = remaining + 1, updated_at = NOW()
		 WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrDepositNotFound
	}

	return nil
}

func (r *repository) RemainingForUser(ctx context.Context, userID int) (*int, error) {
	var remaining int
	err := r.db.GetContext(ctx, &remaining,
		`SELECT remaining FROM pilates_deposits WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &remaining, nil
}
