package installment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gymdesk/internal/caldate"
)

var (
	ErrRequestNotFound     = errors.New("membership request not found")
	ErrInstallmentNotFound = errors.New("installment not found")
	ErrAlreadyPaid         = errors.New("installment already paid")
	ErrInstallmentDeleted  = errors.New("installment deleted")
	ErrTooManyInstallments = errors.New("a request supports at most three installments")
)

const requestColumns = `id, user_id, package_id, status, has_installments, all_installments_paid,
	installment_1_amount_cents, installment_1_due_date, installment_1_paid, installment_1_paid_at, installment_1_method, installment_1_locked,
	installment_2_amount_cents, installment_2_due_date, installment_2_paid, installment_2_paid_at, installment_2_method, installment_2_locked,
	installment_3_amount_cents, installment_3_due_date, installment_3_paid, installment_3_paid_at, installment_3_method, installment_3_locked, installment_3_deleted,
	created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, userID, packageID int, plan []PlannedInstallment) (*Request, error) {
	if len(plan) > 3 {
		return nil, ErrTooManyInstallments
	}

	amounts := [3]int64{}
	dues := [3]caldate.Date{}
	locked := [3]bool{}
	for i, p := range plan {
		amounts[i] = p.AmountCents
		dues[i] = p.DueDate
		locked[i] = p.Locked
	}

	query := `INSERT INTO membership_requests
		(user_id, package_id, status, has_installments,
		 installment_1_amount_cents, installment_1_due_date, installment_1_locked,
		 installment_2_amount_cents, installment_2_due_date, installment_2_locked,
		 installment_3_amount_cents, installment_3_due_date, installment_3_locked)
		VALUES ($1, $2, 'pending', $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + requestColumns

	var req Request
	err := r.db.QueryRowxContext(ctx, query,
		userID, packageID, len(plan) > 0,
		amounts[0], dues[0], locked[0],
		amounts[1], dues[1], locked[1],
		amounts[2], dues[2], locked[2],
	).StructScan(&req)
	if err != nil {
		return nil, fmt.Errorf("creating membership request: %w", err)
	}
	return &req, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Request, error) {
	var req Request
	query := `SELECT ` + requestColumns + ` FROM membership_requests WHERE id = $1`
	err := r.db.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching membership request: %w", err)
	}
	return &req, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Request, error) {
	reqs := []Request{}
	query := `SELECT ` + requestColumns + ` FROM membership_requests WHERE user_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &reqs, query, userID); err != nil {
		return nil, fmt.Errorf("listing membership requests: %w", err)
	}
	return reqs, nil
}

func (r *repository) ListByStatus(ctx context.Context, status RequestStatus) ([]Request, error) {
	reqs := []Request{}
	query := `SELECT ` + requestColumns + ` FROM membership_requests WHERE status = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &reqs, query, status); err != nil {
		return nil, fmt.Errorf("listing membership requests by status: %w", err)
	}
	return reqs, nil
}

func (r *repository) ListApprovedByUser(ctx context.Context, userID int) ([]Request, error) {
	reqs := []Request{}
	query := `SELECT ` + requestColumns + ` FROM membership_requests WHERE user_id = $1 AND status = 'approved' ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &reqs, query, userID); err != nil {
		return nil, fmt.Errorf("listing approved requests: %w", err)
	}
	return reqs, nil
}

func (r *repository) SetStatus(ctx context.Context, id int, status RequestStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE membership_requests SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	if err != nil {
		return fmt.Errorf("updating request status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking request update: %w", err)
	}
	if rows == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// RecordPayment marks one installment as paid inside a transaction, corrects
// its amount to what the register actually collected, writes the matching
// cash register row, and recomputes the all-paid rollup from the updated
// state. The request row is locked for the duration so two concurrent
// payments cannot interleave.
func (r *repository) RecordPayment(ctx context.Context, requestID, number int, amountCents int64, method Method, now time.Time) (*Request, error) {
	if number < 1 || number > 3 {
		return nil, ErrInstallmentNotFound
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning payment transaction: %w", err)
	}
	defer tx.Rollback()

	var req Request
	query := `SELECT ` + requestColumns + ` FROM membership_requests WHERE id = $1 FOR UPDATE`
	err = tx.GetContext(ctx, &req, query, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("locking membership request: %w", err)
	}

	target := req.Installments()[number-1]
	if target.Deleted {
		return nil, ErrInstallmentDeleted
	}
	if target.AmountCents <= 0 {
		return nil, ErrInstallmentNotFound
	}
	if target.Paid {
		return nil, ErrAlreadyPaid
	}

	switch number {
	case 1:
		req.Amount1, req.Paid1, req.PaidAt1, req.Method1 = amountCents, true, &now, &method
	case 2:
		req.Amount2, req.Paid2, req.PaidAt2, req.Method2 = amountCents, true, &now, &method
	case 3:
		req.Amount3, req.Paid3, req.PaidAt3, req.Method3 = amountCents, true, &now, &method
	}
	req.AllInstallmentsPaid = AllPaid(req)

	update := fmt.Sprintf(`UPDATE membership_requests SET
		installment_%d_amount_cents = $1,
		installment_%d_paid = TRUE,
		installment_%d_paid_at = $2,
		installment_%d_method = $3,
		all_installments_paid = $4,
		updated_at = NOW()
		WHERE id = $5`, number, number, number, number)
	if _, err := tx.ExecContext(ctx, update, amountCents, now, method, req.AllInstallmentsPaid, requestID); err != nil {
		return nil, fmt.Errorf("recording installment payment: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cash_transactions (user_id, request_id, installment_number, amount_cents, method, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		req.UserID, requestID, number, amountCents, method, now)
	if err != nil {
		return nil, fmt.Errorf("writing cash register row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing payment: %w", err)
	}
	req.UpdatedAt = now
	return &req, nil
}

// DeleteThirdInstallment soft-deletes the optional third installment and
// recomputes the all-paid rollup over the survivors, so a request whose
// first two installments are settled becomes fully paid the moment the
// third is removed. A paid installment is immutable and cannot be removed.
func (r *repository) DeleteThirdInstallment(ctx context.Context, requestID int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	var req Request
	query := `SELECT ` + requestColumns + ` FROM membership_requests WHERE id = $1 FOR UPDATE`
	err = tx.GetContext(ctx, &req, query, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRequestNotFound
	}
	if err != nil {
		return fmt.Errorf("locking membership request: %w", err)
	}
	if req.Paid3 {
		return ErrAlreadyPaid
	}

	req.Deleted3 = true
	req.AllInstallmentsPaid = AllPaid(req)

	_, err = tx.ExecContext(ctx,
		`UPDATE membership_requests SET installment_3_deleted = TRUE, all_installments_paid = $1, updated_at = NOW() WHERE id = $2`,
		req.AllInstallmentsPaid, requestID)
	if err != nil {
		return fmt.Errorf("deleting third installment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing installment delete: %w", err)
	}
	return nil
}
