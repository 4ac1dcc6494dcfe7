package referral

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var (
	ErrAccountNotFound    = errors.New("referral account not found")
	ErrInsufficientPoints = errors.New("insufficient referral points")
	ErrOwnCode            = errors.New("cannot apply your own referral code")
)

const accountColumns = `id, user_id, code, points, created_at, updated_at`

type Repository interface {
	GetOrCreate(ctx context.Context, userID int) (*Account, error)
	GetByCode(ctx context.Context, code string) (*Account, error)
	// Apply moves the balance by delta under a row lock and appends the
	// matching ledger entry. A negative delta that would take the balance
	// below zero fails with ErrInsufficientPoints.
	Apply(ctx context.Context, userID, delta int, reason string) (*Account, error)
	ListTransactions(ctx context.Context, userID, limit int) ([]Transaction, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func newCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating referral code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (r *repository) GetOrCreate(ctx context.Context, userID int) (*Account, error) {
	var acc Account
	query := `SELECT ` + accountColumns + ` FROM referral_accounts WHERE user_id = $1`
	err := r.db.GetContext(ctx, &acc, query, userID)
	if err == nil {
		return &acc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fetching referral account: %w", err)
	}

	code, err := newCode()
	if err != nil {
		return nil, err
	}
	insert := `INSERT INTO referral_accounts (user_id, code)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING ` + accountColumns
	if err := r.db.QueryRowxContext(ctx, insert, userID, code).StructScan(&acc); err != nil {
		return nil, fmt.Errorf("creating referral account: %w", err)
	}
	return &acc, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Account, error) {
	var acc Account
	query := `SELECT ` + accountColumns + ` FROM referral_accounts WHERE code = $1`
	err := r.db.GetContext(ctx, &acc, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching referral account by code: %w", err)
	}
	return &acc, nil
}

func (r *repository) Apply(ctx context.Context, userID, delta int, reason string) (*Account, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning referral transaction: %w", err)
	}
	defer tx.Rollback()

	var acc Account
	query := `SELECT ` + accountColumns + ` FROM referral_accounts WHERE user_id = $1 FOR UPDATE`
	err = tx.GetContext(ctx, &acc, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("locking referral account: %w", err)
	}

	newPoints := acc.Points + delta
	if newPoints < 0 {
		return nil, ErrInsufficientPoints
	}

	err = tx.QueryRowxContext(ctx,
		`UPDATE referral_accounts SET points = $1, updated_at = NOW() WHERE user_id = $2 RETURNING `+accountColumns,
		newPoints, userID).StructScan(&acc)
	if err != nil {
		return nil, fmt.Errorf("updating referral points: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO referral_transactions (user_id, delta, reason) VALUES ($1, $2, $3)`,
		userID, delta, reason)
	if err != nil {
		return nil, fmt.Errorf("appending referral ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing referral transaction: %w", err)
	}
	return &acc, nil
}

func (r *repository) ListTransactions(ctx context.Context, userID, limit int) ([]Transaction, error) {
	txs := []Transaction{}
	query := `SELECT id, user_id, delta, reason, created_at FROM referral_transactions
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &txs, query, userID, limit); err != nil {
		return nil, fmt.Errorf("listing referral transactions: %w", err)
	}
	return txs, nil
}
