package membership

import (
	"context"
	"errors"

	"gymdesk/internal/caldate"

	"github.com/jmoiron/sqlx"
)

var ErrMembershipNotFound = errors.New("membership not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const membershipColumns = `id, user_id, package_id, package_type, start_date, end_date, is_active, status, source_request_id, created_at`

func (r *repository) Create(ctx context.Context, userID, packageID int, ptype PackageType, start, end caldate.Date, sourceRequestID *int) (*Membership, error) {
	query := `
		INSERT INTO memberships (user_id, package_id, package_type, start_date, end_date, is_active, status, source_request_id)
		VALUES ($1, $2, $3, $4, $5, true, 'active', $6)
		RETURNING ` + membershipColumns

	var m Membership
	err := r.db.GetContext(ctx, &m, query, userID, packageID, ptype, start, end, sourceRequestID)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE id = $1`

	var m Membership
	err := r.db.GetContext(ctx, &m, query, id)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE user_id = $1
		ORDER BY start_date DESC, id DESC
	`

	var ms []Membership
	err := r.db.SelectContext(ctx, &ms, query, userID)
	if err != nil {
		return nil, err
	}

	return ms, nil
}

func (r *repository) ListRefillable(ctx context.Context, today caldate.Date) ([]Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE package_type IN ('ultimate', 'ultimate_medium')
		  AND is_active = true
		  AND status = 'active'
		  AND start_date <= $1
		  AND end_date >= $1
		ORDER BY id
	`

	var ms []Membership
	err := r.db.SelectContext(ctx, &ms, query, today)
	if err != nil {
		return nil, err
	}

	return ms, nil
}

func (r *repository) SyncStoredStatus(ctx context.Context, id int, status Status, isActive bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE memberships
		SET status = $1, is_active = $2
		WHERE id = $3
	`, status, isActive, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrMembershipNotFound
	}

	return nil
}

func (r *repository) ListStale(ctx context.Context, today caldate.Date) ([]Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE end_date < $1
		  AND (is_active = true OR status = 'active')
		ORDER BY id
	`

	var ms []Membership
	err := r.db.SelectContext(ctx, &ms, query, today)
	if err != nil {
		return nil, err
	}

	return ms, nil
}

func (r *repository) ListPackages(ctx context.Context) ([]Package, error) {
	query := `
		SELECT id, name, package_type, price_cents, deposit_credits, created_at
		FROM membership_packages
		ORDER BY price_cents
	`

	var ps []Package
	err := r.db.SelectContext(ctx, &ps, query)
	if err != nil {
		return nil, err
	}

	return ps, nil
}

func (r *repository) GetPackageByID(ctx context.Context, id int) (*Package, error) {
	query := `
		SELECT id, name, package_type, price_cents, deposit_credits, created_at
		FROM membership_packages
		WHERE id = $1
	`

	var p Package
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		return nil, err
	}

	return &p, nil
}
