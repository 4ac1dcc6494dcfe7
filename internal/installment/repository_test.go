package installment

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRequestMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

var requestColumnList = []string{
	"id", "user_id", "package_id", "status", "has_installments", "all_installments_paid",
	"installment_1_amount_cents", "installment_1_due_date", "installment_1_paid", "installment_1_paid_at", "installment_1_method", "installment_1_locked",
	"installment_2_amount_cents", "installment_2_due_date", "installment_2_paid", "installment_2_paid_at", "installment_2_method", "installment_2_locked",
	"installment_3_amount_cents", "installment_3_due_date", "installment_3_paid", "installment_3_paid_at", "installment_3_method", "installment_3_locked", "installment_3_deleted",
	"created_at", "updated_at",
}

// threeInstallmentRow returns request 5 for user 11 with the first
// installment paid and two outstanding.
func threeInstallmentRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(requestColumnList).AddRow(
		5, 11, 3, "approved", true, false,
		10000, "2026-03-01", true, now, "cash", false,
		10000, "2026-03-10", false, nil, nil, false,
		10000, "2026-03-20", false, nil, nil, true, false,
		now, now,
	)
}

func TestRecordPayment_MarksPaidAndWritesCashRow(t *testing.T) {
	repo, mock, close := setupRequestMock(t)
	defer close()

	now := time.Date(2026, 3, 12, 10, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM membership_requests WHERE id = \\$1 FOR UPDATE").
		WithArgs(5).
		WillReturnRows(threeInstallmentRow(now))
	mock.ExpectExec("UPDATE membership_requests SET").
		WithArgs(int64(10000), now, "cash", false, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO cash_transactions").
		WithArgs(11, 5, 2, int64(10000), "cash", now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	req, err := repo.RecordPayment(context.Background(), 5, 2, 10000, MethodCash, now)
	require.NoError(t, err)
	assert.True(t, req.Paid2)
	assert.False(t, req.AllInstallmentsPaid, "third installment still outstanding")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPayment_CorrectsAmountToCollected(t *testing.T) {
	repo, mock, close := setupRequestMock(t)
	defer close()

	now := time.Date(2026, 3, 12, 10, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM membership_requests WHERE id = \\$1 FOR UPDATE").
		WithArgs(5).
		WillReturnRows(threeInstallmentRow(now))
	mock.ExpectExec("UPDATE membership_requests SET").
		WithArgs(int64(8000), now, "pos", false, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO cash_transactions").
		WithArgs(11, 5, 2, int64(8000), "pos", now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	// The plan said 10000 but the register collected 8000. The stored
	// installment amount follows the register.
	req, err := repo.RecordPayment(context.Background(), 5, 2, 8000, MethodPOS, now)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), req.Amount2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPayment_FinalInstallmentSetsRollup(t *testing.T) {
	repo, mock, close := setupRequestMock(t)
	defer close()

	now := time.Date(2026, 3, 22, 10, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows(requestColumnList).AddRow(
		5, 11, 3, "approved", true, false,
		10000, "2026-03-01", true, now, "cash", false,
		10000, "2026-03-10", true, now, "pos", false,
		10000, "2026-03-20", false, nil, nil, true, false,
		now, now,
	)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM membership_requests WHERE id = \\$1 FOR UPDATE").
		WithArgs(5).
		WillReturnRows(rows)
	mock.ExpectExec("UPDATE membership_requests SET").
		WithArgs(int64(10000), now, "pos", true, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO cash_transactions").
		WithArgs(11, 5, 3, int64(10000), "pos", now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	req, err := repo.RecordPayment(context.Background(), 5, 3, 10000, MethodPOS, now)
	require.NoError(t, err)
	assert.True(t, req.AllInstallmentsPaid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPayment_AlreadyPaidRollsBack(t *testing.T) {
	repo, mock, close := setupRequestMock(t)
	defer close()

	now := time.Date(2026, 3, 12, 10, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM membership_requests WHERE id = \\$1 FOR UPDATE").
		WithArgs(5).
		WillReturnRows(threeInstallmentRow(now))
	mock.ExpectRollback()

	_, err := repo.RecordPayment(context.Background(), 5, 1, 10000, MethodCash, now)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPayment_RejectsOutOfRangeNumber(t *testing.T) {
	repo, _, close := setupRequestMock(t)
	defer close()

	_, err := repo.RecordPayment(context.Background(), 5, 4, 10000, MethodCash, time.Now())
	assert.ErrorIs(t, err, ErrInstallmentNotFound)
}

func TestDeleteThirdInstallment_RecomputesRollup(t *testing.T) {
	repo, mock, close := setupRequestMock(t)
	defer close()

	now := time.Date(2026, 3, 25, 10, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows(requestColumnList).AddRow(
		5, 11, 3, "approved", true, false,
		10000, "2026-03-01", true, now, "cash", false,
		10000, "2026-03-10", true, now, "cash", false,
		10000, "2026-03-20", false, nil, nil, true, false,
		now, now,
	)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM membership_requests WHERE id = \\$1 FOR UPDATE").
		WithArgs(5).
		WillReturnRows(rows)
	mock.ExpectExec("UPDATE membership_requests SET installment_3_deleted = TRUE").
		WithArgs(true, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteThirdInstallment(context.Background(), 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteThirdInstallment_RefusesPaid(t *testing.T) {
	repo, mock, close := setupRequestMock(t)
	defer close()

	now := time.Date(2026, 3, 25, 10, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows(requestColumnList).AddRow(
		5, 11, 3, "approved", true, true,
		10000, "2026-03-01", true, now, "cash", false,
		10000, "2026-03-10", true, now, "cash", false,
		10000, "2026-03-20", true, now, "cash", true, false,
		now, now,
	)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM membership_requests WHERE id = \\$1 FOR UPDATE").
		WithArgs(5).
		WillReturnRows(rows)
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.DeleteThirdInstallment(context.Background(), 5), ErrAlreadyPaid)
	require.NoError(t, mock.ExpectationsWereMet())
}
