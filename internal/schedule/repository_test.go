package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupScheduleMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

var slotColumnList = []string{"id", "date", "start_time", "end_time", "max_capacity", "is_active", "created_at"}
var bookingColumnList = []string{"id", "user_id", "slot_id", "status", "credit_spent", "created_at", "updated_at"}

func activeSlotRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(slotColumnList).AddRow(7, "2026-03-16", "09:00", "10:00", 4, true, now)
}

func TestBook_SpendsCreditInsideTransaction(t *testing.T) {
	repo, mock, close := setupScheduleMock(t)
	defer close()

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM pilates_schedule_slots WHERE id = \\$1 FOR UPDATE").
		WithArgs(7).
		WillReturnRows(activeSlotRow(now))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM pilates_bookings").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("INSERT INTO pilates_bookings").
		WithArgs(11, 7, true).
		WillReturnRows(sqlmock.NewRows(bookingColumnList).AddRow(42, 11, 7, "confirmed", true, now, now))
	mock.ExpectExec("UPDATE pilates_deposits SET remaining = remaining - 1").
		WithArgs(11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	booking, err := repo.Book(context.Background(), 11, 7, true)
	require.NoError(t, err)
	assert.True(t, booking.CreditSpent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBook_WithoutCreditSkipsDeposit(t *testing.T) {
	repo, mock, close := setupScheduleMock(t)
	defer close()

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM pilates_schedule_slots WHERE id = \\$1 FOR UPDATE").
		WithArgs(7).
		WillReturnRows(activeSlotRow(now))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM pilates_bookings").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("INSERT INTO pilates_bookings").
		WithArgs(11, 7, false).
		WillReturnRows(sqlmock.NewRows(bookingColumnList).AddRow(43, 11, 7, "confirmed", false, now, now))
	mock.ExpectCommit()

	// No pilates_deposits statement at all for a credit-free booking.
	booking, err := repo.Book(context.Background(), 11, 7, false)
	require.NoError(t, err)
	assert.False(t, booking.CreditSpent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBook_FullSlotRollsBack(t *testing.T) {
	repo, mock, close := setupScheduleMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM pilates_schedule_slots WHERE id = \\$1 FOR UPDATE").
		WithArgs(7).
		WillReturnRows(activeSlotRow(time.Now()))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM pilates_bookings").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectRollback()

	_, err := repo.Book(context.Background(), 11, 7, true)
	assert.ErrorIs(t, err, ErrSlotFull)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_RefundsWhenBookingSpentCredit(t *testing.T) {
	repo, mock, close := setupScheduleMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE pilates_bookings SET status = 'cancelled'").
		WithArgs(42, 11).
		WillReturnRows(sqlmock.NewRows([]string{"credit_spent"}).AddRow(true))
	mock.ExpectExec("UPDATE pilates_deposits SET remaining = remaining \\+ 1").
		WithArgs(11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Cancel(context.Background(), 42, 11))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_NoRefundForCreditFreeBooking(t *testing.T) {
	repo, mock, close := setupScheduleMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE pilates_bookings SET status = 'cancelled'").
		WithArgs(43, 11).
		WillReturnRows(sqlmock.NewRows([]string{"credit_spent"}).AddRow(false))
	mock.ExpectCommit()

	require.NoError(t, repo.Cancel(context.Background(), 43, 11))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_MissingBooking(t *testing.T) {
	repo, mock, close := setupScheduleMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE pilates_bookings SET status = 'cancelled'").
		WithArgs(99, 11).
		WillReturnRows(sqlmock.NewRows([]string{"credit_spent"}))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Cancel(context.Background(), 99, 11), ErrBookingNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
