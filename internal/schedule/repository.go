package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gymdesk/internal/caldate"
	"gymdesk/internal/deposit"
)

var (
	ErrSlotNotFound    = errors.New("slot not found")
	ErrSlotInactive    = errors.New("slot is not active")
	ErrSlotFull        = errors.New("slot is fully booked")
	ErrAlreadyBooked   = errors.New("already booked on this slot")
	ErrBookingNotFound = errors.New("booking not found")
)

const uniqueViolation = "23505"

const slotColumns = `id, date, start_time, end_time, max_capacity, is_active, created_at`
const bookingColumns = `id, user_id, slot_id, status, credit_spent, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateSlot(ctx context.Context, date caldate.Date, startTime, endTime string, maxCapacity int) (*Slot, error) {
	var slot Slot
	query := `INSERT INTO pilates_schedule_slots (date, start_time, end_time, max_capacity)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + slotColumns
	err := r.db.QueryRowxContext(ctx, query, date, startTime, endTime, maxCapacity).StructScan(&slot)
	if err != nil {
		return nil, fmt.Errorf("creating schedule slot: %w", err)
	}
	return &slot, nil
}

func (r *repository) GetSlot(ctx context.Context, id int) (*Slot, error) {
	var slot Slot
	query := `SELECT ` + slotColumns + ` FROM pilates_schedule_slots WHERE id = $1`
	err := r.db.GetContext(ctx, &slot, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching schedule slot: %w", err)
	}
	return &slot, nil
}

func (r *repository) ListSlots(ctx context.Context, from, to caldate.Date) ([]SlotWithOccupancy, error) {
	slots := []SlotWithOccupancy{}
	query := `SELECT s.id, s.date, s.start_time, s.end_time, s.max_capacity, s.is_active, s.created_at,
			COUNT(b.id) FILTER (WHERE b.status = 'confirmed') AS booked_count
		FROM pilates_schedule_slots s
		LEFT JOIN pilates_bookings b ON b.slot_id = s.id
		WHERE s.is_active = TRUE AND s.date BETWEEN $1 AND $2
		GROUP BY s.id
		ORDER BY s.date ASC, s.start_time ASC`
	if err := r.db.SelectContext(ctx, &slots, query, from, to); err != nil {
		return nil, fmt.Errorf("listing schedule slots: %w", err)
	}
	for i := range slots {
		slots[i].Occupancy = Occupancy(slots[i].BookedCount, slots[i].MaxCapacity)
	}
	return slots, nil
}

func (r *repository) SetSlotActive(ctx context.Context, id int, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE pilates_schedule_slots SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("updating schedule slot: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking slot update: %w", err)
	}
	if rows == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *repository) Book(ctx context.Context, userID, slotID int, spendCredit bool) (*Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning booking transaction: %w", err)
	}
	defer tx.Rollback()

	var slot Slot
	err = tx.GetContext(ctx, &slot,
		`SELECT `+slotColumns+` FROM pilates_schedule_slots WHERE id = $1 FOR UPDATE`, slotID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("locking schedule slot: %w", err)
	}
	if !slot.IsActive {
		return nil, ErrSlotInactive
	}

	var booked int
	err = tx.GetContext(ctx, &booked,
		`SELECT COUNT(*) FROM pilates_bookings WHERE slot_id = $1 AND status = 'confirmed'`, slotID)
	if err != nil {
		return nil, fmt.Errorf("counting confirmed bookings: %w", err)
	}
	if booked >= slot.MaxCapacity {
		return nil, ErrSlotFull
	}

	var booking Booking
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO pilates_bookings (user_id, slot_id, status, credit_spent) VALUES ($1, $2, 'confirmed', $3)
		 RETURNING `+bookingColumns, userID, slotID, spendCredit).StructScan(&booking)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrAlreadyBooked
		}
		return nil, fmt.Errorf("inserting booking: %w", err)
	}

	if spendCredit {
		result, err := tx.ExecContext(ctx,
			`UPDATE pilates_deposits SET remaining = remaining - 1, updated_at = NOW()
			 WHERE user_id = $1 AND is_active = TRUE AND remaining > 0`, userID)
		if err != nil {
			return nil, fmt.Errorf("spending deposit credit: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("checking deposit spend: %w", err)
		}
		if rows == 0 {
			return nil, deposit.ErrNoCredits
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing booking: %w", err)
	}
	return &booking, nil
}

func (r *repository) GetConfirmedBooking(ctx context.Context, userID, slotID int) (*Booking, error) {
	var booking Booking
	query := `SELECT ` + bookingColumns + ` FROM pilates_bookings
		WHERE user_id = $1 AND slot_id = $2 AND status = 'confirmed'`
	err := r.db.GetContext(ctx, &booking, query, userID, slotID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching booking: %w", err)
	}
	return &booking, nil
}

func (r *repository) GetBooking(ctx context.Context, id int) (*Booking, error) {
	var booking Booking
	query := `SELECT ` + bookingColumns + ` FROM pilates_bookings WHERE id = $1`
	err := r.db.GetContext(ctx, &booking, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching booking: %w", err)
	}
	return &booking, nil
}

func (r *repository) ListBookingsByUser(ctx context.Context, userID int) ([]BookingWithSlot, error) {
	bookings := []BookingWithSlot{}
	query := `SELECT b.id, b.user_id, b.slot_id, b.status, b.credit_spent, b.created_at, b.updated_at,
			s.date, s.start_time, s.end_time
		FROM pilates_bookings b
		JOIN pilates_schedule_slots s ON s.id = b.slot_id
		WHERE b.user_id = $1
		ORDER BY s.date DESC, s.start_time DESC`
	if err := r.db.SelectContext(ctx, &bookings, query, userID); err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	return bookings, nil
}

func (r *repository) Cancel(ctx context.Context, bookingID, userID int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning cancel transaction: %w", err)
	}
	defer tx.Rollback()

	var creditSpent bool
	err = tx.QueryRowxContext(ctx,
		`UPDATE pilates_bookings SET status = 'cancelled', updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND status = 'confirmed'
		 RETURNING credit_spent`, bookingID, userID).Scan(&creditSpent)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBookingNotFound
	}
	if err != nil {
		return fmt.Errorf("cancelling booking: %w", err)
	}

	if creditSpent {
		_, err = tx.ExecContext(ctx,
			`UPDATE pilates_deposits SET remaining = remaining + 1, updated_at = NOW()
			 WHERE user_id = $1 AND is_active = TRUE`, userID)
		if err != nil {
			return fmt.Errorf("refunding deposit credit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cancel: %w", err)
	}
	return nil
}
