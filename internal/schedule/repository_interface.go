package schedule

import (
	"context"

	"gymdesk/internal/caldate"
)

type Repository interface {
	CreateSlot(ctx context.Context, date caldate.Date, startTime, endTime string, maxCapacity int) (*Slot, error)
	GetSlot(ctx context.Context, id int) (*Slot, error)
	// ListSlots returns active slots in [from, to] with confirmed booking
	// counts.
	ListSlots(ctx context.Context, from, to caldate.Date) ([]SlotWithOccupancy, error)
	SetSlotActive(ctx context.Context, id int, active bool) error

	// Book inserts a confirmed booking under a slot row lock so the
	// capacity check and the insert cannot interleave with a concurrent
	// booking. With spendCredit it also consumes one deposit credit in
	// the same transaction.
	Book(ctx context.Context, userID, slotID int, spendCredit bool) (*Booking, error)
	GetConfirmedBooking(ctx context.Context, userID, slotID int) (*Booking, error)
	GetBooking(ctx context.Context, id int) (*Booking, error)
	ListBookingsByUser(ctx context.Context, userID int) ([]BookingWithSlot, error)
	// Cancel flips a confirmed booking of the user to cancelled. When the
	// booking spent a deposit credit the credit is returned in the same
	// transaction.
	Cancel(ctx context.Context, bookingID, userID int) error
}
