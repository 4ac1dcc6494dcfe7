package schedule

import (
	"time"

	"gymdesk/internal/caldate"
)

// DefaultCapacity is the room size a slot gets when the admin does not
// override it.
const DefaultCapacity = 4

// Slot is one bookable Pilates class occurrence.
type Slot struct {
	ID          int          `db:"id" json:"id"`
	Date        caldate.Date `db:"date" json:"date"`
	StartTime   string       `db:"start_time" json:"start_time"`
	EndTime     string       `db:"end_time" json:"end_time"`
	MaxCapacity int          `db:"max_capacity" json:"max_capacity"`
	IsActive    bool         `db:"is_active" json:"is_active"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// SlotWithOccupancy decorates a slot with its confirmed booking count and
// the derived occupancy label.
type SlotWithOccupancy struct {
	Slot
	BookedCount int            `db:"booked_count" json:"booked_count"`
	Occupancy   OccupancyLabel `json:"occupancy"`
}

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID     int           `db:"id" json:"id"`
	UserID int           `db:"user_id" json:"user_id"`
	SlotID int           `db:"slot_id" json:"slot_id"`
	Status BookingStatus `db:"status" json:"status"`
	// CreditSpent records whether this booking consumed a deposit credit,
	// so cancellation knows whether to refund one.
	CreditSpent bool      `db:"credit_spent" json:"credit_spent"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// BookingWithSlot is a booking joined with its class details, for member
// facing listings.
type BookingWithSlot struct {
	Booking
	Date      caldate.Date `db:"date" json:"date"`
	StartTime string       `db:"start_time" json:"start_time"`
	EndTime   string       `db:"end_time" json:"end_time"`
}

type OccupancyLabel string

const (
	OccupancyAvailable  OccupancyLabel = "available"
	OccupancyAlmostFull OccupancyLabel = "almost_full"
	OccupancyFull       OccupancyLabel = "full"
)

// Occupancy derives the display label for a slot. The almost-full band
// starts at 80% of capacity rounded down, so a four-person class shows
// almost_full from the third confirmed booking. A slot with no usable
// capacity reports full.
func Occupancy(booked, capacity int) OccupancyLabel {
	if capacity <= 0 || booked >= capacity {
		return OccupancyFull
	}
	if booked >= capacity*8/10 {
		return OccupancyAlmostFull
	}
	return OccupancyAvailable
}
