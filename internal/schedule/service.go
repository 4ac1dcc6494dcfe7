package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymdesk/internal/access"
	"gymdesk/internal/caldate"
	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"
)

var (
	ErrAccessDenied = errors.New("access denied")
	ErrSlotInPast   = errors.New("slot date has passed")
	ErrInvalidSlot  = errors.New("invalid slot definition")
)

// Notifier delivers booking notifications. Wired to the email queue in
// production, nil disables notifications.
type Notifier interface {
	NotifyBooking(ctx context.Context, userID int, slot Slot)
}

// CreditPolicy reports whether the member's current plan draws class
// credits from a deposit. Free Gym bookings bypass the deposit entirely.
type CreditPolicy interface {
	UsesDepositToday(ctx context.Context, userID int, today caldate.Date) (bool, error)
}

type Service interface {
	CreateSlot(ctx context.Context, date caldate.Date, startTime, endTime string, maxCapacity int) (*Slot, error)
	SetSlotActive(ctx context.Context, id int, active bool) error
	ListSlots(ctx context.Context, from, to caldate.Date) ([]SlotWithOccupancy, error)

	// Book places a confirmed booking on the slot. Deposit-backed plans
	// consume one credit, Free Gym plans do not. Booking the same slot
	// twice returns the existing booking unchanged.
	Book(ctx context.Context, userID, slotID int, today caldate.Date) (*Booking, error)
	Cancel(ctx context.Context, userID, bookingID int) error
	MyBookings(ctx context.Context, userID int) ([]BookingWithSlot, error)
}

type service struct {
	repo     Repository
	gate     access.Service
	credits  CreditPolicy
	notifier Notifier
}

func NewService(repo Repository, gate access.Service, credits CreditPolicy, notifier Notifier) Service {
	return &service{repo: repo, gate: gate, credits: credits, notifier: notifier}
}

const timeLayout = "15:04"

func (s *service) CreateSlot(ctx context.Context, date caldate.Date, startTime, endTime string, maxCapacity int) (*Slot, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: missing date", ErrInvalidSlot)
	}
	start, err := time.Parse(timeLayout, startTime)
	if err != nil {
		return nil, fmt.Errorf("%w: bad start time %q", ErrInvalidSlot, startTime)
	}
	end, err := time.Parse(timeLayout, endTime)
	if err != nil {
		return nil, fmt.Errorf("%w: bad end time %q", ErrInvalidSlot, endTime)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrInvalidSlot)
	}
	if maxCapacity <= 0 {
		maxCapacity = DefaultCapacity
	}
	return s.repo.CreateSlot(ctx, date, startTime, endTime, maxCapacity)
}

func (s *service) SetSlotActive(ctx context.Context, id int, active bool) error {
	return s.repo.SetSlotActive(ctx, id, active)
}

func (s *service) ListSlots(ctx context.Context, from, to caldate.Date) ([]SlotWithOccupancy, error) {
	return s.repo.ListSlots(ctx, from, to)
}

func (s *service) Book(ctx context.Context, userID, slotID int, today caldate.Date) (*Booking, error) {
	gate, err := s.gate.Check(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	if !gate.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrAccessDenied, gate.Reason)
	}

	slot, err := s.repo.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if !slot.IsActive {
		return nil, ErrSlotInactive
	}
	if slot.Date.Before(today) {
		return nil, ErrSlotInPast
	}

	if existing, err := s.repo.GetConfirmedBooking(ctx, userID, slotID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrBookingNotFound) {
		return nil, err
	}

	spendCredit, err := s.credits.UsesDepositToday(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Book(ctx, userID, slotID, spendCredit)
	if errors.Is(err, ErrAlreadyBooked) {
		// Lost a race against our own duplicate request.
		return s.repo.GetConfirmedBooking(ctx, userID, slotID)
	}
	if err != nil {
		return nil, err
	}
	metrics.RecordBooking(string(booking.Status))
	if s.notifier != nil {
		s.notifier.NotifyBooking(ctx, userID, *slot)
	}
	logger.Infof("booking %d confirmed for user %d on slot %d", booking.ID, userID, slotID)
	return booking, nil
}

func (s *service) Cancel(ctx context.Context, userID, bookingID int) error {
	if err := s.repo.Cancel(ctx, bookingID, userID); err != nil {
		return err
	}
	metrics.RecordBookingCancellation()
	return nil
}

func (s *service) MyBookings(ctx context.Context, userID int) ([]BookingWithSlot, error) {
	return s.repo.ListBookingsByUser(ctx, userID)
}
