package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/vet-consult-scheduling/internal/calendar"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	// ErrSlotTaken means another booking already holds (vet, date, start).
	ErrSlotTaken = errors.New("time slot already booked")
	// ErrStatusChanged means a conditional transition matched no row because
	// the booking left the expected status.
	ErrStatusChanged = errors.New("booking status changed")
	// ErrNotLinkable means the booking is not confirmed or already has a consultation.
	ErrNotLinkable = errors.New("booking cannot be linked to a consultation")
)

// SuccessorFunc builds the replacement booking from the locked original.
// Returning an error aborts the reschedule without changes.
type SuccessorFunc func(old Booking) (Booking, error)

type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Booking, error)
	// Insert fails with ErrSlotTaken when the slot is already held.
	Insert(ctx context.Context, b Booking) (*Booking, error)
	FindActiveAtSlot(ctx context.Context, vetID uuid.UUID, date calendar.Date, start calendar.TimeOfDay) (*Booking, error)
	// ListActiveForDay returns the vet's slot-holding bookings on date, by start time.
	ListActiveForDay(ctx context.Context, vetID uuid.UUID, date calendar.Date) ([]Booking, error)
	List(ctx context.Context, f ListFilter) ([]Booking, error)

	Confirm(ctx context.Context, id uuid.UUID, at time.Time) (*Booking, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*Booking, error)
	// Reschedule atomically marks id rescheduled and inserts the booking built
	// by next. Nothing changes if next or the insert fails.
	Reschedule(ctx context.Context, id uuid.UUID, next SuccessorFunc) (old, created *Booking, err error)
	// MarkMissed moves overdue confirmed bookings without a consultation to
	// missed and returns them. Running it again with no new overdue rows is a no-op.
	MarkMissed(ctx context.Context, today calendar.Date, now calendar.TimeOfDay) ([]SlotRef, error)
}
