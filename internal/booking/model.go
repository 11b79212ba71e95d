package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/vet-consult-scheduling/internal/calendar"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusConfirmed   Status = "confirmed"
	StatusMissed      Status = "missed"
	StatusRescheduled Status = "rescheduled"
	StatusCancelled   Status = "cancelled"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusMissed, StatusRescheduled, StatusCancelled:
		return st, true
	}
	return "", false
}

// HoldsSlot reports whether a booking in this status occupies its slot.
// Cancelled and rescheduled bookings release it.
func (s Status) HoldsSlot() bool {
	return s != StatusCancelled && s != StatusRescheduled
}

const (
	DefaultBookingType = "consultation"
	DefaultPriority    = "normal"
)

type Booking struct {
	ID                 uuid.UUID          `json:"id"`
	PetOwnerID         uuid.UUID          `json:"pet_owner_id"`
	VeterinarianID     uuid.UUID          `json:"veterinarian_id"`
	AnimalID           *uuid.UUID         `json:"animal_id,omitempty"`
	EnterpriseID       *uuid.UUID         `json:"enterprise_id,omitempty"`
	GroupID            *uuid.UUID         `json:"group_id,omitempty"`
	ScheduledDate      calendar.Date      `json:"scheduled_date"`
	TimeSlotStart      calendar.TimeOfDay `json:"time_slot_start"`
	TimeSlotEnd        calendar.TimeOfDay `json:"time_slot_end"`
	Status             Status             `json:"status"`
	BookingType        string             `json:"booking_type"`
	Priority           string             `json:"priority"`
	ReasonForVisit     string             `json:"reason_for_visit"`
	Symptoms           string             `json:"symptoms"`
	Notes              string             `json:"notes"`
	CancellationReason *string            `json:"cancellation_reason,omitempty"`
	ConfirmedAt        *time.Time         `json:"confirmed_at,omitempty"`
	RescheduledFrom    *uuid.UUID         `json:"rescheduled_from,omitempty"`
	ConsultationID     *uuid.UUID         `json:"consultation_id,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// NewBooking is the input for createBooking.
type NewBooking struct {
	PetOwnerID     uuid.UUID
	VeterinarianID uuid.UUID
	AnimalID       *uuid.UUID
	EnterpriseID   *uuid.UUID
	GroupID        *uuid.UUID
	ScheduledDate  calendar.Date
	TimeSlotStart  calendar.TimeOfDay
	TimeSlotEnd    calendar.TimeOfDay
	BookingType    string
	Priority       string
	ReasonForVisit string
	Symptoms       string
	Notes          string
}

// Reschedule describes the new slot for rescheduleBooking.
type Reschedule struct {
	ScheduledDate calendar.Date
	TimeSlotStart calendar.TimeOfDay
	TimeSlotEnd   calendar.TimeOfDay
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListFilter narrows listBookings. Nil and zero fields do not filter.
type ListFilter struct {
	PetOwnerID     *uuid.UUID
	VeterinarianID *uuid.UUID
	Status         *Status
	From           calendar.Date
	To             calendar.Date
	Limit          int
	Offset         int
}

func (f *ListFilter) normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// SlotRef identifies the slot a booking occupied.
type SlotRef struct {
	BookingID      uuid.UUID
	VeterinarianID uuid.UUID
	ScheduledDate  calendar.Date
}
