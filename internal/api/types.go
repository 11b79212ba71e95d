package api

import (
	"github.com/hackgods/vet-consult-scheduling/internal/booking"
)

type CreateRuleRequest struct {
	DayOfWeek           string `json:"day_of_week" validate:"required,weekday"`
	StartTime           string `json:"start_time" validate:"required,clock"`
	EndTime             string `json:"end_time" validate:"required,clock"`
	SlotDurationMinutes int    `json:"slot_duration_minutes" validate:"gte=0,lte=1440"`
	MaxAppointments     int    `json:"max_appointments" validate:"gte=0"`
}

type UpdateRuleRequest struct {
	DayOfWeek           *string `json:"day_of_week" validate:"omitempty,weekday"`
	StartTime           *string `json:"start_time" validate:"omitempty,clock"`
	EndTime             *string `json:"end_time" validate:"omitempty,clock"`
	SlotDurationMinutes *int    `json:"slot_duration_minutes" validate:"omitempty,gt=0,lte=1440"`
	MaxAppointments     *int    `json:"max_appointments" validate:"omitempty,gte=0"`
	IsActive            *bool   `json:"is_active"`
}

type CreateBookingRequest struct {
	PetOwnerID     string `json:"pet_owner_id" validate:"omitempty,uuid"`
	VeterinarianID string `json:"veterinarian_id" validate:"required,uuid"`
	AnimalID       string `json:"animal_id" validate:"omitempty,uuid"`
	EnterpriseID   string `json:"enterprise_id" validate:"omitempty,uuid"`
	GroupID        string `json:"group_id" validate:"omitempty,uuid"`
	ScheduledDate  string `json:"scheduled_date" validate:"required,date"`
	TimeSlotStart  string `json:"time_slot_start" validate:"required,clock"`
	TimeSlotEnd    string `json:"time_slot_end" validate:"required,clock"`
	BookingType    string `json:"booking_type" validate:"omitempty,max=50"`
	Priority       string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	ReasonForVisit string `json:"reason_for_visit" validate:"max=2000"`
	Symptoms       string `json:"symptoms" validate:"max=2000"`
	Notes          string `json:"notes" validate:"max=2000"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type RescheduleBookingRequest struct {
	ScheduledDate string `json:"scheduled_date" validate:"required,date"`
	TimeSlotStart string `json:"time_slot_start" validate:"required,clock"`
	TimeSlotEnd   string `json:"time_slot_end" validate:"required,clock"`
}

type RescheduleBookingResponse struct {
	Previous *booking.Booking `json:"previous"`
	Booking  *booking.Booking `json:"booking"`
}

type ListBookingsResponse struct {
	Bookings []booking.Booking `json:"bookings"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

type CreateConsultationRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
}

type RecordOutcomeRequest struct {
	Diagnosis    string `json:"diagnosis" validate:"required_without=Prescription,max=5000"`
	Prescription string `json:"prescription" validate:"max=5000"`
}

type CreateVideoSessionRequest struct {
	ConsultationID    string `json:"consultation_id" validate:"required,uuid"`
	ParticipantUserID string `json:"participant_user_id" validate:"omitempty,uuid"`
}

type EndVideoSessionRequest struct {
	RecordingURL *string `json:"recording_url" validate:"omitempty,url"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
