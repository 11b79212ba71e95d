package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/hackgods/vet-consult-scheduling/internal/apperrors"
	"github.com/hackgods/vet-consult-scheduling/internal/booking"
	"github.com/hackgods/vet-consult-scheduling/internal/calendar"
)

func (h *handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	var req CreateBookingRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	ownerID := actor.UserID
	if req.PetOwnerID != "" {
		ownerID = uuid.MustParse(req.PetOwnerID)
	}
	date, _ := calendar.ParseDate(req.ScheduledDate)

	b, err := h.bookings.CreateBooking(r.Context(), actor, booking.NewBooking{
		PetOwnerID:     ownerID,
		VeterinarianID: uuid.MustParse(req.VeterinarianID),
		AnimalID:       optionalUUID(req.AnimalID),
		EnterpriseID:   optionalUUID(req.EnterpriseID),
		GroupID:        optionalUUID(req.GroupID),
		ScheduledDate:  date,
		TimeSlotStart:  calendar.MustTimeOfDay(req.TimeSlotStart),
		TimeSlotEnd:    calendar.MustTimeOfDay(req.TimeSlotEnd),
		BookingType:    req.BookingType,
		Priority:       req.Priority,
		ReasonForVisit: req.ReasonForVisit,
		Symptoms:       req.Symptoms,
		Notes:          req.Notes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.bookings.GetBooking(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handlers) bookingHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.bookings.History(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// listBookings accepts status, from, to, vet_id, pet_owner_id, limit and offset.
func (h *handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	f, err := parseListFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.bookings.ListBookings(r.Context(), actor, f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if out == nil {
		out = []booking.Booking{}
	}
	limit := f.Limit
	if limit <= 0 {
		limit = booking.DefaultListLimit
	}
	if limit > booking.MaxListLimit {
		limit = booking.MaxListLimit
	}
	writeJSON(w, http.StatusOK, ListBookingsResponse{Bookings: out, Limit: limit, Offset: f.Offset})
}

func parseListFilter(r *http.Request) (booking.ListFilter, error) {
	q := r.URL.Query()
	var f booking.ListFilter

	if v := q.Get("status"); v != "" {
		st, ok := booking.ParseStatus(v)
		if !ok {
			return f, apperrors.Validation("unknown status %q", v)
		}
		f.Status = &st
	}
	for key, dst := range map[string]*calendar.Date{"from": &f.From, "to": &f.To} {
		if v := q.Get(key); v != "" {
			d, err := calendar.ParseDate(v)
			if err != nil {
				return f, apperrors.Validation("%s must be YYYY-MM-DD", key)
			}
			*dst = d
		}
	}
	for key, dst := range map[string]**uuid.UUID{"vet_id": &f.VeterinarianID, "pet_owner_id": &f.PetOwnerID} {
		if v := q.Get(key); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return f, apperrors.Validation("%s must be a valid UUID", key)
			}
			*dst = &id
		}
	}
	for key, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return f, apperrors.Validation("%s must be a non-negative integer", key)
			}
			*dst = n
		}
	}
	return f, nil
}

func (h *handlers) confirmBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.bookings.ConfirmBooking(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req CancelBookingRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	b, err := h.bookings.CancelBooking(r.Context(), actor, id, req.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handlers) rescheduleBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req RescheduleBookingRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	date, _ := calendar.ParseDate(req.ScheduledDate)
	old, created, err := h.bookings.RescheduleBooking(r.Context(), actor, id, booking.Reschedule{
		ScheduledDate: date,
		TimeSlotStart: calendar.MustTimeOfDay(req.TimeSlotStart),
		TimeSlotEnd:   calendar.MustTimeOfDay(req.TimeSlotEnd),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, RescheduleBookingResponse{Previous: old, Booking: created})
}

func (h *handlers) consultationForBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.consultations.GetByBooking(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
