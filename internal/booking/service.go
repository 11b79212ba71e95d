package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hackgods/vet-consult-scheduling/internal/apperrors"
	"github.com/hackgods/vet-consult-scheduling/internal/audit"
	"github.com/hackgods/vet-consult-scheduling/internal/auth"
	"github.com/hackgods/vet-consult-scheduling/internal/calendar"
	"github.com/hackgods/vet-consult-scheduling/internal/metrics"
	redisclient "github.com/hackgods/vet-consult-scheduling/internal/redis"
)

var tracer = otel.Tracer("vetconsult.internal.booking")

var ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")

// SlotObserver is told when bookings on (vet, date) change in a way that
// affects availability.
type SlotObserver interface {
	SlotChanged(ctx context.Context, vetID uuid.UUID, date calendar.Date)
}

type Option func(*Service)

func WithAudit(r *audit.Recorder) Option {
	return func(s *Service) { s.audit = r }
}

func WithMetrics(m *metrics.SchedulingMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithSlotObserver(o SlotObserver) Option {
	return func(s *Service) { s.observer = o }
}

// Service is the booking state machine.
type Service struct {
	repo     Repository
	locker   redisclient.Locker
	clock    calendar.Clock
	logger   zerolog.Logger
	audit    *audit.Recorder
	metrics  *metrics.SchedulingMetrics
	observer SlotObserver
}

func NewService(repo Repository, locker redisclient.Locker, clock calendar.Clock, logger zerolog.Logger, opts ...Option) *Service {
	if locker == nil {
		locker = redisclient.NoopLocker{}
	}
	s := &Service{repo: repo, locker: locker, clock: clock, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func slotLockKey(vetID uuid.UUID, date calendar.Date, start calendar.TimeOfDay) string {
	return fmt.Sprintf("slot:%s:%s:%s", vetID, date, start)
}

// CreateBooking reserves a future slot in pending state.
func (s *Service) CreateBooking(ctx context.Context, actor auth.Actor, in NewBooking) (*Booking, error) {
	ctx, span := tracer.Start(ctx, "booking.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("vetconsult.vet_id", in.VeterinarianID.String()),
		attribute.String("vetconsult.date", in.ScheduledDate.String()),
		attribute.String("vetconsult.slot_start", in.TimeSlotStart.String()),
	)

	if in.PetOwnerID == uuid.Nil || in.VeterinarianID == uuid.Nil {
		return nil, apperrors.Validation("pet owner and veterinarian are required")
	}
	if actor.Role.IsOwnerRole() && actor.UserID != in.PetOwnerID {
		return nil, apperrors.Forbidden("owners can only book for themselves")
	}
	if err := s.validateWindow(in.ScheduledDate, in.TimeSlotStart, in.TimeSlotEnd); err != nil {
		return nil, err
	}
	if in.BookingType == "" {
		in.BookingType = DefaultBookingType
	}
	if in.Priority == "" {
		in.Priority = DefaultPriority
	}

	b := Booking{
		ID:             uuid.New(),
		PetOwnerID:     in.PetOwnerID,
		VeterinarianID: in.VeterinarianID,
		AnimalID:       in.AnimalID,
		EnterpriseID:   in.EnterpriseID,
		GroupID:        in.GroupID,
		ScheduledDate:  in.ScheduledDate,
		TimeSlotStart:  in.TimeSlotStart,
		TimeSlotEnd:    in.TimeSlotEnd,
		Status:         StatusPending,
		BookingType:    in.BookingType,
		Priority:       in.Priority,
		ReasonForVisit: in.ReasonForVisit,
		Symptoms:       in.Symptoms,
		Notes:          in.Notes,
	}

	var created *Booking
	key := slotLockKey(b.VeterinarianID, b.ScheduledDate, b.TimeSlotStart)
	err := s.locker.WithLock(ctx, key, func(lockCtx context.Context) error {
		existing, err := s.repo.FindActiveAtSlot(lockCtx, b.VeterinarianID, b.ScheduledDate, b.TimeSlotStart)
		if err != nil && !errors.Is(err, ErrBookingNotFound) {
			return fmt.Errorf("check slot: %w", err)
		}
		if existing != nil {
			return ErrSlotTaken
		}
		created, err = s.repo.Insert(lockCtx, b)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, s.slotError(err)
	}

	s.afterTransition(ctx, actor, created, audit.ActionBookingCreated, map[string]any{
		"veterinarian_id": created.VeterinarianID.String(),
		"scheduled_date":  created.ScheduledDate.String(),
		"time_slot_start": created.TimeSlotStart.String(),
	})
	return created, nil
}

// GetBooking returns a booking visible to actor.
func (s *Service) GetBooking(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(actor, b) {
		return nil, apperrors.Forbidden("booking %s is not accessible", id)
	}
	return b, nil
}

// History returns the action log of a booking visible to actor.
func (s *Service) History(ctx context.Context, actor auth.Actor, id uuid.UUID) ([]audit.Entry, error) {
	if _, err := s.GetBooking(ctx, actor, id); err != nil {
		return nil, err
	}
	entries, err := s.audit.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load booking history: %w", err)
	}
	return entries, nil
}

// ListBookings returns the actor's bookings after bringing missed status up to date.
func (s *Service) ListBookings(ctx context.Context, actor auth.Actor, f ListFilter) ([]Booking, error) {
	ctx, span := tracer.Start(ctx, "booking.list")
	defer span.End()

	switch {
	case actor.Role.IsOwnerRole():
		f.PetOwnerID = &actor.UserID
	case actor.Role == auth.RoleVeterinarian:
		f.VeterinarianID = &actor.UserID
	case actor.IsAdmin():
	default:
		return nil, apperrors.Forbidden("role %q cannot list bookings", actor.Role)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, apperrors.Validation("date range end is before its start")
	}

	if _, err := s.MarkMissedBookings(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("missed sweep before list failed; serving possibly stale statuses")
	}

	out, err := s.repo.List(ctx, f)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out, nil
}

// ConfirmBooking moves a pending booking to confirmed unless its window has elapsed.
func (s *Service) ConfirmBooking(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Booking, error) {
	ctx, span := tracer.Start(ctx, "booking.confirm")
	defer span.End()
	span.SetAttributes(attribute.String("vetconsult.booking_id", id.String()))

	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.UserID != b.VeterinarianID {
		return nil, apperrors.Forbidden("only the assigned veterinarian can confirm this booking")
	}
	if b.Status != StatusPending {
		return nil, apperrors.Validation("cannot confirm a %s booking", b.Status)
	}
	now := s.clock.Now()
	if calendar.IsPast(b.ScheduledDate, b.TimeSlotEnd, now) {
		return nil, apperrors.Validation("booking window has already elapsed")
	}

	updated, err := s.repo.Confirm(ctx, id, now)
	if err != nil {
		span.RecordError(err)
		return nil, s.transitionError(err, "confirm")
	}

	s.afterTransition(ctx, actor, updated, audit.ActionBookingConfirmed, nil)
	return updated, nil
}

// CancelBooking cancels a pending or confirmed booking and frees its slot.
func (s *Service) CancelBooking(ctx context.Context, actor auth.Actor, id uuid.UUID, reason string) (*Booking, error) {
	ctx, span := tracer.Start(ctx, "booking.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("vetconsult.booking_id", id.String()))

	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(actor, b) {
		return nil, apperrors.Forbidden("booking %s is not accessible", id)
	}
	if b.Status != StatusPending && b.Status != StatusConfirmed {
		return nil, apperrors.Validation("cannot cancel a %s booking", b.Status)
	}

	updated, err := s.repo.Cancel(ctx, id, reason)
	if err != nil {
		span.RecordError(err)
		return nil, s.transitionError(err, "cancel")
	}

	s.afterTransition(ctx, actor, updated, audit.ActionBookingCancelled, map[string]any{"reason": reason})
	return updated, nil
}

// RescheduleBooking retires a confirmed or missed booking and creates its
// successor at the new slot. Successors created by the veterinarian start
// confirmed; all others wait for the vet's approval.
func (s *Service) RescheduleBooking(ctx context.Context, actor auth.Actor, id uuid.UUID, to Reschedule) (old, created *Booking, err error) {
	ctx, span := tracer.Start(ctx, "booking.reschedule")
	defer span.End()
	span.SetAttributes(
		attribute.String("vetconsult.booking_id", id.String()),
		attribute.String("vetconsult.initiator_role", string(actor.Role)),
	)
	defer func() { recordSpanError(span, err) }()

	if err := s.validateWindow(to.ScheduledDate, to.TimeSlotStart, to.TimeSlotEnd); err != nil {
		return nil, nil, err
	}

	now := s.clock.Now()
	successor := func(cur Booking) (Booking, error) {
		if !canAccess(actor, &cur) {
			return Booking{}, apperrors.Forbidden("booking %s is not accessible", cur.ID)
		}
		if cur.Status != StatusConfirmed && cur.Status != StatusMissed {
			return Booking{}, apperrors.Validation("only confirmed or missed bookings can be rescheduled, booking is %s", cur.Status)
		}
		if cur.ConsultationID != nil {
			return Booking{}, apperrors.Validation("booking %s has consultation %s and cannot be rescheduled", cur.ID, *cur.ConsultationID)
		}
		prev := cur.ID
		next := cur
		next.ID = uuid.New()
		next.ScheduledDate = to.ScheduledDate
		next.TimeSlotStart = to.TimeSlotStart
		next.TimeSlotEnd = to.TimeSlotEnd
		next.Status = StatusPending
		next.ConfirmedAt = nil
		next.CancellationReason = nil
		next.RescheduledFrom = &prev
		if actor.Role == auth.RoleVeterinarian {
			next.Status = StatusConfirmed
			next.ConfirmedAt = &now
		}
		return next, nil
	}

	key := slotLockKey(s.vetFor(ctx, id), to.ScheduledDate, to.TimeSlotStart)
	err = s.locker.WithLock(ctx, key, func(lockCtx context.Context) error {
		var rerr error
		old, created, rerr = s.repo.Reschedule(lockCtx, id, successor)
		return rerr
	})
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, nil, apperrors.NotFound("booking %s not found", id)
		}
		return nil, nil, s.slotError(err)
	}

	s.afterTransition(ctx, actor, old, audit.ActionBookingRescheduled, map[string]any{
		"new_booking_id":  created.ID.String(),
		"scheduled_date":  created.ScheduledDate.String(),
		"time_slot_start": created.TimeSlotStart.String(),
		"initiator_role":  string(actor.Role),
	})
	s.afterTransition(ctx, actor, created, audit.ActionBookingCreated, map[string]any{
		"rescheduled_from": old.ID.String(),
	})
	return old, created, nil
}

// MarkMissedBookings moves overdue confirmed bookings with no consultation to
// missed. It is safe to run concurrently and repeatedly.
func (s *Service) MarkMissedBookings(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "booking.mark_missed")
	defer span.End()

	now := s.clock.Now()
	marked, err := s.repo.MarkMissed(ctx, calendar.DateOf(now), calendar.TimeOfDayOf(now))
	s.metrics.ObserveSweep(len(marked), err)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	for _, ref := range marked {
		s.metrics.ObserveBookingTransition(string(StatusMissed))
		s.audit.Record(ctx, uuid.Nil, string(auth.RoleSystem), audit.ActionBookingMissed, ref.BookingID, map[string]any{
			"scheduled_date": ref.ScheduledDate.String(),
		})
	}
	if len(marked) > 0 {
		s.logger.Info().Int("count", len(marked)).Msg("bookings marked missed")
	}
	span.SetAttributes(attribute.Int("vetconsult.marked", len(marked)))
	return len(marked), nil
}

func (s *Service) validateWindow(date calendar.Date, start, end calendar.TimeOfDay) error {
	if date.IsZero() {
		return apperrors.Validation("scheduled date is required")
	}
	if !start.Valid() || !end.Valid() {
		return apperrors.Validation("time slot must be valid HH:MM times")
	}
	if end <= start {
		return apperrors.Validation("time slot end must be after its start")
	}
	if calendar.IsPast(date, start, s.clock.Now()) {
		return apperrors.Validation("cannot book a time slot in the past")
	}
	return nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrBookingNotFound) {
		return nil, apperrors.NotFound("booking %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	return b, nil
}

// vetFor resolves the lock key owner for a reschedule. A miss falls through
// to the repository, which reports not found inside its transaction.
func (s *Service) vetFor(ctx context.Context, id uuid.UUID) uuid.UUID {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return uuid.Nil
	}
	return b.VeterinarianID
}

func (s *Service) slotError(err error) error {
	switch {
	case errors.Is(err, ErrSlotTaken):
		s.metrics.ObserveSlotConflict()
		return apperrors.Conflict(err, "time slot is already booked")
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		s.metrics.ObserveSlotConflict()
		return apperrors.Conflict(ErrSlotBeingBooked, "time slot is currently being booked, please retry")
	}
	return err
}

func (s *Service) transitionError(err error, op string) error {
	if errors.Is(err, ErrStatusChanged) {
		return apperrors.Validation("booking changed state concurrently, cannot %s", op)
	}
	return err
}

func (s *Service) afterTransition(ctx context.Context, actor auth.Actor, b *Booking, action string, details map[string]any) {
	s.metrics.ObserveBookingTransition(string(b.Status))
	s.audit.Record(ctx, actor.UserID, string(actor.Role), action, b.ID, details)
	if s.observer != nil {
		s.observer.SlotChanged(ctx, b.VeterinarianID, b.ScheduledDate)
	}
	s.logger.Info().
		Str("booking_id", b.ID.String()).
		Str("status", string(b.Status)).
		Str("action", action).
		Msg("booking transition")
}

func canAccess(actor auth.Actor, b *Booking) bool {
	return actor.IsAdmin() || actor.UserID == b.PetOwnerID || actor.UserID == b.VeterinarianID
}

func recordSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}
