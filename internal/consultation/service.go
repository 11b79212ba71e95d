package consultation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/vet-consult-scheduling/internal/apperrors"
	"github.com/hackgods/vet-consult-scheduling/internal/auth"
	"github.com/hackgods/vet-consult-scheduling/internal/booking"
)

type BookingReader interface {
	Get(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
}

type Service struct {
	repo     Repository
	bookings BookingReader
	logger   zerolog.Logger
}

func NewService(repo Repository, bookings BookingReader, logger zerolog.Logger) *Service {
	return &Service{repo: repo, bookings: bookings, logger: logger}
}

// Create opens a consultation for a confirmed booking and links the two.
func (s *Service) Create(ctx context.Context, actor auth.Actor, bookingID uuid.UUID) (*Consultation, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if errors.Is(err, booking.ErrBookingNotFound) {
		return nil, apperrors.NotFound("booking %s not found", bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if !actor.IsAdmin() && actor.UserID != b.VeterinarianID && actor.UserID != b.PetOwnerID {
		return nil, apperrors.Forbidden("booking %s is not accessible", bookingID)
	}
	if b.ConsultationID != nil {
		return nil, apperrors.Conflict(ErrConsultationExists, "booking %s already has consultation %s", bookingID, *b.ConsultationID)
	}
	if b.Status != booking.StatusConfirmed {
		return nil, apperrors.Validation("only confirmed bookings can start a consultation, booking is %s", b.Status)
	}

	created, err := s.repo.Create(ctx, Consultation{
		ID:             uuid.New(),
		BookingID:      b.ID,
		VeterinarianID: b.VeterinarianID,
		PetOwnerID:     b.PetOwnerID,
		Status:         StatusScheduled,
	})
	switch {
	case errors.Is(err, ErrConsultationExists):
		return nil, apperrors.Conflict(err, "booking %s already has a consultation", bookingID)
	case errors.Is(err, ErrBookingNotLinkable):
		return nil, apperrors.Conflict(err, "booking %s changed before the consultation was created", bookingID)
	case err != nil:
		return nil, err
	}

	s.logger.Info().
		Str("consultation_id", created.ID.String()).
		Str("booking_id", bookingID.String()).
		Msg("consultation created")
	return created, nil
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Consultation, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !c.Participant(actor.UserID) {
		return nil, apperrors.Forbidden("consultation %s is not accessible", id)
	}
	return c, nil
}

func (s *Service) GetByBooking(ctx context.Context, actor auth.Actor, bookingID uuid.UUID) (*Consultation, error) {
	c, err := s.repo.GetByBooking(ctx, bookingID)
	if errors.Is(err, ErrConsultationNotFound) {
		return nil, apperrors.NotFound("no consultation for booking %s", bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("load consultation: %w", err)
	}
	if !actor.IsAdmin() && !c.Participant(actor.UserID) {
		return nil, apperrors.Forbidden("consultation for booking %s is not accessible", bookingID)
	}
	return c, nil
}

// RecordOutcome stores the vet's diagnosis and prescription.
func (s *Service) RecordOutcome(ctx context.Context, actor auth.Actor, id uuid.UUID, diagnosis, prescription string) (*Consultation, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.UserID != c.VeterinarianID {
		return nil, apperrors.Forbidden("only the consulting veterinarian can record an outcome")
	}
	if c.Status == StatusCancelled {
		return nil, apperrors.Validation("consultation %s is cancelled", id)
	}

	updated, err := s.repo.RecordOutcome(ctx, id, diagnosis, prescription)
	if errors.Is(err, ErrStatusChanged) {
		return nil, apperrors.Validation("consultation %s is cancelled", id)
	}
	return updated, err
}

func (s *Service) Cancel(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Consultation, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !c.Participant(actor.UserID) {
		return nil, apperrors.Forbidden("consultation %s is not accessible", id)
	}

	updated, err := s.repo.Cancel(ctx, id, []Status{StatusScheduled, StatusInProgress})
	if errors.Is(err, ErrStatusChanged) {
		return nil, apperrors.Validation("cannot cancel a %s consultation", c.Status)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("consultation_id", id.String()).Msg("consultation cancelled")
	return updated, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrConsultationNotFound) {
		return nil, apperrors.NotFound("consultation %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load consultation: %w", err)
	}
	return c, nil
}
