package consultation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConsultationNotFound = errors.New("consultation not found")
	ErrConsultationExists   = errors.New("booking already has a consultation")
	// ErrBookingNotLinkable means the booking was not confirmed and unlinked
	// at the moment of insert.
	ErrBookingNotLinkable = errors.New("booking cannot be linked to a consultation")
	ErrStatusChanged      = errors.New("consultation status changed")
)

type Repository interface {
	// Create inserts c and links its booking in the same operation.
	Create(ctx context.Context, c Consultation) (*Consultation, error)
	Get(ctx context.Context, id uuid.UUID) (*Consultation, error)
	GetByBooking(ctx context.Context, bookingID uuid.UUID) (*Consultation, error)

	// The transitions below apply only when the current status is in from and
	// fail with ErrStatusChanged otherwise.
	MarkInProgress(ctx context.Context, id uuid.UUID, startedAt time.Time, from []Status) (*Consultation, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time, minutes int, from []Status) (*Consultation, error)
	Cancel(ctx context.Context, id uuid.UUID, from []Status) (*Consultation, error)

	RecordOutcome(ctx context.Context, id uuid.UUID, diagnosis, prescription string) (*Consultation, error)
}
