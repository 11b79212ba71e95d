package consultation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/vet-consult-scheduling/internal/db"
)

const consultationColumns = `id, booking_id, veterinarian_id, pet_owner_id, status,
	started_at, completed_at, diagnosis, prescription, duration_minutes,
	created_at, updated_at`

const bookingIndex = "consultations_booking_key"

type PgRepository struct {
	db db.DBTX
}

func NewPgRepository(conn db.DBTX) *PgRepository {
	return &PgRepository{db: conn}
}

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	var status string

	err := row.Scan(
		&c.ID,
		&c.BookingID,
		&c.VeterinarianID,
		&c.PetOwnerID,
		&status,
		&c.StartedAt,
		&c.CompletedAt,
		&c.Diagnosis,
		&c.Prescription,
		&c.DurationMinutes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConsultationNotFound
		}
		return nil, err
	}
	c.Status = Status(status)
	return &c, nil
}

func statusStrings(set []Status) []string {
	out := make([]string, len(set))
	for i, s := range set {
		out[i] = string(s)
	}
	return out
}

// Create claims the booking and inserts the consultation in one statement, so
// a booking is never linked without its consultation row or vice versa.
func (p *PgRepository) Create(ctx context.Context, c Consultation) (*Consultation, error) {
	row := p.db.QueryRow(ctx, `
		WITH linked AS (
			UPDATE bookings
			SET consultation_id = $1, updated_at = now()
			WHERE id = $2 AND status = 'confirmed' AND consultation_id IS NULL
			RETURNING id
		)
		INSERT INTO consultations
			(id, booking_id, veterinarian_id, pet_owner_id, status, created_at, updated_at)
		SELECT $1, linked.id, $3, $4, $5, now(), now()
		FROM linked
		RETURNING `+consultationColumns,
		c.ID, c.BookingID, c.VeterinarianID, c.PetOwnerID, string(c.Status))

	created, err := scanConsultation(row)
	switch {
	case errors.Is(err, ErrConsultationNotFound):
		return nil, ErrBookingNotLinkable
	case db.IsUniqueViolation(err, bookingIndex):
		return nil, ErrConsultationExists
	case err != nil:
		return nil, fmt.Errorf("insert consultation: %w", err)
	}
	return created, nil
}

func (p *PgRepository) Get(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	row := p.db.QueryRow(ctx, `
		SELECT `+consultationColumns+`
		FROM consultations
		WHERE id = $1
	`, id)
	return scanConsultation(row)
}

func (p *PgRepository) GetByBooking(ctx context.Context, bookingID uuid.UUID) (*Consultation, error) {
	row := p.db.QueryRow(ctx, `
		SELECT `+consultationColumns+`
		FROM consultations
		WHERE booking_id = $1
	`, bookingID)
	return scanConsultation(row)
}

func (p *PgRepository) transition(ctx context.Context, query string, args ...any) (*Consultation, error) {
	c, err := scanConsultation(p.db.QueryRow(ctx, query, args...))
	if errors.Is(err, ErrConsultationNotFound) {
		return nil, ErrStatusChanged
	}
	if err != nil {
		return nil, fmt.Errorf("update consultation: %w", err)
	}
	return c, nil
}

func (p *PgRepository) MarkInProgress(ctx context.Context, id uuid.UUID, startedAt time.Time, from []Status) (*Consultation, error) {
	return p.transition(ctx, `
		UPDATE consultations
		SET status = 'in_progress', started_at = COALESCE(started_at, $2), updated_at = now()
		WHERE id = $1 AND status = ANY($3)
		RETURNING `+consultationColumns,
		id, startedAt, statusStrings(from))
}

func (p *PgRepository) MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time, minutes int, from []Status) (*Consultation, error) {
	return p.transition(ctx, `
		UPDATE consultations
		SET status = 'completed', completed_at = $2, duration_minutes = $3, updated_at = now()
		WHERE id = $1 AND status = ANY($4)
		RETURNING `+consultationColumns,
		id, completedAt, minutes, statusStrings(from))
}

func (p *PgRepository) Cancel(ctx context.Context, id uuid.UUID, from []Status) (*Consultation, error) {
	return p.transition(ctx, `
		UPDATE consultations
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status = ANY($2)
		RETURNING `+consultationColumns,
		id, statusStrings(from))
}

func (p *PgRepository) RecordOutcome(ctx context.Context, id uuid.UUID, diagnosis, prescription string) (*Consultation, error) {
	row := p.db.QueryRow(ctx, `
		UPDATE consultations
		SET diagnosis = $2, prescription = $3, updated_at = now()
		WHERE id = $1 AND status <> 'cancelled'
		RETURNING `+consultationColumns,
		id, diagnosis, prescription)

	c, err := scanConsultation(row)
	if errors.Is(err, ErrConsultationNotFound) {
		return nil, ErrStatusChanged
	}
	if err != nil {
		return nil, fmt.Errorf("record consultation outcome: %w", err)
	}
	return c, nil
}
