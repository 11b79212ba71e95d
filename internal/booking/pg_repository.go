package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/vet-consult-scheduling/internal/calendar"
	"github.com/hackgods/vet-consult-scheduling/internal/db"
)

const activeSlotIndex = "bookings_active_slot_key"

const bookingColumns = `id, pet_owner_id, veterinarian_id, animal_id, enterprise_id, group_id,
	to_char(scheduled_date, 'YYYY-MM-DD'),
	to_char(time_slot_start, 'HH24:MI'), to_char(time_slot_end, 'HH24:MI'),
	status, booking_type, priority, reason_for_visit, symptoms, notes,
	cancellation_reason, confirmed_at, rescheduled_from, consultation_id,
	created_at, updated_at`

type PgRepository struct {
	db db.TxBeginner
}

func NewPgRepository(conn db.TxBeginner) *PgRepository {
	return &PgRepository{db: conn}
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var date, start, end, status string

	err := row.Scan(
		&b.ID,
		&b.PetOwnerID,
		&b.VeterinarianID,
		&b.AnimalID,
		&b.EnterpriseID,
		&b.GroupID,
		&date,
		&start,
		&end,
		&status,
		&b.BookingType,
		&b.Priority,
		&b.ReasonForVisit,
		&b.Symptoms,
		&b.Notes,
		&b.CancellationReason,
		&b.ConfirmedAt,
		&b.RescheduledFrom,
		&b.ConsultationID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	b.Status = Status(status)
	if b.ScheduledDate, err = calendar.ParseDate(date); err != nil {
		return nil, fmt.Errorf("booking %s scheduled_date: %w", b.ID, err)
	}
	if b.TimeSlotStart, err = calendar.ParseTimeOfDay(start); err != nil {
		return nil, fmt.Errorf("booking %s time_slot_start: %w", b.ID, err)
	}
	if b.TimeSlotEnd, err = calendar.ParseTimeOfDay(end); err != nil {
		return nil, fmt.Errorf("booking %s time_slot_end: %w", b.ID, err)
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	defer rows.Close()

	out := []Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *PgRepository) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := p.db.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (p *PgRepository) Insert(ctx context.Context, b Booking) (*Booking, error) {
	row := p.db.QueryRow(ctx, `
		INSERT INTO bookings
			(id, pet_owner_id, veterinarian_id, animal_id, enterprise_id, group_id,
			 scheduled_date, time_slot_start, time_slot_end, status,
			 booking_type, priority, reason_for_visit, symptoms, notes,
			 confirmed_at, rescheduled_from, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8::time, $9::time, $10,
		        $11, $12, $13, $14, $15, $16, $17, now(), now())
		RETURNING `+bookingColumns,
		b.ID, b.PetOwnerID, b.VeterinarianID, b.AnimalID, b.EnterpriseID, b.GroupID,
		b.ScheduledDate.String(), b.TimeSlotStart.String(), b.TimeSlotEnd.String(), string(b.Status),
		b.BookingType, b.Priority, b.ReasonForVisit, b.Symptoms, b.Notes,
		b.ConfirmedAt, b.RescheduledFrom)

	created, err := scanBooking(row)
	if err != nil {
		if db.IsUniqueViolation(err, activeSlotIndex) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	return created, nil
}

func (p *PgRepository) FindActiveAtSlot(ctx context.Context, vetID uuid.UUID, date calendar.Date, start calendar.TimeOfDay) (*Booking, error) {
	row := p.db.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE veterinarian_id = $1
		  AND scheduled_date = $2::date
		  AND time_slot_start = $3::time
		  AND status NOT IN ('cancelled', 'rescheduled')
		LIMIT 1
	`, vetID, date.String(), start.String())
	return scanBooking(row)
}

func (p *PgRepository) ListActiveForDay(ctx context.Context, vetID uuid.UUID, date calendar.Date) ([]Booking, error) {
	rows, err := p.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE veterinarian_id = $1
		  AND scheduled_date = $2::date
		  AND status NOT IN ('cancelled', 'rescheduled')
		ORDER BY time_slot_start
	`, vetID, date.String())
	if err != nil {
		return nil, fmt.Errorf("list day bookings: %w", err)
	}
	return collectBookings(rows)
}

func (p *PgRepository) List(ctx context.Context, f ListFilter) ([]Booking, error) {
	f.normalize()

	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.PetOwnerID != nil {
		add("pet_owner_id = $%d", *f.PetOwnerID)
	}
	if f.VeterinarianID != nil {
		add("veterinarian_id = $%d", *f.VeterinarianID)
	}
	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if !f.From.IsZero() {
		add("scheduled_date >= $%d::date", f.From.String())
	}
	if !f.To.IsZero() {
		add("scheduled_date <= $%d::date", f.To.String())
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, f.Limit, f.Offset)

	rows, err := p.db.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM bookings
		%s
		ORDER BY scheduled_date, time_slot_start, created_at
		LIMIT $%d OFFSET $%d
	`, bookingColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return collectBookings(rows)
}

func (p *PgRepository) Confirm(ctx context.Context, id uuid.UUID, at time.Time) (*Booking, error) {
	row := p.db.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'confirmed', confirmed_at = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+bookingColumns,
		id, at)

	b, err := scanBooking(row)
	if errors.Is(err, ErrBookingNotFound) {
		return nil, ErrStatusChanged
	}
	if err != nil {
		return nil, fmt.Errorf("confirm booking: %w", err)
	}
	return b, nil
}

func (p *PgRepository) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Booking, error) {
	row := p.db.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled', cancellation_reason = $2, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'confirmed')
		RETURNING `+bookingColumns,
		id, reason)

	b, err := scanBooking(row)
	if errors.Is(err, ErrBookingNotFound) {
		return nil, ErrStatusChanged
	}
	if err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	return b, nil
}

func (p *PgRepository) Reschedule(ctx context.Context, id uuid.UUID, next SuccessorFunc) (*Booking, *Booking, error) {
	var old, created *Booking

	err := db.InTx(ctx, p.db, func(tx pgx.Tx) error {
		current, err := scanBooking(tx.QueryRow(ctx, `
			SELECT `+bookingColumns+`
			FROM bookings
			WHERE id = $1
			FOR UPDATE
		`, id))
		if err != nil {
			return err
		}

		successor, err := next(*current)
		if err != nil {
			return err
		}

		old, err = scanBooking(tx.QueryRow(ctx, `
			UPDATE bookings
			SET status = 'rescheduled', updated_at = now()
			WHERE id = $1
			RETURNING `+bookingColumns,
			id))
		if err != nil {
			return fmt.Errorf("mark booking rescheduled: %w", err)
		}

		created, err = (&PgRepository{db: tx}).Insert(ctx, successor)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return old, created, nil
}

func (p *PgRepository) MarkMissed(ctx context.Context, today calendar.Date, now calendar.TimeOfDay) ([]SlotRef, error) {
	rows, err := p.db.Query(ctx, `
		UPDATE bookings b
		SET status = 'missed', updated_at = now()
		WHERE b.status = 'confirmed'
		  AND b.consultation_id IS NULL
		  AND NOT EXISTS (SELECT 1 FROM consultations c WHERE c.booking_id = b.id)
		  AND (b.scheduled_date < $1::date
		       OR (b.scheduled_date = $1::date AND b.time_slot_end <= $2::time))
		RETURNING b.id, b.veterinarian_id, to_char(b.scheduled_date, 'YYYY-MM-DD')
	`, today.String(), now.String())
	if err != nil {
		return nil, fmt.Errorf("mark missed bookings: %w", err)
	}
	defer rows.Close()

	var out []SlotRef
	for rows.Next() {
		var ref SlotRef
		var date string
		if err := rows.Scan(&ref.BookingID, &ref.VeterinarianID, &date); err != nil {
			return nil, err
		}
		if ref.ScheduledDate, err = calendar.ParseDate(date); err != nil {
			return nil, fmt.Errorf("booking %s scheduled_date: %w", ref.BookingID, err)
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
