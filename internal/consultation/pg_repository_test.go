package consultation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var consultationCols = []string{"id", "booking_id", "veterinarian_id", "pet_owner_id", "status",
	"started_at", "completed_at", "diagnosis", "prescription", "duration_minutes", "created_at", "updated_at"}

func consultationRow(c Consultation) []any {
	now := time.Now()
	return []any{c.ID, c.BookingID, c.VeterinarianID, c.PetOwnerID, string(c.Status),
		c.StartedAt, c.CompletedAt, c.Diagnosis, c.Prescription, c.DurationMinutes, now, now}
}

func TestPgCreateLinksBookingInOneStatement(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	c := Consultation{ID: uuid.New(), BookingID: uuid.New(), VeterinarianID: uuid.New(), PetOwnerID: uuid.New(), Status: StatusScheduled}
	mock.ExpectQuery("WITH linked AS \\( UPDATE bookings SET consultation_id = \\$1").
		WithArgs(c.ID, c.BookingID, c.VeterinarianID, c.PetOwnerID, "scheduled").
		WillReturnRows(pgxmock.NewRows(consultationCols).AddRow(consultationRow(c)...))

	got, err := NewPgRepository(mock).Create(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, got.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgCreateWithoutLinkableBooking(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("WITH linked AS").WillReturnRows(pgxmock.NewRows(consultationCols))

	_, err = NewPgRepository(mock).Create(context.Background(), Consultation{ID: uuid.New(), BookingID: uuid.New()})
	require.ErrorIs(t, err, ErrBookingNotLinkable)
}

func TestPgCreateDuplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("WITH linked AS").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: bookingIndex})

	_, err = NewPgRepository(mock).Create(context.Background(), Consultation{ID: uuid.New(), BookingID: uuid.New()})
	require.ErrorIs(t, err, ErrConsultationExists)
}

func TestPgMarkCompletedGuardsStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	at := time.Now()
	mock.ExpectQuery("UPDATE consultations SET status = 'completed'").
		WithArgs(id, at, 12, []string{"in_progress", "scheduled"}).
		WillReturnRows(pgxmock.NewRows(consultationCols))

	_, err = NewPgRepository(mock).MarkCompleted(context.Background(), id, at, 12, completableFrom)
	require.ErrorIs(t, err, ErrStatusChanged)
	require.NoError(t, mock.ExpectationsWereMet())
}
