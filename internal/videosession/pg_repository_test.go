package videosession

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

var sessionCols = []string{"id", "consultation_id", "room_id", "host_user_id", "participant_user_id", "status",
	"started_at", "ended_at", "duration_seconds", "recording_url", "created_at", "updated_at"}

func TestPgInsertMapsLiveIndex(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO video_sessions").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: liveIndex})

	_, err = NewPgRepository(mock).Insert(context.Background(), Session{ID: uuid.New(), Status: StatusWaiting})
	require.ErrorIs(t, err, ErrLiveSessionExists)
}

func TestPgStartOnlyFromWaiting(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	at := time.Now()
	mock.ExpectQuery("UPDATE video_sessions SET status = 'active'(.+)WHERE id = \\$1 AND status = 'waiting'").
		WithArgs(id, at).
		WillReturnRows(pgxmock.NewRows(sessionCols))

	_, err = NewPgRepository(mock).Start(context.Background(), id, at)
	require.ErrorIs(t, err, ErrStatusChanged)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgEndReturnsStoredDuration(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id, consult := uuid.New(), uuid.New()
	started := time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)
	ended := started.Add(90 * time.Second)
	url := "https://recordings.example/a.mp4"

	mock.ExpectQuery("UPDATE video_sessions SET status = 'ended'").
		WithArgs(id, ended, &url).
		WillReturnRows(pgxmock.NewRows(sessionCols).AddRow(
			id, consult, "abc", uuid.New(), uuid.New(), "ended",
			&started, &ended, 90, &url, started, ended))

	s, err := NewPgRepository(mock).End(context.Background(), id, ended, &url)
	require.NoError(t, err)
	assert.Equal(t, StatusEnded, s.Status)
	assert.Equal(t, 90, s.DurationSeconds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestElapsedSeconds(t *testing.T) {
	start := time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, elapsedSeconds(nil, start))
	assert.Equal(t, 0, elapsedSeconds(&start, start.Add(-time.Second)))
	assert.Equal(t, 61, elapsedSeconds(&start, start.Add(61500*time.Millisecond)))
}
