package videosession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/vet-consult-scheduling/internal/db"
)

const sessionColumns = `id, consultation_id, room_id, host_user_id, participant_user_id, status,
	started_at, ended_at, duration_seconds, recording_url, created_at, updated_at`

const liveIndex = "video_sessions_live_key"

type PgRepository struct {
	db db.DBTX
}

func NewPgRepository(conn db.DBTX) *PgRepository {
	return &PgRepository{db: conn}
}

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	var status string

	err := row.Scan(
		&s.ID,
		&s.ConsultationID,
		&s.RoomID,
		&s.HostUserID,
		&s.ParticipantUserID,
		&status,
		&s.StartedAt,
		&s.EndedAt,
		&s.DurationSeconds,
		&s.RecordingURL,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	s.Status = Status(status)
	return &s, nil
}

func (p *PgRepository) Insert(ctx context.Context, s Session) (*Session, error) {
	row := p.db.QueryRow(ctx, `
		INSERT INTO video_sessions
			(id, consultation_id, room_id, host_user_id, participant_user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING `+sessionColumns,
		s.ID, s.ConsultationID, s.RoomID, s.HostUserID, s.ParticipantUserID, string(s.Status))

	created, err := scanSession(row)
	if err != nil {
		if db.IsUniqueViolation(err, liveIndex) {
			return nil, ErrLiveSessionExists
		}
		return nil, fmt.Errorf("insert video session: %w", err)
	}
	return created, nil
}

func (p *PgRepository) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return scanSession(p.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM video_sessions
		WHERE id = $1
	`, id))
}

func (p *PgRepository) GetByRoom(ctx context.Context, roomID string) (*Session, error) {
	return scanSession(p.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM video_sessions
		WHERE room_id = $1
	`, roomID))
}

func (p *PgRepository) FindLive(ctx context.Context, consultationID uuid.UUID) (*Session, error) {
	return scanSession(p.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM video_sessions
		WHERE consultation_id = $1 AND status IN ('waiting', 'active')
		ORDER BY created_at DESC
		LIMIT 1
	`, consultationID))
}

func (p *PgRepository) LatestForConsultation(ctx context.Context, consultationID uuid.UUID) (*Session, error) {
	return scanSession(p.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM video_sessions
		WHERE consultation_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, consultationID))
}

func (p *PgRepository) Start(ctx context.Context, id uuid.UUID, at time.Time) (*Session, error) {
	s, err := scanSession(p.db.QueryRow(ctx, `
		UPDATE video_sessions
		SET status = 'active', started_at = $2, updated_at = now()
		WHERE id = $1 AND status = 'waiting'
		RETURNING `+sessionColumns,
		id, at))
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrStatusChanged
	}
	if err != nil {
		return nil, fmt.Errorf("start video session: %w", err)
	}
	return s, nil
}

func (p *PgRepository) End(ctx context.Context, id uuid.UUID, at time.Time, recordingURL *string) (*Session, error) {
	s, err := scanSession(p.db.QueryRow(ctx, `
		UPDATE video_sessions
		SET status = 'ended',
		    ended_at = $2,
		    duration_seconds = CASE
		        WHEN started_at IS NULL OR started_at > $2 THEN 0
		        ELSE floor(extract(epoch FROM ($2 - started_at)))::int
		    END,
		    recording_url = COALESCE($3, recording_url),
		    updated_at = now()
		WHERE id = $1 AND status IN ('waiting', 'active')
		RETURNING `+sessionColumns,
		id, at, recordingURL))
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrStatusChanged
	}
	if err != nil {
		return nil, fmt.Errorf("end video session: %w", err)
	}
	return s, nil
}
