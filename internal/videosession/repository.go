package videosession

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("video session not found")
	// ErrLiveSessionExists means the consultation already has a waiting or
	// active session.
	ErrLiveSessionExists = errors.New("consultation already has a live session")
	ErrStatusChanged     = errors.New("video session status changed")
)

type Repository interface {
	Insert(ctx context.Context, s Session) (*Session, error)
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	GetByRoom(ctx context.Context, roomID string) (*Session, error)
	// FindLive returns the consultation's waiting or active session.
	FindLive(ctx context.Context, consultationID uuid.UUID) (*Session, error)
	// LatestForConsultation returns the most recently created session.
	LatestForConsultation(ctx context.Context, consultationID uuid.UUID) (*Session, error)

	// Start moves a waiting session to active.
	Start(ctx context.Context, id uuid.UUID, at time.Time) (*Session, error)
	// End closes a waiting or active session and fixes its duration.
	End(ctx context.Context, id uuid.UUID, at time.Time, recordingURL *string) (*Session, error)
}
