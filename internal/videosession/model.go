package videosession

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
)

type Session struct {
	ID                uuid.UUID  `json:"id"`
	ConsultationID    uuid.UUID  `json:"consultation_id"`
	RoomID            string     `json:"room_id"`
	HostUserID        uuid.UUID  `json:"host_user_id"`
	ParticipantUserID uuid.UUID  `json:"participant_user_id"`
	Status            Status     `json:"status"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
	DurationSeconds   int        `json:"duration_seconds"`
	RecordingURL      *string    `json:"recording_url,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Member reports whether user is the session's host or participant.
func (s *Session) Member(user uuid.UUID) bool {
	return user == s.HostUserID || user == s.ParticipantUserID
}

// elapsedSeconds is the whole seconds between start and end, or 0 when the
// session never started.
func elapsedSeconds(startedAt *time.Time, endedAt time.Time) int {
	if startedAt == nil || endedAt.Before(*startedAt) {
		return 0
	}
	return int(endedAt.Sub(*startedAt) / time.Second)
}
