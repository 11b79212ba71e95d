package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeSessionStarted = "session.started"
	TypeSessionEnded   = "session.ended"
)

// Event is a domain fact published after its state change is stored.
type Event interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// SessionStarted is emitted once when a video session goes live.
type SessionStarted struct {
	SessionID      uuid.UUID `json:"session_id"`
	ConsultationID uuid.UUID `json:"consultation_id"`
	StartedAt      time.Time `json:"started_at"`
}

func (e SessionStarted) EventType() string     { return TypeSessionStarted }
func (e SessionStarted) AggregateID() string   { return e.SessionID.String() }
func (e SessionStarted) OccurredAt() time.Time { return e.StartedAt }

// SessionEnded is emitted once when a video session is closed.
type SessionEnded struct {
	SessionID       uuid.UUID `json:"session_id"`
	ConsultationID  uuid.UUID `json:"consultation_id"`
	EndedAt         time.Time `json:"ended_at"`
	DurationSeconds int       `json:"duration_seconds"`
}

func (e SessionEnded) EventType() string     { return TypeSessionEnded }
func (e SessionEnded) AggregateID() string   { return e.SessionID.String() }
func (e SessionEnded) OccurredAt() time.Time { return e.EndedAt }
