package consultation

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Closed reports whether no further session may run for the consultation.
func (s Status) Closed() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Consultation struct {
	ID              uuid.UUID  `json:"id"`
	BookingID       uuid.UUID  `json:"booking_id"`
	VeterinarianID  uuid.UUID  `json:"veterinarian_id"`
	PetOwnerID      uuid.UUID  `json:"pet_owner_id"`
	Status          Status     `json:"status"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Diagnosis       string     `json:"diagnosis"`
	Prescription    string     `json:"prescription"`
	DurationMinutes int        `json:"duration_minutes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Participant reports whether user is the consultation's vet or owner.
func (c *Consultation) Participant(user uuid.UUID) bool {
	return user == c.VeterinarianID || user == c.PetOwnerID
}

// MinutesFromSeconds rounds a session length to the nearest minute.
func MinutesFromSeconds(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Round(float64(seconds) / 60))
}
