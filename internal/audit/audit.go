package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	ActionBookingCreated     = "booking.created"
	ActionBookingConfirmed   = "booking.confirmed"
	ActionBookingCancelled   = "booking.cancelled"
	ActionBookingRescheduled = "booking.rescheduled"
	ActionBookingMissed      = "booking.missed"
)

// Entry is an append-only action log row.
type Entry struct {
	ID        int64           `json:"id"`
	UserID    *uuid.UUID      `json:"user_id,omitempty"`
	UserRole  string          `json:"user_role"`
	Action    string          `json:"action"`
	BookingID *uuid.UUID      `json:"booking_id,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store persists entries. Implementations never update or delete.
type Store interface {
	Append(ctx context.Context, e Entry) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Entry, error)
}

// Recorder writes entries best-effort: failures are logged and swallowed so
// auditing never aborts the operation being audited.
type Recorder struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewRecorder(store Store, logger zerolog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger, now: time.Now}
}

// Record appends one entry. details may be nil.
func (r *Recorder) Record(ctx context.Context, userID uuid.UUID, role, action string, bookingID uuid.UUID, details map[string]any) {
	if r == nil || r.store == nil {
		return
	}

	var data json.RawMessage
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			r.logger.Warn().Err(err).Str("action", action).Msg("failed to marshal audit details")
		} else {
			data = b
		}
	}

	e := Entry{
		UserRole:  role,
		Action:    action,
		Details:   data,
		CreatedAt: r.now(),
	}
	if userID != uuid.Nil {
		uid := userID
		e.UserID = &uid
	}
	if bookingID != uuid.Nil {
		bid := bookingID
		e.BookingID = &bid
	}

	if err := r.store.Append(ctx, e); err != nil {
		r.logger.Error().Err(err).
			Str("action", action).
			Str("booking_id", bookingID.String()).
			Msg("failed to write action log")
	}
}

// History returns the booking's entries oldest first, empty when auditing is off.
func (r *Recorder) History(ctx context.Context, bookingID uuid.UUID) ([]Entry, error) {
	if r == nil || r.store == nil {
		return []Entry{}, nil
	}
	out, err := r.store.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Entry{}
	}
	return out, nil
}
