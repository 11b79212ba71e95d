package consultation

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/hackgods/vet-consult-scheduling/internal/events"
)

var (
	startableFrom   = []Status{StatusScheduled}
	completableFrom = []Status{StatusInProgress, StatusScheduled}
)

// StatusUpdater follows video session events and advances the linked
// consultation. Completed and cancelled consultations are never overwritten.
type StatusUpdater struct {
	repo   Repository
	logger zerolog.Logger
}

func NewStatusUpdater(repo Repository, logger zerolog.Logger) *StatusUpdater {
	return &StatusUpdater{repo: repo, logger: logger}
}

// Register subscribes the updater to session events on d.
func (u *StatusUpdater) Register(d *events.Dispatcher) {
	d.Subscribe(events.TypeSessionStarted, u)
	d.Subscribe(events.TypeSessionEnded, u)
}

func (u *StatusUpdater) Handle(ctx context.Context, ev events.Event) error {
	var err error
	switch e := ev.(type) {
	case events.SessionStarted:
		_, err = u.repo.MarkInProgress(ctx, e.ConsultationID, e.StartedAt, startableFrom)
	case events.SessionEnded:
		_, err = u.repo.MarkCompleted(ctx, e.ConsultationID, e.EndedAt, MinutesFromSeconds(e.DurationSeconds), completableFrom)
	default:
		return nil
	}

	if errors.Is(err, ErrStatusChanged) {
		u.logger.Debug().
			Str("event", ev.EventType()).
			Str("session_id", ev.AggregateID()).
			Msg("consultation not in a state this event advances, left unchanged")
		return nil
	}
	return err
}
