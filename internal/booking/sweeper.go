package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper runs MarkMissedBookings on a fixed interval until its context ends.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

const defaultSweepInterval = time.Minute

// NewSweeper falls back to a one minute interval when interval is not positive.
func NewSweeper(svc *Service, interval time.Duration, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{svc: svc, interval: interval, timeout: 20 * time.Second, logger: logger}
}

// Run sweeps once immediately, then on every tick.
func (w *Sweeper) Run(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Msg("missed sweeper started")

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("missed sweeper stopping")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

func (w *Sweeper) RunOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	marked, err := w.svc.MarkMissedBookings(runCtx)
	if err != nil {
		w.logger.Error().Err(err).Msg("missed sweep failed")
		return
	}
	w.logger.Debug().
		Int("marked", marked).
		Dur("took", time.Since(start)).
		Msg("missed sweep complete")
}
