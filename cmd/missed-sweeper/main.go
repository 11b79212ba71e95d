package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hackgods/vet-consult-scheduling/internal/app"
	"github.com/hackgods/vet-consult-scheduling/internal/booking"
	"github.com/hackgods/vet-consult-scheduling/internal/config"
	"github.com/hackgods/vet-consult-scheduling/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New("missed-sweeper", cfg.LogLevel, cfg.Env)
	logger.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.SweepInterval).
		Msg("missed-sweeper starting up")
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn().Msg("memory store is private to this process; the sweep has nothing to share")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootCtx, cancelBoot := context.WithTimeout(rootCtx, 15*time.Second)
	a, err := app.New(bootCtx, cfg, logger)
	cancelBoot()
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	booking.NewSweeper(a.Bookings, cfg.SweepInterval, logger).Run(rootCtx)
	logger.Info().Msg("missed-sweeper stopped")
}
