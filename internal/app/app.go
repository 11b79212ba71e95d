// Package app wires configuration into the running set of services shared by
// the api-server and the missed-sweeper.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/vet-consult-scheduling/internal/api"
	"github.com/hackgods/vet-consult-scheduling/internal/audit"
	"github.com/hackgods/vet-consult-scheduling/internal/auth"
	"github.com/hackgods/vet-consult-scheduling/internal/availability"
	"github.com/hackgods/vet-consult-scheduling/internal/booking"
	"github.com/hackgods/vet-consult-scheduling/internal/calendar"
	"github.com/hackgods/vet-consult-scheduling/internal/config"
	"github.com/hackgods/vet-consult-scheduling/internal/consultation"
	"github.com/hackgods/vet-consult-scheduling/internal/db"
	"github.com/hackgods/vet-consult-scheduling/internal/events"
	"github.com/hackgods/vet-consult-scheduling/internal/metrics"
	redisclient "github.com/hackgods/vet-consult-scheduling/internal/redis"
	"github.com/hackgods/vet-consult-scheduling/internal/schedule"
	"github.com/hackgods/vet-consult-scheduling/internal/videosession"
)

type App struct {
	Config   config.Config
	Logger   zerolog.Logger
	Clock    calendar.Clock
	Pool     *pgxpool.Pool // nil with the memory store
	Redis    *redis.Client // nil when redis is disabled
	Registry *prometheus.Registry
	Tokens   *auth.Manager

	Schedule      *schedule.Service
	Availability  *availability.Calculator
	Bookings      *booking.Service
	Consultations *consultation.Service
	VideoSessions *videosession.Service
	Dispatcher    *events.Dispatcher
}

type repositories struct {
	schedule      schedule.Repository
	bookings      booking.Repository
	consultations consultation.Repository
	sessions      videosession.Repository
	audit         audit.Store
}

// New connects the configured stores and builds every service. Call Close
// when done.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Clock:    calendar.NewSystemClock(cfg.Location),
		Registry: prometheus.NewRegistry(),
		Tokens:   auth.NewManager(cfg.JWTSecret, cfg.JWTTTL),
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	repos, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	var locker redisclient.Locker = redisclient.NoopLocker{}
	var cache redisclient.Cache = redisclient.NoopCache{}
	a.Dispatcher = events.NewDispatcher()
	if cfg.RedisEnabled {
		rdb, err := redisclient.Connect(ctx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis connection: %w", err)
		}
		a.Redis = rdb
		locker = redisclient.NewRedisLocker(rdb, cfg.LockTTL)
		cache = redisclient.NewRedisCache(rdb)
		a.Dispatcher.SubscribeAll(events.NewRedisBroadcaster(rdb, cfg.EventsChannelPrefix))
		logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")
	}

	m := metrics.NewSchedulingMetrics(a.Registry)
	recorder := audit.NewRecorder(repos.audit, logger)

	a.Schedule = schedule.NewService(repos.schedule, logger)
	a.Availability = availability.NewCalculator(a.Schedule, repos.bookings, a.Clock, logger).
		WithCache(cache, cfg.AvailabilityTTL).
		WithMetrics(m)
	a.Schedule.WithObserver(a.Availability)
	a.Bookings = booking.NewService(repos.bookings, locker, a.Clock, logger,
		booking.WithAudit(recorder),
		booking.WithMetrics(m),
		booking.WithSlotObserver(a.Availability),
	)
	a.Consultations = consultation.NewService(repos.consultations, repos.bookings, logger)
	consultation.NewStatusUpdater(repos.consultations, logger).Register(a.Dispatcher)
	a.VideoSessions = videosession.NewService(repos.sessions, repos.consultations, a.Dispatcher, a.Clock, logger).
		WithMetrics(m)

	return a, nil
}

func (a *App) openStore(ctx context.Context) (repositories, error) {
	if a.Config.StoreDriver == config.StoreMemory {
		a.Logger.Warn().Msg("using in-memory store; data is lost on exit")
		bookings := booking.NewMemoryRepository()
		return repositories{
			schedule:      schedule.NewMemoryRepository(),
			bookings:      bookings,
			consultations: consultation.NewMemoryRepository(bookings),
			sessions:      videosession.NewMemoryRepository(),
			audit:         audit.NewMemoryStore(),
		}, nil
	}

	if a.Config.AutoMigrate {
		if err := db.Migrate(a.Config.PostgresDSN); err != nil {
			return repositories{}, fmt.Errorf("auto migrate: %w", err)
		}
		a.Logger.Info().Msg("migrations applied")
	}

	pool, err := db.ConnectPostgres(ctx, a.Config.PostgresDSN)
	if err != nil {
		return repositories{}, fmt.Errorf("postgres connection: %w", err)
	}
	a.Pool = pool
	a.Logger.Info().Msg("connected to Postgres")

	return repositories{
		schedule:      schedule.NewPgRepository(pool),
		bookings:      booking.NewPgRepository(pool),
		consultations: consultation.NewPgRepository(pool),
		sessions:      videosession.NewPgRepository(pool),
		audit:         audit.NewPgStore(pool),
	}, nil
}

// Router builds the HTTP handler over the app's services.
func (a *App) Router(version string) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Schedule:       a.Schedule,
		Availability:   a.Availability,
		Bookings:       a.Bookings,
		Consultations:  a.Consultations,
		VideoSessions:  a.VideoSessions,
		Tokens:         a.Tokens,
		Logger:         a.Logger,
		PgPool:         a.Pool,
		Redis:          a.Redis,
		Metrics:        promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
		RequestTimeout: a.Config.RequestTimeout,
		Env:            a.Config.Env,
		Version:        version,
	})
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("error closing redis")
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
