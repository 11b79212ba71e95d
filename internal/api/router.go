package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/vet-consult-scheduling/internal/auth"
	"github.com/hackgods/vet-consult-scheduling/internal/availability"
	"github.com/hackgods/vet-consult-scheduling/internal/booking"
	"github.com/hackgods/vet-consult-scheduling/internal/consultation"
	"github.com/hackgods/vet-consult-scheduling/internal/schedule"
	"github.com/hackgods/vet-consult-scheduling/internal/videosession"
)

type RouterConfig struct {
	Schedule      *schedule.Service
	Availability  *availability.Calculator
	Bookings      *booking.Service
	Consultations *consultation.Service
	VideoSessions *videosession.Service
	Tokens        *auth.Manager
	Logger        zerolog.Logger

	PgPool *pgxpool.Pool // nil with the memory store
	Redis  *redis.Client // nil when redis is disabled

	Metrics        http.Handler
	RequestTimeout time.Duration
	Env            string
	Version        string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	h := &handlers{
		schedule:      cfg.Schedule,
		availability:  cfg.Availability,
		bookings:      cfg.Bookings,
		consultations: cfg.Consultations,
		videoSessions: cfg.VideoSessions,
		validate:      NewValidator(),
		logger:        cfg.Logger,
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens))
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		r.Route("/vets/{vetID}", func(r chi.Router) {
			r.Post("/schedule", h.createRule)
			r.Get("/schedule", h.listRules)
			r.Patch("/schedule/{ruleID}", h.updateRule)
			r.Delete("/schedule/{ruleID}", h.deleteRule)
			r.Get("/availability", h.availabilityForDate)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", h.createBooking)
			r.Get("/", h.listBookings)
			r.Get("/{id}", h.getBooking)
			r.Get("/{id}/consultation", h.consultationForBooking)
			r.Get("/{id}/history", h.bookingHistory)
			r.Post("/{id}/confirm", h.confirmBooking)
			r.Post("/{id}/cancel", h.cancelBooking)
			r.Post("/{id}/reschedule", h.rescheduleBooking)
		})

		r.Route("/consultations", func(r chi.Router) {
			r.Post("/", h.createConsultation)
			r.Get("/{id}", h.getConsultation)
			r.Post("/{id}/outcome", h.recordOutcome)
			r.Post("/{id}/cancel", h.cancelConsultation)
			r.Get("/{id}/video-session", h.videoSessionForConsultation)
		})

		r.Route("/video-sessions", func(r chi.Router) {
			r.Post("/", h.createVideoSession)
			r.Get("/{id}", h.getVideoSession)
			r.Get("/room/{roomID}", h.videoSessionForRoom)
			r.Post("/{id}/join", h.joinVideoSession)
			r.Post("/{id}/start", h.startVideoSession)
			r.Post("/{id}/end", h.endVideoSession)
		})
	})

	return r
}
