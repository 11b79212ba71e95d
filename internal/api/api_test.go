package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/vet-consult-scheduling/internal/audit"
	"github.com/hackgods/vet-consult-scheduling/internal/auth"
	"github.com/hackgods/vet-consult-scheduling/internal/availability"
	"github.com/hackgods/vet-consult-scheduling/internal/booking"
	"github.com/hackgods/vet-consult-scheduling/internal/calendar"
	"github.com/hackgods/vet-consult-scheduling/internal/consultation"
	"github.com/hackgods/vet-consult-scheduling/internal/events"
	"github.com/hackgods/vet-consult-scheduling/internal/metrics"
	"github.com/hackgods/vet-consult-scheduling/internal/schedule"
	"github.com/hackgods/vet-consult-scheduling/internal/videosession"
)

// Sunday; the next Monday is 2026-11-02.
var sundayNoon = time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	handler http.Handler
	tokens  *auth.Manager
	clock   *calendar.FixedClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zerolog.Nop()
	clock := calendar.NewFixedClock(sundayNoon)
	reg := prometheus.NewRegistry()
	m := metrics.NewSchedulingMetrics(reg)

	scheduleSvc := schedule.NewService(schedule.NewMemoryRepository(), logger)
	bookRepo := booking.NewMemoryRepository()
	calc := availability.NewCalculator(scheduleSvc, bookRepo, clock, logger).WithMetrics(m)
	scheduleSvc.WithObserver(calc)
	bookings := booking.NewService(bookRepo, nil, clock, logger,
		booking.WithAudit(audit.NewRecorder(audit.NewMemoryStore(), logger)),
		booking.WithMetrics(m),
		booking.WithSlotObserver(calc),
	)

	consultRepo := consultation.NewMemoryRepository(bookRepo)
	consultations := consultation.NewService(consultRepo, bookRepo, logger)
	dispatcher := events.NewDispatcher()
	consultation.NewStatusUpdater(consultRepo, logger).Register(dispatcher)
	sessions := videosession.NewService(videosession.NewMemoryRepository(), consultRepo, dispatcher, clock, logger).WithMetrics(m)

	tokens := auth.NewManager("test-secret", time.Hour)
	h := NewRouter(RouterConfig{
		Schedule:       scheduleSvc,
		Availability:   calc,
		Bookings:       bookings,
		Consultations:  consultations,
		VideoSessions:  sessions,
		Tokens:         tokens,
		Logger:         logger,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		RequestTimeout: 5 * time.Second,
		Env:            "test",
		Version:        "test",
	})
	return &testServer{handler: h, tokens: tokens, clock: clock}
}

func (s *testServer) token(t *testing.T, a auth.Actor) string {
	t.Helper()
	tok, err := s.tokens.NewAccessToken(a)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path string, as *auth.Actor, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(t, *as))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func newActor(role auth.Role) *auth.Actor {
	return &auth.Actor{UserID: uuid.New(), Role: role}
}

func (s *testServer) mondayRule(t *testing.T, vet *auth.Actor) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/vets/"+vet.UserID.String()+"/schedule", vet, CreateRuleRequest{
		DayOfWeek: "Monday",
		StartTime: "09:00",
		EndTime:   "12:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *testServer) book(t *testing.T, owner, vet *auth.Actor, start, end string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPost, "/bookings", owner, CreateBookingRequest{
		VeterinarianID: vet.UserID.String(),
		ScheduledDate:  "2026-11-02",
		TimeSlotStart:  start,
		TimeSlotEnd:    end,
		ReasonForVisit: "limping calf",
	})
}

func TestHealthWithoutDependencies(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/health/ready", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decodeBody[ReadinessResponse](t, rec)
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, "disabled", ready.Dependencies["postgres"])
	assert.Equal(t, "disabled", ready.Dependencies["redis"])
}

func TestRequestIDEchoed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = s.do(t, http.MethodGet, "/health/live", nil, nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/bookings", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeBody[ErrorResponse](t, rec).Error)

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScheduleRuleEndpoints(t *testing.T) {
	s := newTestServer(t)
	vet := newActor(auth.RoleVeterinarian)
	otherVet := newActor(auth.RoleVeterinarian)
	owner := newActor(auth.RolePetOwner)
	path := "/vets/" + vet.UserID.String() + "/schedule"

	s.mondayRule(t, vet)

	rec := s.do(t, http.MethodPost, path, vet, CreateRuleRequest{DayOfWeek: "monday", StartTime: "13:00", EndTime: "15:00"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, path, otherVet, CreateRuleRequest{DayOfWeek: "tuesday", StartTime: "09:00", EndTime: "12:00"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, path, vet, CreateRuleRequest{DayOfWeek: "funday", StartTime: "25:00", EndTime: "12:00"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "validation", errBody.Error)
	assert.Contains(t, errBody.Details, "day_of_week")
	assert.Contains(t, errBody.Details, "start_time")

	rec = s.do(t, http.MethodPost, path, vet, CreateRuleRequest{DayOfWeek: "friday", StartTime: "12:00", EndTime: "09:00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, path, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rules := decodeBody[[]schedule.Rule](t, rec)
	require.Len(t, rules, 1)
	assert.Equal(t, schedule.Monday, rules[0].DayOfWeek)
	assert.Equal(t, schedule.DefaultSlotDurationMinutes, rules[0].SlotDurationMinutes)

	ruleURL := path + "/" + rules[0].ID.String()
	inactive := false
	rec = s.do(t, http.MethodPatch, ruleURL, vet, UpdateRuleRequest{IsActive: &inactive})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[schedule.Rule](t, rec).IsActive)

	rec = s.do(t, http.MethodDelete, ruleURL, otherVet, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, ruleURL, vet, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, ruleURL, vet, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminManagesAnyVetSchedule(t *testing.T) {
	s := newTestServer(t)
	admin := newActor(auth.RoleAdmin)
	vet := newActor(auth.RoleVeterinarian)
	path := "/vets/" + vet.UserID.String() + "/schedule"

	rec := s.do(t, http.MethodPost, path, admin, CreateRuleRequest{DayOfWeek: "wednesday", StartTime: "08:00", EndTime: "10:00", SlotDurationMinutes: 20})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rule := decodeBody[schedule.Rule](t, rec)
	assert.Equal(t, vet.UserID, rule.VeterinarianID)

	// 2026-11-04 is a Wednesday.
	rec = s.do(t, http.MethodGet, "/vets/"+vet.UserID.String()+"/availability?date=2026-11-04", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[availability.Availability](t, rec).Slots, 6)

	rec = s.do(t, http.MethodDelete, path+"/"+rule.ID.String(), admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBookingHistoryEndpoint(t *testing.T) {
	s := newTestServer(t)
	vet := newActor(auth.RoleVeterinarian)
	owner := newActor(auth.RolePetOwner)
	s.mondayRule(t, vet)

	rec := s.book(t, owner, vet, "09:00", "09:30")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	b := decodeBody[booking.Booking](t, rec)
	rec = s.do(t, http.MethodPost, "/bookings/"+b.ID.String()+"/confirm", vet, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/bookings/"+b.ID.String()+"/history", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	entries := decodeBody[[]audit.Entry](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionBookingCreated, entries[0].Action)
	assert.Equal(t, audit.ActionBookingConfirmed, entries[1].Action)

	rec = s.do(t, http.MethodGet, "/bookings/"+b.ID.String()+"/history", newActor(auth.RoleFarmer), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAvailabilityReflectsBookings(t *testing.T) {
	s := newTestServer(t)
	vet := newActor(auth.RoleVeterinarian)
	owner := newActor(auth.RoleFarmer)
	s.mondayRule(t, vet)

	rec := s.book(t, owner, vet, "09:00", "09:30")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	b := decodeBody[booking.Booking](t, rec)

	rec = s.do(t, http.MethodGet, "/vets/"+vet.UserID.String()+"/availability?date=2026-11-02", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	avail := decodeBody[availability.Availability](t, rec)
	require.Len(t, avail.Slots, 6)
	assert.False(t, avail.Slots[0].IsAvailable)
	require.NotNil(t, avail.Slots[0].BookingID)
	assert.Equal(t, b.ID, *avail.Slots[0].BookingID)
	assert.True(t, avail.Slots[1].IsAvailable)

	rec = s.do(t, http.MethodGet, "/vets/"+vet.UserID.String()+"/availability?date=02-11-2026", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingEndpoints(t *testing.T) {
	s := newTestServer(t)
	vet := newActor(auth.RoleVeterinarian)
	owner := newActor(auth.RolePetOwner)
	stranger := newActor(auth.RolePetOwner)

	rec := s.book(t, owner, vet, "09:00", "09:30")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	b := decodeBody[booking.Booking](t, rec)
	assert.Equal(t, booking.StatusPending, b.Status)
	assert.Equal(t, owner.UserID, b.PetOwnerID)
	assert.Equal(t, booking.DefaultPriority, b.Priority)

	rec = s.book(t, stranger, vet, "09:00", "09:30")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decodeBody[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodGet, "/bookings/"+b.ID.String(), stranger, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/bookings/"+uuid.NewString(), owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/bookings/not-a-uuid", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/bookings/"+b.ID.String()+"/confirm", owner, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/bookings/"+b.ID.String()+"/confirm", vet, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, booking.StatusConfirmed, decodeBody[booking.Booking](t, rec).Status)

	rec = s.do(t, http.MethodPost, "/bookings/"+b.ID.String()+"/reschedule", owner, RescheduleBookingRequest{
		ScheduledDate: "2026-11-02",
		TimeSlotStart: "10:00",
		TimeSlotEnd:   "10:30",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	moved := decodeBody[RescheduleBookingResponse](t, rec)
	assert.Equal(t, booking.StatusRescheduled, moved.Previous.Status)
	assert.Equal(t, booking.StatusPending, moved.Booking.Status)
	require.NotNil(t, moved.Booking.RescheduledFrom)
	assert.Equal(t, b.ID, *moved.Booking.RescheduledFrom)

	// the original slot is free again
	rec = s.book(t, stranger, vet, "09:00", "09:30")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/bookings/"+moved.Booking.ID.String()+"/cancel", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, booking.StatusCancelled, decodeBody[booking.Booking](t, rec).Status)

	rec = s.do(t, http.MethodPost, "/bookings/"+moved.Booking.ID.String()+"/cancel", owner, CancelBookingRequest{Reason: "again"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/bookings?status=cancelled", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[ListBookingsResponse](t, rec)
	require.Len(t, list.Bookings, 1)
	assert.Equal(t, moved.Booking.ID, list.Bookings[0].ID)
	assert.Equal(t, booking.DefaultListLimit, list.Limit)

	rec = s.do(t, http.MethodGet, "/bookings", vet, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[ListBookingsResponse](t, rec).Bookings, 3)

	rec = s.do(t, http.MethodGet, "/bookings?status=lost", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodGet, "/bookings?limit=-1", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingValidation(t *testing.T) {
	s := newTestServer(t)
	vet := newActor(auth.RoleVeterinarian)
	owner := newActor(auth.RoleFarmer)

	// today, already started
	rec := s.do(t, http.MethodPost, "/bookings", owner, CreateBookingRequest{
		VeterinarianID: vet.UserID.String(),
		ScheduledDate:  "2026-11-01",
		TimeSlotStart:  "11:00",
		TimeSlotEnd:    "11:30",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/bookings", owner, CreateBookingRequest{
		VeterinarianID: "vet",
		ScheduledDate:  "2026-11-02",
		TimeSlotStart:  "11:00",
		TimeSlotEnd:    "11:30",
		Priority:       "whenever",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	details := decodeBody[ErrorResponse](t, rec).Details
	assert.Contains(t, details, "veterinarian_id")
	assert.Contains(t, details, "priority")

	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+s.token(t, *owner))
	r := httptest.NewRecorder()
	s.handler.ServeHTTP(r, req)
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.Equal(t, "invalid_request_body", decodeBody[ErrorResponse](t, r).Error)
}

func TestConsultationAndVideoSessionFlow(t *testing.T) {
	s := newTestServer(t)
	vet := newActor(auth.RoleVeterinarian)
	owner := newActor(auth.RolePetOwner)
	admin := newActor(auth.RoleAdmin)

	rec := s.book(t, owner, vet, "09:00", "09:30")
	require.Equal(t, http.StatusCreated, rec.Code)
	b := decodeBody[booking.Booking](t, rec)

	rec = s.do(t, http.MethodPost, "/consultations", vet, CreateConsultationRequest{BookingID: b.ID.String()})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "pending booking cannot start a consultation")

	rec = s.do(t, http.MethodPost, "/bookings/"+b.ID.String()+"/confirm", vet, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/consultations", vet, CreateConsultationRequest{BookingID: b.ID.String()})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decodeBody[consultation.Consultation](t, rec)
	assert.Equal(t, consultation.StatusScheduled, c.Status)

	rec = s.do(t, http.MethodGet, "/bookings/"+b.ID.String()+"/consultation", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, c.ID, decodeBody[consultation.Consultation](t, rec).ID)

	rec = s.do(t, http.MethodPost, "/video-sessions", vet, CreateVideoSessionRequest{ConsultationID: c.ID.String()})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sess := decodeBody[videosession.Session](t, rec)
	assert.Equal(t, videosession.StatusWaiting, sess.Status)
	assert.Equal(t, owner.UserID, sess.ParticipantUserID)

	rec = s.do(t, http.MethodPost, "/video-sessions", owner, CreateVideoSessionRequest{ConsultationID: c.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sess.ID, decodeBody[videosession.Session](t, rec).ID)

	rec = s.do(t, http.MethodGet, "/video-sessions/room/"+sess.RoomID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sess.ID, decodeBody[videosession.Session](t, rec).ID)

	rec = s.do(t, http.MethodPost, "/video-sessions/"+sess.ID.String()+"/join", admin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/video-sessions/"+sess.ID.String()+"/join", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, videosession.StatusActive, decodeBody[videosession.Session](t, rec).Status)

	rec = s.do(t, http.MethodGet, "/consultations/"+c.ID.String(), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, consultation.StatusInProgress, decodeBody[consultation.Consultation](t, rec).Status)

	s.clock.Advance(20*time.Minute + 40*time.Second)
	rec = s.do(t, http.MethodPost, "/video-sessions/"+sess.ID.String()+"/end", vet, EndVideoSessionRequest{RecordingURL: strPtr("https://recordings.example.com/r1.mp4")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ended := decodeBody[videosession.Session](t, rec)
	assert.Equal(t, videosession.StatusEnded, ended.Status)
	assert.Equal(t, 1240, ended.DurationSeconds)

	rec = s.do(t, http.MethodPost, "/video-sessions/"+sess.ID.String()+"/start", vet, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/consultations/"+c.ID.String()+"/video-session", vet, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sess.ID, decodeBody[videosession.Session](t, rec).ID)

	rec = s.do(t, http.MethodGet, "/consultations/"+c.ID.String(), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	done := decodeBody[consultation.Consultation](t, rec)
	assert.Equal(t, consultation.StatusCompleted, done.Status)
	assert.Equal(t, 21, done.DurationMinutes)

	rec = s.do(t, http.MethodPost, "/consultations/"+c.ID.String()+"/outcome", owner, RecordOutcomeRequest{Diagnosis: "sprain"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/consultations/"+c.ID.String()+"/outcome", vet, RecordOutcomeRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/consultations/"+c.ID.String()+"/outcome", vet, RecordOutcomeRequest{Diagnosis: "sprain", Prescription: "rest"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sprain", decodeBody[consultation.Consultation](t, rec).Diagnosis)

	rec = s.do(t, http.MethodPost, "/consultations/"+c.ID.String()+"/cancel", vet, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVideoSessionRequiresConsultation(t *testing.T) {
	s := newTestServer(t)
	vet := newActor(auth.RoleVeterinarian)

	rec := s.do(t, http.MethodPost, "/video-sessions", vet, CreateVideoSessionRequest{ConsultationID: uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/video-sessions/room/nope", vet, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	vet := newActor(auth.RoleVeterinarian)
	owner := newActor(auth.RolePetOwner)
	require.Equal(t, http.StatusCreated, s.book(t, owner, vet, "09:00", "09:30").Code)

	rec := s.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `vetconsult_booking_transitions_total{status="pending"} 1`)
}

func strPtr(s string) *string { return &s }
