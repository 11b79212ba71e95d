package availability

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/vet-consult-scheduling/internal/auth"
	"github.com/hackgods/vet-consult-scheduling/internal/booking"
	"github.com/hackgods/vet-consult-scheduling/internal/calendar"
	redisclient "github.com/hackgods/vet-consult-scheduling/internal/redis"
	"github.com/hackgods/vet-consult-scheduling/internal/schedule"
)

// Sunday 2026-11-01 12:00 UTC.
var sundayNoon = time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	calc     *Calculator
	rules    *schedule.Service
	bookings *booking.Service
	clock    *calendar.FixedClock
	vet      auth.Actor
	owner    auth.Actor
	today    calendar.Date
	monday   calendar.Date
}

func newEnv(t *testing.T, cache redisclient.Cache) *env {
	t.Helper()
	e := &env{
		clock: calendar.NewFixedClock(sundayNoon),
		vet:   auth.Actor{UserID: uuid.New(), Role: auth.RoleVeterinarian},
		owner: auth.Actor{UserID: uuid.New(), Role: auth.RolePetOwner},
		today: calendar.DateOf(sundayNoon),
	}
	e.monday = e.today.AddDays(1)

	repo := booking.NewMemoryRepository()
	e.rules = schedule.NewService(schedule.NewMemoryRepository(), zerolog.Nop())
	e.calc = NewCalculator(e.rules, repo, e.clock, zerolog.Nop())
	if cache != nil {
		e.calc.WithCache(cache, time.Minute)
	}
	e.rules.WithObserver(e.calc)
	e.bookings = booking.NewService(repo, nil, e.clock, zerolog.Nop(), booking.WithSlotObserver(e.calc))
	return e
}

// cached reports whether the entry for the current generation of date exists.
func (e *env) cached(t *testing.T, mr *miniredis.Miniredis, date calendar.Date) bool {
	t.Helper()
	g, err := e.calc.generation(context.Background(), e.vet.UserID, date)
	require.NoError(t, err)
	return mr.Exists(cacheKey(e.vet.UserID, date, g))
}

func (e *env) addRule(t *testing.T, day schedule.DayOfWeek, start, end string, slot, max int) {
	t.Helper()
	_, err := e.rules.CreateRule(context.Background(), schedule.NewRule{
		VeterinarianID:      e.vet.UserID,
		DayOfWeek:           day,
		StartTime:           calendar.MustTimeOfDay(start),
		EndTime:             calendar.MustTimeOfDay(end),
		SlotDurationMinutes: slot,
		MaxAppointments:     max,
	})
	require.NoError(t, err)
}

func (e *env) book(t *testing.T, date calendar.Date, start, end string) *booking.Booking {
	t.Helper()
	b, err := e.bookings.CreateBooking(context.Background(), e.owner, booking.NewBooking{
		PetOwnerID:     e.owner.UserID,
		VeterinarianID: e.vet.UserID,
		ScheduledDate:  date,
		TimeSlotStart:  calendar.MustTimeOfDay(start),
		TimeSlotEnd:    calendar.MustTimeOfDay(end),
	})
	require.NoError(t, err)
	return b
}

func (e *env) compute(t *testing.T, date calendar.Date) []TimeSlot {
	t.Helper()
	a, err := e.calc.Compute(context.Background(), e.vet.UserID, date)
	require.NoError(t, err)
	require.NotNil(t, a.Slots)
	return a.Slots
}

func describe(slots []TimeSlot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		mark := "free"
		if !s.IsAvailable {
			mark = "taken"
		}
		out = append(out, s.StartTime.String()+"-"+s.EndTime.String()+" "+mark)
	}
	return out
}

func TestBookingTakesSlot(t *testing.T) {
	e := newEnv(t, nil)
	e.addRule(t, schedule.Monday, "09:00", "10:00", 30, 0)

	assert.Equal(t, []string{"09:00-09:30 free", "09:30-10:00 free"}, describe(e.compute(t, e.monday)))

	a := e.book(t, e.monday, "09:00", "09:30")
	slots := e.compute(t, e.monday)
	assert.Equal(t, []string{"09:00-09:30 taken", "09:30-10:00 free"}, describe(slots))
	require.NotNil(t, slots[0].BookingID)
	assert.Equal(t, a.ID, *slots[0].BookingID)
	assert.Nil(t, slots[1].BookingID)
}

func TestPastDateIsEmpty(t *testing.T) {
	e := newEnv(t, nil)
	e.addRule(t, schedule.Saturday, "09:00", "17:00", 30, 0)

	a, err := e.calc.Compute(context.Background(), e.vet.UserID, e.today.AddDays(-1))
	require.NoError(t, err)
	assert.NotNil(t, a.Slots)
	assert.Empty(t, a.Slots)
	assert.Equal(t, e.today.AddDays(-1), a.Date)
}

func TestNoRuleOrInactiveRuleIsEmpty(t *testing.T) {
	e := newEnv(t, nil)
	assert.Empty(t, e.compute(t, e.monday))

	e.addRule(t, schedule.Monday, "09:00", "10:00", 30, 0)
	rules, err := e.rules.GetRules(context.Background(), e.vet.UserID)
	require.NoError(t, err)
	off := false
	_, err = e.rules.UpdateRule(context.Background(), rules[0].ID, e.vet.UserID, schedule.RulePatch{IsActive: &off})
	require.NoError(t, err)

	assert.Empty(t, e.compute(t, e.monday))
}

func TestTodayDropsStartedSlots(t *testing.T) {
	e := newEnv(t, nil)
	e.addRule(t, schedule.Sunday, "11:00", "14:00", 30, 0)

	slots := e.compute(t, e.today)
	assert.Equal(t, []string{"12:30-13:00 free", "13:00-13:30 free", "13:30-14:00 free"}, describe(slots))

	e.clock.Set(sundayNoon.Add(31 * time.Minute))
	for _, s := range e.compute(t, e.today) {
		assert.Greater(t, int(s.StartTime), int(calendar.MustTimeOfDay("12:31")))
	}
}

func TestTrailingPartialSlotDropped(t *testing.T) {
	e := newEnv(t, nil)
	e.addRule(t, schedule.Monday, "09:00", "10:10", 30, 0)

	assert.Equal(t, []string{"09:00-09:30 free", "09:30-10:00 free"}, describe(e.compute(t, e.monday)))
}

func TestCancelledAndRescheduledFreeTheSlot(t *testing.T) {
	e := newEnv(t, nil)
	e.addRule(t, schedule.Monday, "09:00", "10:00", 30, 0)
	e.addRule(t, schedule.Tuesday, "09:00", "10:00", 30, 0)
	ctx := context.Background()

	a := e.book(t, e.monday, "09:00", "09:30")
	_, err := e.bookings.CancelBooking(ctx, e.owner, a.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00-09:30 free", "09:30-10:00 free"}, describe(e.compute(t, e.monday)))

	b := e.book(t, e.monday, "09:30", "10:00")
	_, err = e.bookings.ConfirmBooking(ctx, e.vet, b.ID)
	require.NoError(t, err)
	_, next, err := e.bookings.RescheduleBooking(ctx, e.vet, b.ID, booking.Reschedule{
		ScheduledDate: e.monday.AddDays(1),
		TimeSlotStart: calendar.MustTimeOfDay("09:00"),
		TimeSlotEnd:   calendar.MustTimeOfDay("09:30"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"09:00-09:30 free", "09:30-10:00 free"}, describe(e.compute(t, e.monday)))
	tuesday := e.compute(t, e.monday.AddDays(1))
	assert.Equal(t, next.ID, *tuesday[0].BookingID)
}

func TestMaxAppointmentsClosesRemainingSlots(t *testing.T) {
	e := newEnv(t, nil)
	e.addRule(t, schedule.Monday, "09:00", "11:00", 30, 2)

	e.book(t, e.monday, "09:00", "09:30")
	assert.Equal(t, []string{
		"09:00-09:30 taken", "09:30-10:00 free", "10:00-10:30 free", "10:30-11:00 free",
	}, describe(e.compute(t, e.monday)))

	e.book(t, e.monday, "10:00", "10:30")
	slots := e.compute(t, e.monday)
	assert.Equal(t, []string{
		"09:00-09:30 taken", "09:30-10:00 taken", "10:00-10:30 taken", "10:30-11:00 taken",
	}, describe(slots))
	assert.Nil(t, slots[1].BookingID)
}

func TestCacheServesFutureDatesAndIsInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	e := newEnv(t, redisclient.NewRedisCache(client))
	e.addRule(t, schedule.Monday, "09:00", "10:00", 30, 0)

	e.compute(t, e.monday)
	require.True(t, e.cached(t, mr, e.monday))

	e.book(t, e.monday, "09:00", "09:30")
	assert.False(t, e.cached(t, mr, e.monday), "booking invalidates the day")

	assert.Equal(t, []string{"09:00-09:30 taken", "09:30-10:00 free"}, describe(e.compute(t, e.monday)))
	assert.True(t, e.cached(t, mr, e.monday))
}

func TestCacheFollowsRuleChanges(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	e := newEnv(t, redisclient.NewRedisCache(client))
	ctx := context.Background()
	created, err := e.rules.CreateRule(ctx, schedule.NewRule{
		VeterinarianID:      e.vet.UserID,
		DayOfWeek:           schedule.Monday,
		StartTime:           calendar.MustTimeOfDay("09:00"),
		EndTime:             calendar.MustTimeOfDay("10:00"),
		SlotDurationMinutes: 30,
	})
	require.NoError(t, err)
	nextMonday := e.monday.AddDays(7)
	assert.Len(t, e.compute(t, e.monday), 2)
	assert.Len(t, e.compute(t, nextMonday), 2)

	end := calendar.MustTimeOfDay("12:00")
	_, err = e.rules.UpdateRule(ctx, created.ID, e.vet.UserID, schedule.RulePatch{EndTime: &end})
	require.NoError(t, err)
	assert.Len(t, e.compute(t, e.monday), 6)
	assert.Len(t, e.compute(t, nextMonday), 6)

	require.NoError(t, e.rules.DeleteRule(ctx, created.ID, e.vet.UserID))
	assert.Empty(t, e.compute(t, e.monday))
	assert.Empty(t, e.compute(t, nextMonday))
}

// racingBookings commits a booking right after the calculator has read the
// day, the way a concurrent request would.
type racingBookings struct {
	DayBookings
	after func()
}

func (r *racingBookings) ListActiveForDay(ctx context.Context, vetID uuid.UUID, date calendar.Date) ([]booking.Booking, error) {
	out, err := r.DayBookings.ListActiveForDay(ctx, vetID, date)
	if r.after != nil {
		after := r.after
		r.after = nil
		after()
	}
	return out, err
}

func TestStaleComputeDoesNotOutliveInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := calendar.NewFixedClock(sundayNoon)
	vet := uuid.New()
	owner := auth.Actor{UserID: uuid.New(), Role: auth.RolePetOwner}
	monday := calendar.DateOf(sundayNoon).AddDays(1)

	rules := schedule.NewService(schedule.NewMemoryRepository(), zerolog.Nop())
	_, err := rules.CreateRule(context.Background(), schedule.NewRule{
		VeterinarianID: vet,
		DayOfWeek:      schedule.Monday,
		StartTime:      calendar.MustTimeOfDay("09:00"),
		EndTime:        calendar.MustTimeOfDay("10:00"),
	})
	require.NoError(t, err)

	repo := booking.NewMemoryRepository()
	racing := &racingBookings{DayBookings: repo}
	calc := NewCalculator(rules, racing, clock, zerolog.Nop()).
		WithCache(redisclient.NewRedisCache(client), time.Minute)
	bookings := booking.NewService(repo, nil, clock, zerolog.Nop(), booking.WithSlotObserver(calc))

	racing.after = func() {
		_, err := bookings.CreateBooking(context.Background(), owner, booking.NewBooking{
			PetOwnerID:     owner.UserID,
			VeterinarianID: vet,
			ScheduledDate:  monday,
			TimeSlotStart:  calendar.MustTimeOfDay("09:00"),
			TimeSlotEnd:    calendar.MustTimeOfDay("09:30"),
		})
		require.NoError(t, err)
	}

	first, err := calc.Compute(context.Background(), vet, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00-09:30 free", "09:30-10:00 free"}, describe(first.Slots))

	second, err := calc.Compute(context.Background(), vet, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00-09:30 taken", "09:30-10:00 free"}, describe(second.Slots))
}

func TestCacheSkipsToday(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	e := newEnv(t, redisclient.NewRedisCache(client))
	e.addRule(t, schedule.Sunday, "13:00", "14:00", 30, 0)

	e.compute(t, e.today)
	assert.False(t, e.cached(t, mr, e.today))
}

func TestUnreadableCacheEntryIsRecomputed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	e := newEnv(t, redisclient.NewRedisCache(client))
	e.addRule(t, schedule.Monday, "09:00", "10:00", 30, 0)
	g, err := e.calc.generation(context.Background(), e.vet.UserID, e.monday)
	require.NoError(t, err)
	require.NoError(t, mr.Set(cacheKey(e.vet.UserID, e.monday, g), "{not json"))

	assert.Len(t, e.compute(t, e.monday), 2)
}

func TestWeekdayIsZoneSafe(t *testing.T) {
	// 23:30 on Sunday in UTC-8 is already Monday in UTC.
	la := time.FixedZone("UTC-8", -8*3600)
	clock := calendar.NewFixedClock(time.Date(2026, 11, 1, 23, 30, 0, 0, la))

	rules := schedule.NewService(schedule.NewMemoryRepository(), zerolog.Nop())
	vet := uuid.New()
	_, err := rules.CreateRule(context.Background(), schedule.NewRule{
		VeterinarianID: vet,
		DayOfWeek:      schedule.Monday,
		StartTime:      calendar.MustTimeOfDay("09:00"),
		EndTime:        calendar.MustTimeOfDay("10:00"),
	})
	require.NoError(t, err)

	calc := NewCalculator(rules, booking.NewMemoryRepository(), clock, zerolog.Nop())
	monday, _ := calendar.ParseDate("2026-11-02")
	a, err := calc.Compute(context.Background(), vet, monday)
	require.NoError(t, err)
	assert.Len(t, a.Slots, 2)

	sunday, _ := calendar.ParseDate("2026-11-01")
	a, err = calc.Compute(context.Background(), vet, sunday)
	require.NoError(t, err)
	assert.Empty(t, a.Slots)
}
