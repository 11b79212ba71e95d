package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/vet-consult-scheduling/internal/booking"
	"github.com/hackgods/vet-consult-scheduling/internal/calendar"
	"github.com/hackgods/vet-consult-scheduling/internal/metrics"
	redisclient "github.com/hackgods/vet-consult-scheduling/internal/redis"
	"github.com/hackgods/vet-consult-scheduling/internal/schedule"
)

type TimeSlot struct {
	StartTime   calendar.TimeOfDay `json:"start_time"`
	EndTime     calendar.TimeOfDay `json:"end_time"`
	IsAvailable bool               `json:"is_available"`
	BookingID   *uuid.UUID         `json:"booking_id,omitempty"`
}

type Availability struct {
	VetID uuid.UUID     `json:"vet_id"`
	Date  calendar.Date `json:"date"`
	Slots []TimeSlot    `json:"slots"`
}

// RuleSource yields the active weekly rule for a vet and day, or nil.
type RuleSource interface {
	ActiveRule(ctx context.Context, vetID uuid.UUID, day schedule.DayOfWeek) (*schedule.Rule, error)
}

// DayBookings lists the slot-holding bookings for a vet on one date.
type DayBookings interface {
	ListActiveForDay(ctx context.Context, vetID uuid.UUID, date calendar.Date) ([]booking.Booking, error)
}

// Calculator derives a day's slots from the weekly rule and current bookings.
type Calculator struct {
	rules    RuleSource
	bookings DayBookings
	clock    calendar.Clock
	cache    redisclient.Cache
	ttl      time.Duration
	metrics  *metrics.SchedulingMetrics
	logger   zerolog.Logger
}

func NewCalculator(rules RuleSource, bookings DayBookings, clock calendar.Clock, logger zerolog.Logger) *Calculator {
	return &Calculator{
		rules:    rules,
		bookings: bookings,
		clock:    clock,
		cache:    redisclient.NoopCache{},
		logger:   logger,
	}
}

// WithCache enables caching of future dates for ttl.
func (c *Calculator) WithCache(cache redisclient.Cache, ttl time.Duration) *Calculator {
	if cache != nil && ttl > 0 {
		c.cache = cache
		c.ttl = ttl
	}
	return c
}

func (c *Calculator) WithMetrics(m *metrics.SchedulingMetrics) *Calculator {
	c.metrics = m
	return c
}

// generation names the version of a vet's rules and of one of their days
// that a cached entry was computed from. Invalidation bumps a counter instead
// of deleting, so a Compute that read old data writes to a key nobody reads.
type generation struct {
	vet int64
	day int64
}

func vetGenKey(vetID uuid.UUID) string {
	return fmt.Sprintf("availability:gen:%s", vetID)
}

func dayGenKey(vetID uuid.UUID, date calendar.Date) string {
	return fmt.Sprintf("availability:gen:%s:%s", vetID, date)
}

func cacheKey(vetID uuid.UUID, date calendar.Date, g generation) string {
	return fmt.Sprintf("availability:%s:%s:v%d.%d", vetID, date, g.vet, g.day)
}

// Counters must outlive every entry keyed on them.
func (c *Calculator) generationTTL() time.Duration {
	return c.ttl + 24*time.Hour
}

// Compute returns the vet's slots on date in start order. Past dates and days
// without an active rule yield no slots.
func (c *Calculator) Compute(ctx context.Context, vetID uuid.UUID, date calendar.Date) (*Availability, error) {
	out := &Availability{VetID: vetID, Date: date, Slots: []TimeSlot{}}

	now := c.clock.Now()
	today := calendar.DateOf(now)
	if date.Before(today) {
		return out, nil
	}

	// Today's slots expire minute by minute, so only later dates are cached.
	var key string
	cacheable := date.After(today)
	if cacheable {
		g, err := c.generation(ctx, vetID, date)
		if err != nil {
			c.logger.Warn().Err(err).Msg("availability cache generation read failed")
			cacheable = false
		} else {
			key = cacheKey(vetID, date, g)
		}
	}
	if cacheable {
		if cached, ok := c.fromCache(ctx, key); ok {
			c.metrics.ObserveAvailability("hit")
			return cached, nil
		}
		c.metrics.ObserveAvailability("miss")
	} else {
		c.metrics.ObserveAvailability("bypass")
	}

	rule, err := c.rules.ActiveRule(ctx, vetID, schedule.DayOf(date))
	if err != nil {
		return nil, fmt.Errorf("load schedule rule: %w", err)
	}
	if rule != nil {
		held, err := c.bookings.ListActiveForDay(ctx, vetID, date)
		if err != nil {
			return nil, fmt.Errorf("load bookings: %w", err)
		}
		out.Slots = buildSlots(*rule, held)
	}

	if date == today {
		out.Slots = dropStarted(out.Slots, calendar.TimeOfDayOf(now))
	}
	if cacheable {
		c.toCache(ctx, key, out)
	}
	return out, nil
}

// buildSlots enumerates whole slots from the rule and marks those held by a
// booking. Once maxAppointments bookings exist, free slots are closed too.
func buildSlots(rule schedule.Rule, held []booking.Booking) []TimeSlot {
	byStart := make(map[calendar.TimeOfDay]uuid.UUID, len(held))
	for _, b := range held {
		byStart[b.TimeSlotStart] = b.ID
	}
	full := rule.MaxAppointments > 0 && len(held) >= rule.MaxAppointments

	step := rule.SlotDuration()
	slots := []TimeSlot{}
	for start := rule.StartTime; start.Add(step) <= rule.EndTime; start = start.Add(step) {
		slot := TimeSlot{StartTime: start, EndTime: start.Add(step), IsAvailable: !full}
		if id, ok := byStart[start]; ok {
			slot.IsAvailable = false
			slot.BookingID = &id
		}
		slots = append(slots, slot)
	}
	return slots
}

func dropStarted(slots []TimeSlot, now calendar.TimeOfDay) []TimeSlot {
	kept := slots[:0]
	for _, s := range slots {
		if s.StartTime > now {
			kept = append(kept, s)
		}
	}
	return kept
}

func (c *Calculator) generation(ctx context.Context, vetID uuid.UUID, date calendar.Date) (generation, error) {
	var g generation
	var err error
	if g.vet, err = c.counter(ctx, vetGenKey(vetID)); err != nil {
		return g, err
	}
	if g.day, err = c.counter(ctx, dayGenKey(vetID, date)); err != nil {
		return g, err
	}
	return g, nil
}

func (c *Calculator) counter(ctx context.Context, key string) (int64, error) {
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func (c *Calculator) fromCache(ctx context.Context, key string) (*Availability, bool) {
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Msg("availability cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var a Availability
	if err := json.Unmarshal(raw, &a); err != nil {
		c.logger.Warn().Err(err).Msg("discarding unreadable availability cache entry")
		return nil, false
	}
	return &a, true
}

func (c *Calculator) toCache(ctx context.Context, key string, a *Availability) {
	if c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("availability cache write failed")
	}
}

// Invalidate retires the cached slots for (vet, date).
func (c *Calculator) Invalidate(ctx context.Context, vetID uuid.UUID, date calendar.Date) {
	if _, err := c.cache.Incr(ctx, dayGenKey(vetID, date), c.generationTTL()); err != nil {
		c.logger.Warn().Err(err).
			Str("vet_id", vetID.String()).
			Str("date", date.String()).
			Msg("availability cache invalidation failed")
	}
}

// SlotChanged lets the booking service invalidate the cache on every transition.
func (c *Calculator) SlotChanged(ctx context.Context, vetID uuid.UUID, date calendar.Date) {
	c.Invalidate(ctx, vetID, date)
}

// RulesChanged retires every cached date of the vet.
func (c *Calculator) RulesChanged(ctx context.Context, vetID uuid.UUID) {
	if _, err := c.cache.Incr(ctx, vetGenKey(vetID), c.generationTTL()); err != nil {
		c.logger.Warn().Err(err).
			Str("vet_id", vetID.String()).
			Msg("availability cache invalidation failed")
	}
}
