package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/vet-consult-scheduling/internal/calendar"
)

const DefaultSlotDurationMinutes = 30

type DayOfWeek string

const (
	Monday    DayOfWeek = "monday"
	Tuesday   DayOfWeek = "tuesday"
	Wednesday DayOfWeek = "wednesday"
	Thursday  DayOfWeek = "thursday"
	Friday    DayOfWeek = "friday"
	Saturday  DayOfWeek = "saturday"
	Sunday    DayOfWeek = "sunday"
)

// Week lists the days in rule order.
var Week = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

func ParseDayOfWeek(s string) (DayOfWeek, error) {
	d := DayOfWeek(strings.ToLower(strings.TrimSpace(s)))
	if d.Index() < 0 {
		return "", fmt.Errorf("invalid day of week %q", s)
	}
	return d, nil
}

// DayOf returns the weekday of a local calendar date.
func DayOf(d calendar.Date) DayOfWeek {
	switch d.Weekday() {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// Index is the Monday-based position, or -1 for unknown values.
func (d DayOfWeek) Index() int {
	for i, w := range Week {
		if w == d {
			return i
		}
	}
	return -1
}

// Rule is a veterinarian's availability template for one day of the week.
type Rule struct {
	ID                  uuid.UUID          `json:"id"`
	VeterinarianID      uuid.UUID          `json:"veterinarian_id"`
	DayOfWeek           DayOfWeek          `json:"day_of_week"`
	StartTime           calendar.TimeOfDay `json:"start_time"`
	EndTime             calendar.TimeOfDay `json:"end_time"`
	SlotDurationMinutes int                `json:"slot_duration_minutes"`
	MaxAppointments     int                `json:"max_appointments"`
	IsActive            bool               `json:"is_active"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

func (r Rule) SlotDuration() time.Duration {
	return time.Duration(r.SlotDurationMinutes) * time.Minute
}

// NewRule is the input for creating a rule. Zero SlotDurationMinutes means
// the default; zero MaxAppointments means unlimited.
type NewRule struct {
	VeterinarianID      uuid.UUID
	DayOfWeek           DayOfWeek
	StartTime           calendar.TimeOfDay
	EndTime             calendar.TimeOfDay
	SlotDurationMinutes int
	MaxAppointments     int
}

// RulePatch holds optional updates; nil fields are left unchanged.
type RulePatch struct {
	DayOfWeek           *DayOfWeek
	StartTime           *calendar.TimeOfDay
	EndTime             *calendar.TimeOfDay
	SlotDurationMinutes *int
	MaxAppointments     *int
	IsActive            *bool
}

func (p RulePatch) apply(r *Rule) {
	if p.DayOfWeek != nil {
		r.DayOfWeek = *p.DayOfWeek
	}
	if p.StartTime != nil {
		r.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		r.EndTime = *p.EndTime
	}
	if p.SlotDurationMinutes != nil {
		r.SlotDurationMinutes = *p.SlotDurationMinutes
	}
	if p.MaxAppointments != nil {
		r.MaxAppointments = *p.MaxAppointments
	}
	if p.IsActive != nil {
		r.IsActive = *p.IsActive
	}
}
