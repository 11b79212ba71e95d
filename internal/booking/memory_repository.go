package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/vet-consult-scheduling/internal/calendar"
)

// MemoryRepository keeps bookings in process with the same slot exclusivity
// and conditional-transition rules as the Postgres repository.
type MemoryRepository struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]Booking
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{bookings: make(map[uuid.UUID]Booking), now: time.Now}
}

func (m *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return &b, nil
}

func (m *MemoryRepository) Insert(_ context.Context, b Booking) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(b)
}

func (m *MemoryRepository) insertLocked(b Booking) (*Booking, error) {
	if b.Status.HoldsSlot() && m.holderLocked(b.VeterinarianID, b.ScheduledDate, b.TimeSlotStart) != nil {
		return nil, ErrSlotTaken
	}
	now := m.now()
	b.CreatedAt, b.UpdatedAt = now, now
	m.bookings[b.ID] = b
	return &b, nil
}

func (m *MemoryRepository) holderLocked(vetID uuid.UUID, date calendar.Date, start calendar.TimeOfDay) *Booking {
	for _, b := range m.bookings {
		if b.VeterinarianID == vetID && b.ScheduledDate == date && b.TimeSlotStart == start && b.Status.HoldsSlot() {
			return &b
		}
	}
	return nil
}

func (m *MemoryRepository) FindActiveAtSlot(_ context.Context, vetID uuid.UUID, date calendar.Date, start calendar.TimeOfDay) (*Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b := m.holderLocked(vetID, date, start); b != nil {
		return b, nil
	}
	return nil, ErrBookingNotFound
}

func (m *MemoryRepository) ListActiveForDay(_ context.Context, vetID uuid.UUID, date calendar.Date) ([]Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Booking{}
	for _, b := range m.bookings {
		if b.VeterinarianID == vetID && b.ScheduledDate == date && b.Status.HoldsSlot() {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeSlotStart < out[j].TimeSlotStart })
	return out, nil
}

func (m *MemoryRepository) List(_ context.Context, f ListFilter) ([]Booking, error) {
	f.normalize()

	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := []Booking{}
	for _, b := range m.bookings {
		switch {
		case f.PetOwnerID != nil && b.PetOwnerID != *f.PetOwnerID:
			continue
		case f.VeterinarianID != nil && b.VeterinarianID != *f.VeterinarianID:
			continue
		case f.Status != nil && b.Status != *f.Status:
			continue
		case !f.From.IsZero() && b.ScheduledDate.Before(f.From):
			continue
		case !f.To.IsZero() && b.ScheduledDate.After(f.To):
			continue
		}
		matched = append(matched, b)
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if c := a.ScheduledDate.Compare(b.ScheduledDate); c != 0 {
			return c < 0
		}
		if a.TimeSlotStart != b.TimeSlotStart {
			return a.TimeSlotStart < b.TimeSlotStart
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	if f.Offset >= len(matched) {
		return []Booking{}, nil
	}
	matched = matched[f.Offset:]
	if len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

// transition applies fn to the booking when its status is one of from.
func (m *MemoryRepository) transition(id uuid.UUID, from []Status, fn func(b *Booking)) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok || !statusIn(b.Status, from) {
		return nil, ErrStatusChanged
	}
	fn(&b)
	b.UpdatedAt = m.now()
	m.bookings[id] = b
	return &b, nil
}

func (m *MemoryRepository) Confirm(_ context.Context, id uuid.UUID, at time.Time) (*Booking, error) {
	return m.transition(id, []Status{StatusPending}, func(b *Booking) {
		b.Status = StatusConfirmed
		b.ConfirmedAt = &at
	})
}

func (m *MemoryRepository) Cancel(_ context.Context, id uuid.UUID, reason string) (*Booking, error) {
	return m.transition(id, []Status{StatusPending, StatusConfirmed}, func(b *Booking) {
		b.Status = StatusCancelled
		b.CancellationReason = &reason
	})
}

func (m *MemoryRepository) Reschedule(_ context.Context, id uuid.UUID, next SuccessorFunc) (*Booking, *Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.bookings[id]
	if !ok {
		return nil, nil, ErrBookingNotFound
	}
	successor, err := next(current)
	if err != nil {
		return nil, nil, err
	}

	old := current
	old.Status = StatusRescheduled
	old.UpdatedAt = m.now()
	m.bookings[id] = old

	created, err := m.insertLocked(successor)
	if err != nil {
		m.bookings[id] = current
		return nil, nil, err
	}
	return &old, created, nil
}

func (m *MemoryRepository) MarkMissed(_ context.Context, today calendar.Date, now calendar.TimeOfDay) ([]SlotRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []SlotRef
	for id, b := range m.bookings {
		if b.Status != StatusConfirmed || b.ConsultationID != nil {
			continue
		}
		overdue := b.ScheduledDate.Before(today) ||
			(b.ScheduledDate == today && b.TimeSlotEnd <= now)
		if !overdue {
			continue
		}
		b.Status = StatusMissed
		b.UpdatedAt = m.now()
		m.bookings[id] = b
		out = append(out, SlotRef{BookingID: id, VeterinarianID: b.VeterinarianID, ScheduledDate: b.ScheduledDate})
	}
	return out, nil
}

// AttachConsultation links a confirmed, unlinked booking to a consultation.
// The Postgres consultation repository does this in its insert statement.
func (m *MemoryRepository) AttachConsultation(_ context.Context, bookingID, consultationID uuid.UUID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[bookingID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	if b.Status != StatusConfirmed || b.ConsultationID != nil {
		return nil, ErrNotLinkable
	}
	cid := consultationID
	b.ConsultationID = &cid
	b.UpdatedAt = m.now()
	m.bookings[bookingID] = b
	return &b, nil
}

func statusIn(s Status, set []Status) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
