package consultation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/vet-consult-scheduling/internal/booking"
)

// BookingLinker marks a booking as owned by a consultation.
type BookingLinker interface {
	AttachConsultation(ctx context.Context, bookingID, consultationID uuid.UUID) (*booking.Booking, error)
}

type MemoryRepository struct {
	mu            sync.RWMutex
	consultations map[uuid.UUID]Consultation
	linker        BookingLinker
	now           func() time.Time
}

func NewMemoryRepository(linker BookingLinker) *MemoryRepository {
	return &MemoryRepository{
		consultations: make(map[uuid.UUID]Consultation),
		linker:        linker,
		now:           time.Now,
	}
}

func (m *MemoryRepository) Create(ctx context.Context, c Consultation) (*Consultation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.consultations {
		if existing.BookingID == c.BookingID {
			return nil, ErrConsultationExists
		}
	}
	if _, err := m.linker.AttachConsultation(ctx, c.BookingID, c.ID); err != nil {
		if errors.Is(err, booking.ErrNotLinkable) || errors.Is(err, booking.ErrBookingNotFound) {
			return nil, ErrBookingNotLinkable
		}
		return nil, err
	}

	now := m.now()
	c.CreatedAt, c.UpdatedAt = now, now
	m.consultations[c.ID] = c
	return &c, nil
}

func (m *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*Consultation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.consultations[id]
	if !ok {
		return nil, ErrConsultationNotFound
	}
	return &c, nil
}

func (m *MemoryRepository) GetByBooking(_ context.Context, bookingID uuid.UUID) (*Consultation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.consultations {
		if c.BookingID == bookingID {
			return &c, nil
		}
	}
	return nil, ErrConsultationNotFound
}

func (m *MemoryRepository) update(id uuid.UUID, allowed func(Status) bool, fn func(c *Consultation)) (*Consultation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.consultations[id]
	if !ok || !allowed(c.Status) {
		return nil, ErrStatusChanged
	}
	fn(&c)
	c.UpdatedAt = m.now()
	m.consultations[id] = c
	return &c, nil
}

func in(set []Status) func(Status) bool {
	return func(s Status) bool {
		for _, v := range set {
			if s == v {
				return true
			}
		}
		return false
	}
}

func (m *MemoryRepository) MarkInProgress(_ context.Context, id uuid.UUID, startedAt time.Time, from []Status) (*Consultation, error) {
	return m.update(id, in(from), func(c *Consultation) {
		c.Status = StatusInProgress
		if c.StartedAt == nil {
			c.StartedAt = &startedAt
		}
	})
}

func (m *MemoryRepository) MarkCompleted(_ context.Context, id uuid.UUID, completedAt time.Time, minutes int, from []Status) (*Consultation, error) {
	return m.update(id, in(from), func(c *Consultation) {
		c.Status = StatusCompleted
		c.CompletedAt = &completedAt
		c.DurationMinutes = minutes
	})
}

func (m *MemoryRepository) Cancel(_ context.Context, id uuid.UUID, from []Status) (*Consultation, error) {
	return m.update(id, in(from), func(c *Consultation) {
		c.Status = StatusCancelled
	})
}

func (m *MemoryRepository) RecordOutcome(_ context.Context, id uuid.UUID, diagnosis, prescription string) (*Consultation, error) {
	notCancelled := func(s Status) bool { return s != StatusCancelled }
	return m.update(id, notCancelled, func(c *Consultation) {
		c.Diagnosis = diagnosis
		c.Prescription = prescription
	})
}
