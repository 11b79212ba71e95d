package videosession

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]Session
	order    []uuid.UUID
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[uuid.UUID]Session), now: time.Now}
}

func (m *MemoryRepository) Insert(_ context.Context, s Session) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.liveLocked(s.ConsultationID) != nil {
		return nil, ErrLiveSessionExists
	}
	now := m.now()
	s.CreatedAt, s.UpdatedAt = now, now
	m.sessions[s.ID] = s
	m.order = append(m.order, s.ID)
	return &s, nil
}

func (m *MemoryRepository) liveLocked(consultationID uuid.UUID) *Session {
	for i := len(m.order) - 1; i >= 0; i-- {
		s := m.sessions[m.order[i]]
		if s.ConsultationID == consultationID && s.Status != StatusEnded {
			return &s
		}
	}
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemoryRepository) GetByRoom(_ context.Context, roomID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.RoomID == roomID {
			return &s, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (m *MemoryRepository) FindLive(_ context.Context, consultationID uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s := m.liveLocked(consultationID); s != nil {
		return s, nil
	}
	return nil, ErrSessionNotFound
}

func (m *MemoryRepository) LatestForConsultation(_ context.Context, consultationID uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		if s := m.sessions[m.order[i]]; s.ConsultationID == consultationID {
			return &s, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (m *MemoryRepository) Start(_ context.Context, id uuid.UUID, at time.Time) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.Status != StatusWaiting {
		return nil, ErrStatusChanged
	}
	s.Status = StatusActive
	s.StartedAt = &at
	s.UpdatedAt = m.now()
	m.sessions[id] = s
	return &s, nil
}

func (m *MemoryRepository) End(_ context.Context, id uuid.UUID, at time.Time, recordingURL *string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.Status == StatusEnded {
		return nil, ErrStatusChanged
	}
	s.Status = StatusEnded
	s.EndedAt = &at
	s.DurationSeconds = elapsedSeconds(s.StartedAt, at)
	if recordingURL != nil {
		s.RecordingURL = recordingURL
	}
	s.UpdatedAt = m.now()
	m.sessions[id] = s
	return &s, nil
}
