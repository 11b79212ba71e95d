package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps rules in process. It enforces the same (vet, day)
// uniqueness as the Postgres index.
type MemoryRepository struct {
	mu    sync.RWMutex
	rules map[uuid.UUID]Rule
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rules: make(map[uuid.UUID]Rule)}
}

func (m *MemoryRepository) Insert(_ context.Context, r Rule) (*Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dayTakenLocked(r.VeterinarianID, r.DayOfWeek, uuid.Nil) {
		return nil, ErrRuleExists
	}
	now := time.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	m.rules[r.ID] = r
	return &r, nil
}

func (m *MemoryRepository) FindByVetAndDay(_ context.Context, vetID uuid.UUID, day DayOfWeek) (*Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rules {
		if r.VeterinarianID == vetID && r.DayOfWeek == day {
			out := r
			return &out, nil
		}
	}
	return nil, ErrRuleNotFound
}

func (m *MemoryRepository) ListByVet(_ context.Context, vetID uuid.UUID) ([]Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Rule
	for _, r := range m.rules {
		if r.VeterinarianID == vetID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DayOfWeek.Index() < out[j].DayOfWeek.Index()
	})
	return out, nil
}

func (m *MemoryRepository) GetForVet(_ context.Context, id, vetID uuid.UUID) (*Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rules[id]
	if !ok || r.VeterinarianID != vetID {
		return nil, ErrRuleNotFound
	}
	return &r, nil
}

func (m *MemoryRepository) Update(_ context.Context, r Rule) (*Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.rules[r.ID]
	if !ok || existing.VeterinarianID != r.VeterinarianID {
		return nil, ErrRuleNotFound
	}
	if m.dayTakenLocked(r.VeterinarianID, r.DayOfWeek, r.ID) {
		return nil, ErrRuleExists
	}
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now()
	m.rules[r.ID] = r
	return &r, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id, vetID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok || r.VeterinarianID != vetID {
		return ErrRuleNotFound
	}
	delete(m.rules, id)
	return nil
}

func (m *MemoryRepository) dayTakenLocked(vetID uuid.UUID, day DayOfWeek, except uuid.UUID) bool {
	for id, r := range m.rules {
		if id != except && r.VeterinarianID == vetID && r.DayOfWeek == day {
			return true
		}
	}
	return false
}
