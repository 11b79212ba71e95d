package schedule

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrRuleNotFound = errors.New("schedule rule not found")
	ErrRuleExists   = errors.New("schedule rule already exists for this day")
)

// Repository persists schedule rules. Updates and deletes are scoped to the
// owning veterinarian.
type Repository interface {
	Insert(ctx context.Context, r Rule) (*Rule, error)
	FindByVetAndDay(ctx context.Context, vetID uuid.UUID, day DayOfWeek) (*Rule, error)
	ListByVet(ctx context.Context, vetID uuid.UUID) ([]Rule, error)
	GetForVet(ctx context.Context, id, vetID uuid.UUID) (*Rule, error)
	Update(ctx context.Context, r Rule) (*Rule, error)
	Delete(ctx context.Context, id, vetID uuid.UUID) error
}
