package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/vet-consult-scheduling/internal/apperrors"
)

const maxSlotDurationMinutes = 24 * 60

// RuleObserver is told after a vet's weekly rules change.
type RuleObserver interface {
	RulesChanged(ctx context.Context, vetID uuid.UUID)
}

// Service is the schedule store: one weekly template rule per vet and day.
type Service struct {
	repo     Repository
	observer RuleObserver
	logger   zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) WithObserver(o RuleObserver) *Service {
	s.observer = o
	return s
}

func (s *Service) changed(ctx context.Context, vetID uuid.UUID) {
	if s.observer != nil {
		s.observer.RulesChanged(ctx, vetID)
	}
}

// CreateRule adds a rule; a second rule for the same vet and day is a conflict.
func (s *Service) CreateRule(ctx context.Context, in NewRule) (*Rule, error) {
	if in.SlotDurationMinutes == 0 {
		in.SlotDurationMinutes = DefaultSlotDurationMinutes
	}
	r := Rule{
		ID:                  uuid.New(),
		VeterinarianID:      in.VeterinarianID,
		DayOfWeek:           in.DayOfWeek,
		StartTime:           in.StartTime,
		EndTime:             in.EndTime,
		SlotDurationMinutes: in.SlotDurationMinutes,
		MaxAppointments:     in.MaxAppointments,
		IsActive:            true,
	}
	if err := validateRule(r); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByVetAndDay(ctx, r.VeterinarianID, r.DayOfWeek)
	if err != nil && !errors.Is(err, ErrRuleNotFound) {
		return nil, fmt.Errorf("check existing rule: %w", err)
	}
	if existing != nil {
		return nil, apperrors.Conflict(ErrRuleExists, "a schedule rule already exists for %s", r.DayOfWeek)
	}

	created, err := s.repo.Insert(ctx, r)
	if err != nil {
		if errors.Is(err, ErrRuleExists) {
			return nil, apperrors.Conflict(err, "a schedule rule already exists for %s", r.DayOfWeek)
		}
		return nil, err
	}
	s.changed(ctx, created.VeterinarianID)

	s.logger.Info().
		Str("vet_id", created.VeterinarianID.String()).
		Str("day", string(created.DayOfWeek)).
		Str("rule_id", created.ID.String()).
		Msg("schedule rule created")
	return created, nil
}

// GetRules returns the vet's rules Monday through Sunday.
func (s *Service) GetRules(ctx context.Context, vetID uuid.UUID) ([]Rule, error) {
	rules, err := s.repo.ListByVet(ctx, vetID)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		rules = []Rule{}
	}
	return rules, nil
}

// UpdateRule patches a rule owned by vetID.
func (s *Service) UpdateRule(ctx context.Context, ruleID, vetID uuid.UUID, patch RulePatch) (*Rule, error) {
	current, err := s.repo.GetForVet(ctx, ruleID, vetID)
	if err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			return nil, apperrors.NotFound("schedule rule %s not found", ruleID)
		}
		return nil, fmt.Errorf("load schedule rule: %w", err)
	}

	next := *current
	patch.apply(&next)
	if err := validateRule(next); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, next)
	switch {
	case errors.Is(err, ErrRuleNotFound):
		return nil, apperrors.NotFound("schedule rule %s not found", ruleID)
	case errors.Is(err, ErrRuleExists):
		return nil, apperrors.Conflict(err, "a schedule rule already exists for %s", next.DayOfWeek)
	case err != nil:
		return nil, err
	}
	s.changed(ctx, vetID)
	return updated, nil
}

// DeleteRule removes a rule owned by vetID.
func (s *Service) DeleteRule(ctx context.Context, ruleID, vetID uuid.UUID) error {
	err := s.repo.Delete(ctx, ruleID, vetID)
	if errors.Is(err, ErrRuleNotFound) {
		return apperrors.NotFound("schedule rule %s not found", ruleID)
	}
	if err != nil {
		return err
	}
	s.changed(ctx, vetID)
	return nil
}

// ActiveRule returns the active rule for the vet and day, or nil if there is none.
func (s *Service) ActiveRule(ctx context.Context, vetID uuid.UUID, day DayOfWeek) (*Rule, error) {
	r, err := s.repo.FindByVetAndDay(ctx, vetID, day)
	if errors.Is(err, ErrRuleNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load schedule rule: %w", err)
	}
	if !r.IsActive {
		return nil, nil
	}
	return r, nil
}

func validateRule(r Rule) error {
	if r.VeterinarianID == uuid.Nil {
		return apperrors.Validation("veterinarian id is required")
	}
	if r.DayOfWeek.Index() < 0 {
		return apperrors.Validation("invalid day of week %q", r.DayOfWeek)
	}
	if !r.StartTime.Valid() || !r.EndTime.Valid() {
		return apperrors.Validation("start and end time must be valid HH:MM times")
	}
	if r.StartTime >= r.EndTime {
		return apperrors.Validation("start time must be before end time")
	}
	if r.SlotDurationMinutes <= 0 || r.SlotDurationMinutes > maxSlotDurationMinutes {
		return apperrors.Validation("slot duration must be between 1 and %d minutes", maxSlotDurationMinutes)
	}
	if r.MaxAppointments < 0 {
		return apperrors.Validation("max appointments cannot be negative")
	}
	return nil
}
