package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/vet-consult-scheduling/internal/calendar"
	"github.com/hackgods/vet-consult-scheduling/internal/db"
)

const ruleColumns = `id, veterinarian_id, day_of_week,
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	slot_duration_minutes, max_appointments, is_active, created_at, updated_at`

const vetDayIndex = "schedule_rules_vet_day_key"

type PgRepository struct {
	db db.DBTX
}

func NewPgRepository(conn db.DBTX) *PgRepository {
	return &PgRepository{db: conn}
}

func scanRule(row pgx.Row) (*Rule, error) {
	var r Rule
	var day, start, end string

	err := row.Scan(
		&r.ID,
		&r.VeterinarianID,
		&day,
		&start,
		&end,
		&r.SlotDurationMinutes,
		&r.MaxAppointments,
		&r.IsActive,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}

	r.DayOfWeek = DayOfWeek(day)
	if r.StartTime, err = calendar.ParseTimeOfDay(start); err != nil {
		return nil, fmt.Errorf("rule %s start_time: %w", r.ID, err)
	}
	if r.EndTime, err = calendar.ParseTimeOfDay(end); err != nil {
		return nil, fmt.Errorf("rule %s end_time: %w", r.ID, err)
	}
	return &r, nil
}

func (p *PgRepository) Insert(ctx context.Context, r Rule) (*Rule, error) {
	row := p.db.QueryRow(ctx, `
		INSERT INTO schedule_rules
			(id, veterinarian_id, day_of_week, start_time, end_time,
			 slot_duration_minutes, max_appointments, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4::time, $5::time, $6, $7, $8, now(), now())
		RETURNING `+ruleColumns,
		r.ID, r.VeterinarianID, string(r.DayOfWeek), r.StartTime.String(), r.EndTime.String(),
		r.SlotDurationMinutes, r.MaxAppointments, r.IsActive)

	created, err := scanRule(row)
	if err != nil {
		if db.IsUniqueViolation(err, vetDayIndex) {
			return nil, ErrRuleExists
		}
		return nil, fmt.Errorf("insert schedule rule: %w", err)
	}
	return created, nil
}

func (p *PgRepository) FindByVetAndDay(ctx context.Context, vetID uuid.UUID, day DayOfWeek) (*Rule, error) {
	row := p.db.QueryRow(ctx, `
		SELECT `+ruleColumns+`
		FROM schedule_rules
		WHERE veterinarian_id = $1 AND day_of_week = $2
	`, vetID, string(day))
	return scanRule(row)
}

func (p *PgRepository) ListByVet(ctx context.Context, vetID uuid.UUID) ([]Rule, error) {
	rows, err := p.db.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM schedule_rules
		WHERE veterinarian_id = $1
		ORDER BY array_position(
			ARRAY['monday','tuesday','wednesday','thursday','friday','saturday','sunday'],
			day_of_week)
	`, vetID)
	if err != nil {
		return nil, fmt.Errorf("list schedule rules: %w", err)
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *PgRepository) GetForVet(ctx context.Context, id, vetID uuid.UUID) (*Rule, error) {
	row := p.db.QueryRow(ctx, `
		SELECT `+ruleColumns+`
		FROM schedule_rules
		WHERE id = $1 AND veterinarian_id = $2
	`, id, vetID)
	return scanRule(row)
}

func (p *PgRepository) Update(ctx context.Context, r Rule) (*Rule, error) {
	row := p.db.QueryRow(ctx, `
		UPDATE schedule_rules
		SET day_of_week = $3,
		    start_time = $4::time,
		    end_time = $5::time,
		    slot_duration_minutes = $6,
		    max_appointments = $7,
		    is_active = $8,
		    updated_at = now()
		WHERE id = $1 AND veterinarian_id = $2
		RETURNING `+ruleColumns,
		r.ID, r.VeterinarianID, string(r.DayOfWeek), r.StartTime.String(), r.EndTime.String(),
		r.SlotDurationMinutes, r.MaxAppointments, r.IsActive)

	updated, err := scanRule(row)
	if err != nil {
		if db.IsUniqueViolation(err, vetDayIndex) {
			return nil, ErrRuleExists
		}
		if errors.Is(err, ErrRuleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update schedule rule: %w", err)
	}
	return updated, nil
}

func (p *PgRepository) Delete(ctx context.Context, id, vetID uuid.UUID) error {
	tag, err := p.db.Exec(ctx, `
		DELETE FROM schedule_rules
		WHERE id = $1 AND veterinarian_id = $2
	`, id, vetID)
	if err != nil {
		return fmt.Errorf("delete schedule rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}
