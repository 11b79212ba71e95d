package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/vet-consult-scheduling/internal/db"
)

type PgStore struct {
	db db.DBTX
}

func NewPgStore(conn db.DBTX) *PgStore {
	return &PgStore{db: conn}
}

func (s *PgStore) Append(ctx context.Context, e Entry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO action_logs (user_id, user_role, action, booking_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
	`, e.UserID, e.UserRole, e.Action, e.BookingID, nullableJSON(e.Details), nullableTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert action log: %w", err)
	}
	return nil
}

func (s *PgStore) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, user_role, action, booking_id, details, created_at
		FROM action_logs
		WHERE booking_id = $1
		ORDER BY created_at, id
	`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list action logs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var details []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserRole, &e.Action, &e.BookingID, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action log: %w", err)
		}
		if len(details) > 0 {
			e.Details = append([]byte(nil), details...)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
