// Package repository keeps a relational copy of booking state in PostgreSQL,
// rebuilt from booking events.
package repository

import (
	"context"
	"fmt"
	"time"

	"tibacare/pkg/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Transition is one row of booking_status_history.
type Transition struct {
	EventID    string       `json:"eventId"`
	BookingID  string       `json:"bookingId"`
	EventType  string       `json:"eventType"`
	FromStatus model.Status `json:"fromStatus,omitempty"`
	ToStatus   model.Status `json:"toStatus,omitempty"`
	OccurredAt time.Time    `json:"occurredAt"`
}

type ShadowRepository interface {
	// Apply records the event and updates the booking row. It reports false
	// when the event was already applied.
	Apply(ctx context.Context, event *model.BookingEvent) (bool, error)
	History(ctx context.Context, bookingID string) ([]Transition, error)
}

type querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type pgShadowRepository struct {
	db querier
}

func NewPostgresShadowRepository(pool *pgxpool.Pool) ShadowRepository {
	if pool == nil {
		panic("shadow: pgx pool required")
	}
	return &pgShadowRepository{db: pool}
}

func newShadowRepositoryWithQuerier(db querier) *pgShadowRepository {
	return &pgShadowRepository{db: db}
}

const insertHistorySQL = `
	INSERT INTO booking_status_history (event_id, booking_id, event_type, from_status, to_status, occurred_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (event_id) DO NOTHING
`

// Events may arrive out of order after a rebalance; an older
// event never overwrites a newer row.
const upsertShadowSQL = `
	INSERT INTO booking_shadow (booking_id, provider_id, preferred_time, preferred_date, patient_name, service, status, deleted, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (booking_id) DO UPDATE SET
		provider_id = EXCLUDED.provider_id,
		preferred_time = EXCLUDED.preferred_time,
		preferred_date = EXCLUDED.preferred_date,
		patient_name = EXCLUDED.patient_name,
		service = EXCLUDED.service,
		status = EXCLUDED.status,
		deleted = EXCLUDED.deleted,
		updated_at = EXCLUDED.updated_at
	WHERE booking_shadow.updated_at <= EXCLUDED.updated_at
`

func (r *pgShadowRepository) Apply(ctx context.Context, event *model.BookingEvent) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("shadow: begin: %w", err)
	}

	tag, err := tx.Exec(ctx, insertHistorySQL,
		event.EventID,
		event.BookingID,
		string(event.Type),
		string(event.FromStatus),
		string(event.ToStatus),
		event.OccurredAt,
	)
	if err != nil {
		_ = tx.Rollback(ctx)
		return false, fmt.Errorf("shadow: insert history: %w", err)
	}
	if tag.RowsAffected() == 0 {
		_ = tx.Rollback(ctx)
		return false, nil
	}

	row := shadowRow(event)
	if _, err := tx.Exec(ctx, upsertShadowSQL,
		row.bookingID,
		row.providerID,
		row.preferredTime,
		row.preferredDate,
		row.patientName,
		row.service,
		row.status,
		row.deleted,
		row.createdAt,
		event.OccurredAt,
	); err != nil {
		_ = tx.Rollback(ctx)
		return false, fmt.Errorf("shadow: upsert booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("shadow: commit: %w", err)
	}
	return true, nil
}

type bookingRow struct {
	bookingID     string
	providerID    string
	preferredTime string
	preferredDate string
	patientName   string
	service       string
	status        string
	deleted       bool
	createdAt     *time.Time
}

// shadowRow prefers the booking snapshot carried by the event. A delete
// keeps the last known status and sets the deleted flag.
func shadowRow(event *model.BookingEvent) bookingRow {
	row := bookingRow{
		bookingID:     event.BookingID,
		providerID:    event.ProviderID,
		preferredTime: event.PreferredTime,
		status:        string(event.ToStatus),
		deleted:       event.Type == model.EventBookingDeleted,
	}
	if b := event.Booking; b != nil {
		row.preferredDate = b.PreferredDate
		row.patientName = b.PatientName
		row.service = b.Service
		if !b.CreatedAt.IsZero() {
			createdAt := b.CreatedAt
			row.createdAt = &createdAt
		}
		if row.status == "" {
			row.status = string(b.Status)
		}
	}
	if row.status == "" {
		row.status = string(event.FromStatus)
	}
	return row
}

func (r *pgShadowRepository) History(ctx context.Context, bookingID string) ([]Transition, error) {
	rows, err := r.db.Query(ctx, `
		SELECT event_id, booking_id, event_type, from_status, to_status, occurred_at
		FROM booking_status_history
		WHERE booking_id = $1
		ORDER BY occurred_at, event_id
	`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("shadow: query history: %w", err)
	}
	defer rows.Close()

	transitions := []Transition{}
	for rows.Next() {
		var t Transition
		var from, to string
		if err := rows.Scan(&t.EventID, &t.BookingID, &t.EventType, &from, &to, &t.OccurredAt); err != nil {
			return nil, fmt.Errorf("shadow: scan history: %w", err)
		}
		t.FromStatus = model.Status(from)
		t.ToStatus = model.Status(to)
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("shadow: read history: %w", err)
	}
	return transitions, nil
}
