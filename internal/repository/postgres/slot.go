package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

type slotRepository struct {
	q queryer
}

func NewSlotRepository(db *sqlx.DB) repository.SlotRepository {
	return &slotRepository{q: db}
}

func (r *slotRepository) Create(ctx context.Context, slot *model.AppointmentSlot) error {
	query := `
		INSERT INTO appointment_slots (id, practitioner_id, weekday, unavailable, duration_mins, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	slot.ID = uuid.New()
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = time.Now()

	_, err := r.q.ExecContext(ctx, query,
		slot.ID,
		slot.PractitionerID,
		slot.Weekday,
		slot.Unavailable,
		slot.DurationMins,
		slot.Location,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create slot: %w", err)
	}
	return nil
}

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.AppointmentSlot, error) {
	query := `
		SELECT id, practitioner_id, weekday, unavailable, duration_mins, location, created_at, updated_at, deleted_at
		FROM appointment_slots
		WHERE id = $1 AND deleted_at IS NULL
	`
	var slot model.AppointmentSlot
	err := sqlx.GetContext(ctx, r.q, &slot, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("slot", err)
		}
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}

	if err := r.loadSchedules(ctx, []*model.AppointmentSlot{&slot}); err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepository) Update(ctx context.Context, slot *model.AppointmentSlot) error {
	query := `
		UPDATE appointment_slots
		SET unavailable = $1, duration_mins = $2, location = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`
	slot.UpdatedAt = time.Now()

	result, err := r.q.ExecContext(ctx, query,
		slot.Unavailable,
		slot.DurationMins,
		slot.Location,
		slot.UpdatedAt,
		slot.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("slot", nil)
	}
	return nil
}

func (r *slotRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE appointment_slots SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.q.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("slot", nil)
	}
	return nil
}

func (r *slotRepository) Restore(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE appointment_slots SET deleted_at = NULL, updated_at = $1 WHERE id = $2 AND deleted_at IS NOT NULL`

	result, err := r.q.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to restore slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("slot", nil)
	}
	return nil
}

func (r *slotRepository) ListForPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*model.AppointmentSlot, error) {
	query := `
		SELECT id, practitioner_id, weekday, unavailable, duration_mins, location, created_at, updated_at, deleted_at
		FROM appointment_slots
		WHERE practitioner_id = $1 AND deleted_at IS NULL
		ORDER BY weekday ASC, id ASC
	`
	var slots []*model.AppointmentSlot
	if err := sqlx.SelectContext(ctx, r.q, &slots, query, practitionerID); err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	if err := r.loadSchedules(ctx, slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// ListForWeekday returns the practitioner's slots for one weekday, ordered
// by id so resolution over them is deterministic.
func (r *slotRepository) ListForWeekday(ctx context.Context, practitionerID uuid.UUID, weekday time.Weekday, includeUnavailable bool) ([]*model.AppointmentSlot, error) {
	query := `
		SELECT id, practitioner_id, weekday, unavailable, duration_mins, location, created_at, updated_at, deleted_at
		FROM appointment_slots
		WHERE practitioner_id = $1 AND weekday = $2 AND deleted_at IS NULL
	`
	if !includeUnavailable {
		query += " AND unavailable = FALSE"
	}
	query += " ORDER BY id ASC"

	var slots []*model.AppointmentSlot
	if err := sqlx.SelectContext(ctx, r.q, &slots, query, practitionerID, weekday); err != nil {
		return nil, fmt.Errorf("failed to list slots for weekday: %w", err)
	}

	if err := r.loadSchedules(ctx, slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *slotRepository) AttachSchedules(ctx context.Context, slotID uuid.UUID, scheduleIDs []uuid.UUID) error {
	query := `
		INSERT INTO slot_schedule_ranges (slot_id, schedule_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	for _, scheduleID := range scheduleIDs {
		if _, err := r.q.ExecContext(ctx, query, slotID, scheduleID); err != nil {
			return fmt.Errorf("failed to attach schedule to slot: %w", err)
		}
	}
	return nil
}

// ReplaceSchedules swaps the slot's schedule set wholesale. An empty list
// clears it.
func (r *slotRepository) ReplaceSchedules(ctx context.Context, slotID uuid.UUID, scheduleIDs []uuid.UUID) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM slot_schedule_ranges WHERE slot_id = $1`, slotID); err != nil {
		return fmt.Errorf("failed to clear slot schedules: %w", err)
	}
	return r.AttachSchedules(ctx, slotID, scheduleIDs)
}

// loadSchedules fills each slot's Schedules, ordered by opening hour then id.
func (r *slotRepository) loadSchedules(ctx context.Context, slots []*model.AppointmentSlot) error {
	if len(slots) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(slots))
	byID := make(map[uuid.UUID]*model.AppointmentSlot, len(slots))
	for i, slot := range slots {
		ids[i] = slot.ID
		byID[slot.ID] = slot
	}

	query, args, err := sqlx.In(`
		SELECT r.slot_id AS slot_id, s.id, s.opening_hour, s.close_hour, s.overtime_start_hour, s.created_at, s.updated_at, s.deleted_at
		FROM slot_schedules s
		JOIN slot_schedule_ranges r ON r.schedule_id = s.id
		WHERE r.slot_id IN (?) AND s.deleted_at IS NULL
		ORDER BY s.opening_hour ASC, s.id ASC
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to build schedule query: %w", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var rows []struct {
		SlotID uuid.UUID `db:"slot_id"`
		model.SlotSchedule
	}
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, args...); err != nil {
		return fmt.Errorf("failed to load slot schedules: %w", err)
	}

	for i := range rows {
		slot := byID[rows[i].SlotID]
		schedule := rows[i].SlotSchedule
		slot.Schedules = append(slot.Schedules, &schedule)
	}
	return nil
}
