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

const appointmentColumns = `
	id, date, hour, status, custom_duration_mins, practitioner_id, patient_id,
	slot_id, schedule_id, category_id, duration_mins, reprogrammed,
	email_reminder_3h, email_reminder_24h, message_reminder_3h, message_reminder_24h,
	created_at, updated_at, deleted_at
`

type appointmentRepository struct {
	q queryer
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{q: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, date, hour, status, custom_duration_mins, practitioner_id,
			patient_id, slot_id, schedule_id, category_id, duration_mins,
			reprogrammed, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	_, err := r.q.ExecContext(ctx, query,
		appointment.ID,
		appointment.Date,
		appointment.Hour,
		appointment.Status,
		appointment.CustomDurationMins,
		appointment.PractitionerID,
		appointment.PatientID,
		appointment.SlotID,
		appointment.ScheduleID,
		appointment.CategoryID,
		appointment.DurationMins,
		appointment.Reprogrammed,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return apperrors.Conflict("time already booked for this practitioner", err)
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 AND deleted_at IS NULL`

	var appointment model.Appointment
	err := sqlx.GetContext(ctx, r.q, &appointment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE deleted_at IS NULL`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.PractitionerID != nil {
			query += fmt.Sprintf(" AND practitioner_id = $%d", argCount)
			args = append(args, *filters.PractitionerID)
			argCount++
		}
		if filters.PatientID != nil {
			query += fmt.Sprintf(" AND patient_id = $%d", argCount)
			args = append(args, *filters.PatientID)
			argCount++
		}
		if filters.Status != nil {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, *filters.Status)
			argCount++
		}
		if filters.DateFrom != "" {
			query += fmt.Sprintf(" AND date >= $%d", argCount)
			args = append(args, filters.DateFrom)
			argCount++
		}
		if filters.DateTo != "" {
			query += fmt.Sprintf(" AND date <= $%d", argCount)
			args = append(args, filters.DateTo)
			argCount++
		}
	}

	query += " ORDER BY date ASC, hour ASC"

	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.q, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// ListForPractitionerDate returns the non-cancelled appointments of one
// practitioner on one date, optionally excluding a single appointment
// (used when reprogramming so the moved booking does not collide with
// itself).
func (r *appointmentRepository) ListForPractitionerDate(ctx context.Context, practitionerID uuid.UUID, date string, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE practitioner_id = $1
		AND date = $2
		AND status != 'CANCELLED'
		AND deleted_at IS NULL
	`
	args := []interface{}{practitionerID, date}

	if excludeID != nil {
		query += " AND id != $3"
		args = append(args, *excludeID)
	}

	query += " ORDER BY hour ASC"

	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.q, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments for date: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	query := `UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`

	result, err := r.q.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}
	return nil
}

// Cancel marks the appointment CANCELLED and soft-deletes it in one write.
func (r *appointmentRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE appointments
		SET status = 'CANCELLED', deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.q.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}
	return nil
}

// Reprogram atomically moves the appointment to its new date, hour, slot and
// schedule and flags it as reprogrammed.
func (r *appointmentRepository) Reprogram(ctx context.Context, id uuid.UUID, date, hour string, slotID, scheduleID uuid.UUID) error {
	query := `
		UPDATE appointments
		SET date = $1, hour = $2, slot_id = $3, schedule_id = $4, reprogrammed = TRUE, updated_at = $5
		WHERE id = $6 AND deleted_at IS NULL
	`
	result, err := r.q.ExecContext(ctx, query, date, hour, slotID, scheduleID, time.Now(), id)
	if err != nil {
		if IsUniqueViolation(err) {
			return apperrors.Conflict("time already booked for this practitioner", err)
		}
		return fmt.Errorf("failed to reprogram appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}
	return nil
}

// ListInReminderWindow returns PENDING/APPROVED appointments on date whose
// hour lies in [fromHour, toHour).
func (r *appointmentRepository) ListInReminderWindow(ctx context.Context, date, fromHour, toHour string) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE date = $1
		AND hour >= $2
		AND hour < $3
		AND status IN ('PENDING', 'APPROVED')
		AND deleted_at IS NULL
		ORDER BY hour ASC
	`
	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.q, &appointments, query, date, fromHour, toHour); err != nil {
		return nil, fmt.Errorf("failed to list appointments in reminder window: %w", err)
	}
	return appointments, nil
}

// reminderColumn whitelists the four reminder state columns; field names are
// spliced into SQL and must never come from request input.
func reminderColumn(field model.ReminderField) (string, error) {
	switch field {
	case model.ReminderEmail3h, model.ReminderEmail24h, model.ReminderMessage3h, model.ReminderMessage24h:
		return string(field), nil
	}
	return "", fmt.Errorf("unknown reminder field %q", field)
}

func (r *appointmentRepository) SetReminderState(ctx context.Context, id uuid.UUID, field model.ReminderField, state model.ReminderState) error {
	column, err := reminderColumn(field)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE appointments SET %s = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`, column)

	result, err := r.q.ExecContext(ctx, query, state, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set reminder state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}
	return nil
}

// ClaimReminder transitions the channel column to QUEUED only if it is
// currently unset or FAILED. The rows-affected count makes the claim atomic:
// of any number of concurrent sweeps, exactly one sees true.
func (r *appointmentRepository) ClaimReminder(ctx context.Context, id uuid.UUID, field model.ReminderField) (bool, error) {
	column, err := reminderColumn(field)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`
		UPDATE appointments
		SET %s = 'QUEUED', updated_at = $1
		WHERE id = $2
		AND (%s IS NULL OR %s = 'FAILED')
		AND deleted_at IS NULL
	`, column, column, column)

	result, err := r.q.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// MarkAbsent transitions every still-PENDING appointment on date to ABSENT
// and reports how many rows changed.
func (r *appointmentRepository) MarkAbsent(ctx context.Context, date string) (int64, error) {
	query := `
		UPDATE appointments
		SET status = 'ABSENT', updated_at = $1
		WHERE date = $2 AND status = 'PENDING' AND deleted_at IS NULL
	`
	result, err := r.q.ExecContext(ctx, query, time.Now(), date)
	if err != nil {
		return 0, fmt.Errorf("failed to mark absentees: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
