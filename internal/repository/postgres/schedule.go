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

type scheduleRepository struct {
	q queryer
}

func NewScheduleRepository(db *sqlx.DB) repository.ScheduleRepository {
	return &scheduleRepository{q: db}
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *model.SlotSchedule) error {
	query := `
		INSERT INTO slot_schedules (id, opening_hour, close_hour, overtime_start_hour, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	schedule.ID = uuid.New()
	schedule.CreatedAt = time.Now()
	schedule.UpdatedAt = time.Now()

	_, err := r.q.ExecContext(ctx, query,
		schedule.ID,
		schedule.OpeningHour,
		schedule.CloseHour,
		schedule.OvertimeStartHour,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.SlotSchedule, error) {
	query := `
		SELECT id, opening_hour, close_hour, overtime_start_hour, created_at, updated_at, deleted_at
		FROM slot_schedules
		WHERE id = $1 AND deleted_at IS NULL
	`
	var schedule model.SlotSchedule
	err := sqlx.GetContext(ctx, r.q, &schedule, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("schedule", err)
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &schedule, nil
}

func (r *scheduleRepository) Update(ctx context.Context, schedule *model.SlotSchedule) error {
	query := `
		UPDATE slot_schedules
		SET opening_hour = $1, close_hour = $2, overtime_start_hour = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`
	schedule.UpdatedAt = time.Now()

	result, err := r.q.ExecContext(ctx, query,
		schedule.OpeningHour,
		schedule.CloseHour,
		schedule.OvertimeStartHour,
		schedule.UpdatedAt,
		schedule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("schedule", nil)
	}
	return nil
}

// FindByTriple looks up the shared schedule row matching the exact
// (opening, close, overtime) triple.
func (r *scheduleRepository) FindByTriple(ctx context.Context, triple model.ScheduleTriple) (*model.SlotSchedule, error) {
	query := `
		SELECT id, opening_hour, close_hour, overtime_start_hour, created_at, updated_at, deleted_at
		FROM slot_schedules
		WHERE opening_hour = $1
		AND close_hour = $2
		AND overtime_start_hour IS NOT DISTINCT FROM $3
		AND deleted_at IS NULL
		ORDER BY id ASC
		LIMIT 1
	`
	var overtime *string
	if triple.OvertimeStartHour != "" {
		overtime = &triple.OvertimeStartHour
	}

	var schedule model.SlotSchedule
	err := sqlx.GetContext(ctx, r.q, &schedule, query, triple.OpeningHour, triple.CloseHour, overtime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("schedule", err)
		}
		return nil, fmt.Errorf("failed to find schedule by range: %w", err)
	}
	return &schedule, nil
}

func (r *scheduleRepository) ListForSlot(ctx context.Context, slotID uuid.UUID) ([]*model.SlotSchedule, error) {
	query := `
		SELECT s.id, s.opening_hour, s.close_hour, s.overtime_start_hour, s.created_at, s.updated_at, s.deleted_at
		FROM slot_schedules s
		JOIN slot_schedule_ranges r ON r.schedule_id = s.id
		WHERE r.slot_id = $1 AND s.deleted_at IS NULL
		ORDER BY s.opening_hour ASC, s.id ASC
	`
	var schedules []*model.SlotSchedule
	if err := sqlx.SelectContext(ctx, r.q, &schedules, query, slotID); err != nil {
		return nil, fmt.Errorf("failed to list schedules for slot: %w", err)
	}
	return schedules, nil
}
