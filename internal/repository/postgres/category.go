package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

type categoryRepository struct {
	q queryer
}

func NewCategoryRepository(db *sqlx.DB) repository.CategoryRepository {
	return &categoryRepository{q: db}
}

func (r *categoryRepository) Get(ctx context.Context, id uuid.UUID) (*model.AppointmentCategory, error) {
	query := `
		SELECT id, name, created_at, updated_at, deleted_at
		FROM appointment_categories
		WHERE id = $1 AND deleted_at IS NULL
	`
	var category model.AppointmentCategory
	err := sqlx.GetContext(ctx, r.q, &category, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("category", err)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	windows, err := r.ListWindows(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Windows = windows
	return &category, nil
}

func (r *categoryRepository) ListWindows(ctx context.Context, categoryID uuid.UUID) ([]*model.CategoryWindow, error) {
	query := `
		SELECT id, category_id, weekday, start_time, end_time
		FROM category_availability
		WHERE category_id = $1
		ORDER BY weekday ASC, start_time ASC
	`
	var windows []*model.CategoryWindow
	if err := sqlx.SelectContext(ctx, r.q, &windows, query, categoryID); err != nil {
		return nil, fmt.Errorf("failed to list category windows: %w", err)
	}
	return windows, nil
}
