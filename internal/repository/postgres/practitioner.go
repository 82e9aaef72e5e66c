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

type practitionerRepository struct {
	q queryer
}

func NewPractitionerRepository(db *sqlx.DB) repository.PractitionerRepository {
	return &practitionerRepository{q: db}
}

func (r *practitionerRepository) Create(ctx context.Context, practitioner *model.Practitioner) error {
	query := `
		INSERT INTO practitioners (id, name, email, phone, default_duration_mins, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	practitioner.ID = uuid.New()
	practitioner.CreatedAt = time.Now()
	practitioner.UpdatedAt = time.Now()

	_, err := r.q.ExecContext(ctx, query,
		practitioner.ID,
		practitioner.Name,
		practitioner.Email,
		practitioner.Phone,
		practitioner.DefaultDurationMins,
		practitioner.CreatedAt,
		practitioner.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create practitioner: %w", err)
	}
	return nil
}

func (r *practitionerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Practitioner, error) {
	query := `
		SELECT id, name, email, phone, default_duration_mins, created_at, updated_at, deleted_at
		FROM practitioners
		WHERE id = $1 AND deleted_at IS NULL
	`
	var practitioner model.Practitioner
	err := sqlx.GetContext(ctx, r.q, &practitioner, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("practitioner", err)
		}
		return nil, fmt.Errorf("failed to get practitioner: %w", err)
	}
	return &practitioner, nil
}

func (r *practitionerRepository) List(ctx context.Context) ([]*model.Practitioner, error) {
	query := `
		SELECT id, name, email, phone, default_duration_mins, created_at, updated_at, deleted_at
		FROM practitioners
		WHERE deleted_at IS NULL
		ORDER BY name ASC
	`
	var practitioners []*model.Practitioner
	if err := sqlx.SelectContext(ctx, r.q, &practitioners, query); err != nil {
		return nil, fmt.Errorf("failed to list practitioners: %w", err)
	}
	return practitioners, nil
}
