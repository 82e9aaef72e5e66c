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

type patientRepository struct {
	q queryer
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{q: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, name, document, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	patient.ID = uuid.New()
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	_, err := r.q.ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.Document,
		patient.Email,
		patient.Phone,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `
		SELECT id, name, document, email, phone, created_at, updated_at, deleted_at
		FROM patients
		WHERE id = $1 AND deleted_at IS NULL
	`
	var patient model.Patient
	err := sqlx.GetContext(ctx, r.q, &patient, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) FindByDocument(ctx context.Context, document string) (*model.Patient, error) {
	query := `
		SELECT id, name, document, email, phone, created_at, updated_at, deleted_at
		FROM patients
		WHERE document = $1 AND deleted_at IS NULL
	`
	var patient model.Patient
	err := sqlx.GetContext(ctx, r.q, &patient, query, document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to find patient by document: %w", err)
	}
	return &patient, nil
}
