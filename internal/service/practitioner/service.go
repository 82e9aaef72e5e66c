package practitioner

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository"
)

type Service struct {
	practitioners repository.PractitionerRepository
}

func NewService(practitioners repository.PractitionerRepository) *Service {
	return &Service{practitioners: practitioners}
}

type CreateRequest struct {
	Name                string `json:"name" validate:"required"`
	Email               string `json:"email" validate:"required,email"`
	Phone               string `json:"phone,omitempty"`
	DefaultDurationMins int    `json:"default_duration_mins,omitempty" validate:"omitempty,min=5"`
}

func (s *Service) Create(ctx context.Context, req *CreateRequest) (*model.Practitioner, error) {
	if err := model.Validate(req); err != nil {
		return nil, err
	}

	practitioner := &model.Practitioner{
		Name:                req.Name,
		Email:               req.Email,
		Phone:               req.Phone,
		DefaultDurationMins: req.DefaultDurationMins,
	}
	if err := s.practitioners.Create(ctx, practitioner); err != nil {
		return nil, fmt.Errorf("failed to create practitioner: %w", err)
	}
	return practitioner, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Practitioner, error) {
	return s.practitioners.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.Practitioner, error) {
	return s.practitioners.List(ctx)
}
