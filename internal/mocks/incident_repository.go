package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"citizen-registry/internal/domain"
)

type IncidentRepository struct {
	mock.Mock
}

func (m *IncidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	args := m.Called(ctx, incident)
	return args.Error(0)
}

func (m *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Incident), args.Error(1)
}

func (m *IncidentRepository) SetEvidence(ctx context.Context, id uuid.UUID, url string) (bool, error) {
	args := m.Called(ctx, id, url)
	return args.Bool(0), args.Error(1)
}

func (m *IncidentRepository) Decide(ctx context.Context, id uuid.UUID, status domain.IncidentStatus, reviewerID uuid.UUID, approvedAt *time.Time) (bool, error) {
	args := m.Called(ctx, id, status, reviewerID, approvedAt)
	return args.Bool(0), args.Error(1)
}

func (m *IncidentRepository) List(ctx context.Context, filter domain.IncidentFilter) ([]domain.Incident, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Incident), args.Error(1)
}
