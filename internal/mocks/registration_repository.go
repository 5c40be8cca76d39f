package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"citizen-registry/internal/domain"
)

type RegistrationRepository struct {
	mock.Mock
}

func (m *RegistrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

func (m *RegistrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Registration), args.Error(1)
}

func (m *RegistrationRepository) Update(ctx context.Context, reg *domain.Registration, expectedUpdatedAt *time.Time) (bool, error) {
	args := m.Called(ctx, reg, expectedUpdatedAt)
	return args.Bool(0), args.Error(1)
}

func (m *RegistrationRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.RegistrationStatus, expectedUpdatedAt *time.Time) (*domain.Registration, domain.RegistrationStatus, error) {
	args := m.Called(ctx, id, status, expectedUpdatedAt)
	previous, _ := args.Get(1).(domain.RegistrationStatus)
	if args.Get(0) == nil {
		return nil, previous, args.Error(2)
	}
	return args.Get(0).(*domain.Registration), previous, args.Error(2)
}

func (m *RegistrationRepository) SetPhoto(ctx context.Context, id uuid.UUID, url string) (bool, error) {
	args := m.Called(ctx, id, url)
	return args.Bool(0), args.Error(1)
}

func (m *RegistrationRepository) List(ctx context.Context, filter domain.RegistrationFilter) ([]domain.Registration, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Registration), args.Error(1)
}

func (m *RegistrationRepository) ListCreatedBetween(ctx context.Context, from, to time.Time, crimeType, state *string) ([]domain.Registration, error) {
	args := m.Called(ctx, from, to, crimeType, state)
	return args.Get(0).([]domain.Registration), args.Error(1)
}

func (m *RegistrationRepository) CountByStatus(ctx context.Context, status *domain.RegistrationStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}
