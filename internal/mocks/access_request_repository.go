package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"citizen-registry/internal/domain"
)

type AccessRequestRepository struct {
	mock.Mock
}

func (m *AccessRequestRepository) Create(ctx context.Context, req *domain.AccessRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *AccessRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccessRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccessRequest), args.Error(1)
}

func (m *AccessRequestRepository) HasPending(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *AccessRequestRepository) List(ctx context.Context, status *domain.AccessRequestStatus, params domain.PaginationParams) ([]domain.AccessRequest, int64, error) {
	args := m.Called(ctx, status, params)
	return args.Get(0).([]domain.AccessRequest), args.Get(1).(int64), args.Error(2)
}

func (m *AccessRequestRepository) ListRecent(ctx context.Context, limit int) ([]domain.AccessRequest, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.AccessRequest), args.Error(1)
}

func (m *AccessRequestRepository) Decide(ctx context.Context, id uuid.UUID, status domain.AccessRequestStatus, approverID uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, id, status, approverID, at)
	return args.Bool(0), args.Error(1)
}

func (m *AccessRequestRepository) CountByStatus(ctx context.Context, status domain.AccessRequestStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}
