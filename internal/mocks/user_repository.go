package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"citizen-registry/internal/domain"
)

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *domain.UserAccount) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserAccount), args.Error(1)
}

func (m *UserRepository) GetByIdentityID(ctx context.Context, identityID uuid.UUID) (*domain.UserAccount, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserAccount), args.Error(1)
}

func (m *UserRepository) List(ctx context.Context, filter domain.UserFilter) ([]domain.UserAccount, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.UserAccount), args.Error(1)
}

func (m *UserRepository) UpdateProfile(ctx context.Context, user *domain.UserAccount) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) SetRole(ctx context.Context, id uuid.UUID, role domain.UserRole) (bool, error) {
	args := m.Called(ctx, id, role)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	args := m.Called(ctx, id, active)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) SetAvatar(ctx context.Context, id uuid.UUID, url string) (bool, error) {
	args := m.Called(ctx, id, url)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) TouchLastLogin(ctx context.Context, identityID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, identityID, at)
	return args.Error(0)
}

func (m *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *UserRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
