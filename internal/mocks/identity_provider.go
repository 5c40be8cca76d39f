package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/service/identity"
)

type IdentityProvider struct {
	mock.Mock
}

func (m *IdentityProvider) SignIn(ctx context.Context, input domain.LoginInput, client domain.Actor) (*domain.Session, error) {
	args := m.Called(ctx, input, client)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *IdentityProvider) SignOut(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *IdentityProvider) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *IdentityProvider) CreateUser(ctx context.Context, email, password string) (*domain.Identity, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *IdentityProvider) DeleteUser(ctx context.Context, identityID uuid.UUID) error {
	args := m.Called(ctx, identityID)
	return args.Error(0)
}

func (m *IdentityProvider) ValidateAccessToken(token string) (*identity.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Claims), args.Error(1)
}

func (m *IdentityProvider) PurgeExpiredSessions(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
