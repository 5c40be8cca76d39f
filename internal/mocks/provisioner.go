package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"citizen-registry/internal/domain"
)

type Provisioner struct {
	mock.Mock
}

func (m *Provisioner) Provision(ctx context.Context, account *domain.UserAccount, password string) error {
	args := m.Called(ctx, account, password)
	return args.Error(0)
}

func (m *Provisioner) Deprovision(ctx context.Context, account *domain.UserAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}
