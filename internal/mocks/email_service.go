package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"citizen-registry/internal/domain"
)

type EmailService struct {
	mock.Mock
}

func (m *EmailService) SendAccessApproved(ctx context.Context, toEmail, fullName string, role domain.UserRole) error {
	args := m.Called(ctx, toEmail, fullName, role)
	return args.Error(0)
}

func (m *EmailService) SendAccessRejected(ctx context.Context, toEmail, fullName string) error {
	args := m.Called(ctx, toEmail, fullName)
	return args.Error(0)
}
