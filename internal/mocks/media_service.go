package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"citizen-registry/internal/domain"
)

type MediaService struct {
	mock.Mock
}

func (m *MediaService) Upload(ctx context.Context, prefix string, upload domain.Upload, allowed []string) (*domain.StoredObject, error) {
	args := m.Called(ctx, prefix, upload, allowed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoredObject), args.Error(1)
}

func (m *MediaService) Remove(ctx context.Context, objectPath string) error {
	args := m.Called(ctx, objectPath)
	return args.Error(0)
}
