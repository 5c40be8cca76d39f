package audit

import (
	"context"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/repository"
)

type Service interface {
	GetRecentActivities(ctx context.Context, limit int) ([]domain.AuditLog, error)
	List(ctx context.Context, params domain.PaginationParams) (*domain.PaginatedResponse[domain.AuditLog], error)
}

type service struct {
	auditRepo repository.AuditLogRepository
}

func NewService(auditRepo repository.AuditLogRepository) Service {
	return &service{
		auditRepo: auditRepo,
	}
}

func (s *service) GetRecentActivities(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	params := domain.PaginationParams{
		Page:     1,
		PageSize: limit,
	}
	params.Validate()

	logs, _, err := s.auditRepo.List(ctx, params)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("list audit logs", err)
	}
	return logs, nil
}

func (s *service) List(ctx context.Context, params domain.PaginationParams) (*domain.PaginatedResponse[domain.AuditLog], error) {
	params.Validate()

	logs, total, err := s.auditRepo.List(ctx, params)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("list audit logs", err)
	}
	resp := domain.NewPaginatedResponse(logs, params, total)
	return &resp, nil
}
