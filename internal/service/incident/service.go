package incident

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/metrics"
	"citizen-registry/internal/pkg/validate"
	"citizen-registry/internal/realtime"
	"citizen-registry/internal/repository"
	"citizen-registry/internal/service/media"
)

type Service interface {
	Submit(ctx context.Context, actor domain.Actor, input domain.IncidentInput) (*domain.Incident, error)
	AttachEvidence(ctx context.Context, id uuid.UUID, upload domain.Upload) (*domain.Incident, error)
	Approve(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Incident, error)
	Reject(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Incident, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
	List(ctx context.Context, filter domain.IncidentFilter) ([]domain.Incident, error)
}

type service struct {
	incidentRepo repository.IncidentRepository
	auditRepo    repository.AuditLogRepository
	mediaSvc     media.Service
	notifier     realtime.Notifier
	logger       *zap.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewService(
	incidentRepo repository.IncidentRepository,
	auditRepo repository.AuditLogRepository,
	mediaSvc media.Service,
	notifier realtime.Notifier,
	logger *zap.Logger,
	m *metrics.Metrics,
) Service {
	return &service{
		incidentRepo: incidentRepo,
		auditRepo:    auditRepo,
		mediaSvc:     mediaSvc,
		notifier:     notifier,
		logger:       logger,
		metrics:      m,
		now:          time.Now,
	}
}

// Submit files a report. actor.UserID is nil for anonymous reporters.
func (s *service) Submit(ctx context.Context, actor domain.Actor, input domain.IncidentInput) (*domain.Incident, error) {
	input.ReporterName = strings.TrimSpace(input.ReporterName)
	input.IncidentType = strings.TrimSpace(input.IncidentType)
	input.Location = strings.TrimSpace(input.Location)
	input.Description = strings.TrimSpace(input.Description)
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	priority := domain.PriorityMedium
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, domain.NewFieldError("priority", "must be one of: low medium high")
		}
		priority = *input.Priority
	}

	incident := &domain.Incident{
		ID:           uuid.New(),
		ReporterName: input.ReporterName,
		IncidentType: input.IncidentType,
		Location:     input.Location,
		Description:  input.Description,
		Priority:     priority,
		Status:       domain.IncidentPending,
		SubmittedBy:  actor.UserID,
	}
	if err := s.incidentRepo.Create(ctx, incident); err != nil {
		return nil, domain.NewRemoteUnavailable("create incident", err)
	}

	s.notifier.Changed(ctx, domain.TableIncidents, domain.ChangeInsert, incident.ID)
	return incident, nil
}

func (s *service) AttachEvidence(ctx context.Context, id uuid.UUID, upload domain.Upload) (*domain.Incident, error) {
	incident, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if incident.Status != domain.IncidentPending {
		return nil, &domain.ConflictError{Message: "evidence can only be attached to pending reports"}
	}

	obj, err := s.mediaSvc.Upload(ctx, domain.PrefixEvidence, upload, media.EvidenceTypes)
	if err != nil {
		return nil, err
	}

	ok, err := s.incidentRepo.SetEvidence(ctx, id, obj.URL)
	if err != nil || !ok {
		if rmErr := s.mediaSvc.Remove(ctx, obj.Path); rmErr != nil {
			s.logger.Warn("failed to remove orphaned evidence", zap.String("path", obj.Path), zap.Error(rmErr))
		}
		if err != nil {
			return nil, domain.NewRemoteUnavailable("attach evidence", err)
		}
		return nil, &domain.ConflictError{Message: "evidence can only be attached to pending reports"}
	}

	incident.EvidenceURL = &obj.URL
	s.notifier.Changed(ctx, domain.TableIncidents, domain.ChangeUpdate, id)
	return incident, nil
}

func (s *service) Approve(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Incident, error) {
	now := s.now().UTC()
	return s.decide(ctx, actor, id, domain.IncidentApproved, &now, domain.AuditIncidentApprove)
}

func (s *service) Reject(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Incident, error) {
	return s.decide(ctx, actor, id, domain.IncidentRejected, nil, domain.AuditIncidentReject)
}

func (s *service) decide(ctx context.Context, actor domain.Actor, id uuid.UUID, status domain.IncidentStatus, approvedAt *time.Time, action string) (*domain.Incident, error) {
	if actor.UserID == nil {
		return nil, &domain.ForbiddenError{Message: "a reviewer is required"}
	}

	incident, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if incident.Status != domain.IncidentPending {
		return nil, &domain.ConflictError{Message: "incident report is already " + string(incident.Status)}
	}

	ok, err := s.incidentRepo.Decide(ctx, id, status, *actor.UserID, approvedAt)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("review incident", err)
	}
	if !ok {
		return nil, &domain.ConflictError{Message: "incident report was reviewed by someone else"}
	}

	incident.Status = status
	incident.ReviewedBy = actor.UserID
	incident.ApprovedAt = approvedAt

	s.metrics.IncidentDecisions.WithLabelValues(string(status)).Inc()
	err = repository.CreateAuditLog(s.auditRepo, ctx, domain.CreateAuditLogInput{
		Actor:      actor,
		Action:     action,
		EntityType: domain.TableIncidents,
		EntityID:   id,
		OldValue:   map[string]interface{}{"status": domain.IncidentPending},
		NewValue:   map[string]interface{}{"status": status},
	})
	if err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
	s.notifier.Changed(ctx, domain.TableIncidents, domain.ChangeUpdate, id)
	return incident, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	incident, err := s.incidentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("get incident", err)
	}
	if incident == nil {
		return nil, domain.NewNotFoundError("incident", id)
	}
	return incident, nil
}

func (s *service) List(ctx context.Context, filter domain.IncidentFilter) ([]domain.Incident, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, domain.NewFieldError("status", "must be one of: pending approved rejected")
	}
	if filter.Priority != nil && !filter.Priority.IsValid() {
		return nil, domain.NewFieldError("priority", "must be one of: low medium high")
	}
	filter.Validate()

	incidents, err := s.incidentRepo.List(ctx, filter)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("list incidents", err)
	}
	return incidents, nil
}
