package registration

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/metrics"
	"citizen-registry/internal/pkg/validate"
	"citizen-registry/internal/realtime"
	"citizen-registry/internal/repository"
	"citizen-registry/internal/service/media"
)

const maxCodeAttempts = 3

type Service interface {
	SubmitCitizen(ctx context.Context, actor domain.Actor, input domain.CitizenRegistrationInput) (*domain.Registration, error)
	FlagSuspect(ctx context.Context, actor domain.Actor, input domain.SuspectRegistrationInput) (*domain.Registration, error)
	Update(ctx context.Context, actor domain.Actor, id uuid.UUID, input domain.UpdateRegistrationInput) (*domain.Registration, error)
	SetStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, input domain.SetStatusInput) (*domain.Registration, error)
	Unflag(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Registration, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Registration, error)
	List(ctx context.Context, filter domain.RegistrationFilter) ([]domain.Registration, error)
	AttachPhoto(ctx context.Context, actor domain.Actor, id uuid.UUID, upload domain.Upload) (*domain.Registration, error)
}

type service struct {
	regRepo   repository.RegistrationRepository
	auditRepo repository.AuditLogRepository
	mediaSvc  media.Service
	notifier  realtime.Notifier
	codes     *CodeGenerator
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewService(
	regRepo repository.RegistrationRepository,
	auditRepo repository.AuditLogRepository,
	mediaSvc media.Service,
	notifier realtime.Notifier,
	codes *CodeGenerator,
	logger *zap.Logger,
	m *metrics.Metrics,
) Service {
	return &service{
		regRepo:   regRepo,
		auditRepo: auditRepo,
		mediaSvc:  mediaSvc,
		notifier:  notifier,
		codes:     codes,
		logger:    logger,
		metrics:   m,
	}
}

func (s *service) SubmitCitizen(ctx context.Context, actor domain.Actor, input domain.CitizenRegistrationInput) (*domain.Registration, error) {
	trim(&input.FirstName, &input.LastName, &input.Gender, &input.PhoneNumber, &input.Address, &input.State, &input.LGA)
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	reg := &domain.Registration{
		ID:            uuid.New(),
		Kind:          domain.KindCitizen,
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		DateOfBirth:   input.DateOfBirth,
		Gender:        input.Gender,
		PhoneNumber:   input.PhoneNumber,
		Email:         input.Email,
		Address:       input.Address,
		State:         input.State,
		LGA:           input.LGA,
		Occupation:    input.Occupation,
		MaritalStatus: input.MaritalStatus,
		Status:        domain.RegistrationPending,
		CreatedBy:     actor.UserID,
	}

	if err := s.insert(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *service) FlagSuspect(ctx context.Context, actor domain.Actor, input domain.SuspectRegistrationInput) (*domain.Registration, error) {
	trim(&input.FirstName, &input.LastName, &input.CrimeType, &input.LastSeenLocation)
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	severity := domain.SeverityMedium
	if input.Severity != nil {
		if !input.Severity.IsValid() {
			return nil, domain.NewFieldError("severity", "must be one of: low medium high")
		}
		severity = *input.Severity
	}
	wanted := domain.WantedStatusWanted
	if input.WantedStatus != nil {
		if !input.WantedStatus.IsValid() {
			return nil, domain.NewFieldError("wanted_status", "must be one of: wanted arrested inactive")
		}
		wanted = *input.WantedStatus
	}

	reg := &domain.Registration{
		ID:               uuid.New(),
		Kind:             domain.KindSuspect,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		DateOfBirth:      input.DateOfBirth,
		Gender:           orDefault(input.Gender, domain.PlaceholderUnknown),
		PhoneNumber:      orDefault(input.PhoneNumber, domain.PlaceholderNotProvided),
		Address:          orDefault(input.Address, domain.PlaceholderUnknown),
		State:            orDefault(input.State, domain.PlaceholderUnknown),
		LGA:              orDefault(input.LGA, domain.PlaceholderUnknown),
		CrimeType:        &input.CrimeType,
		Severity:         &severity,
		WantedStatus:     &wanted,
		LastSeenLocation: &input.LastSeenLocation,
		LastSeenDate:     input.LastSeenDate,
		Notes:            input.Notes,
		Status:           domain.RegistrationFlagged,
		CreatedBy:        actor.UserID,
	}

	if err := s.insert(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// insert assigns a fresh code and writes reg, retrying on a code collision.
func (s *service) insert(ctx context.Context, reg *domain.Registration) error {
	var lastErr error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.codes.Next(reg.Kind)
		if err != nil {
			return fmt.Errorf("failed to generate registration code: %w", err)
		}
		reg.RegistrationCode = code

		err = s.regRepo.Create(ctx, reg)
		if err == nil {
			s.metrics.RegistrationsSubmitted.WithLabelValues(string(reg.Kind)).Inc()
			s.notifier.Changed(ctx, domain.TableRegistrations, domain.ChangeInsert, reg.ID)
			return nil
		}
		if !repository.IsUniqueViolation(err, repository.RegistrationCodeConstraint) {
			return domain.NewRemoteUnavailable("create registration", err)
		}
		lastErr = err
		s.logger.Warn("registration code collision, retrying", zap.String("code", code))
	}
	return domain.NewRemoteUnavailable("create registration", lastErr)
}

func (s *service) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, input domain.UpdateRegistrationInput) (*domain.Registration, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if input.Severity != nil && !input.Severity.IsValid() {
		return nil, domain.NewFieldError("severity", "must be one of: low medium high")
	}
	if input.WantedStatus != nil && !input.WantedStatus.IsValid() {
		return nil, domain.NewFieldError("wanted_status", "must be one of: wanted arrested inactive")
	}

	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *existing

	if input.IsEmpty() {
		if input.ExpectedUpdatedAt != nil && !existing.UpdatedAt.Equal(*input.ExpectedUpdatedAt) {
			return nil, errModified
		}
		return existing, nil
	}

	updated := *existing
	if input.CrimeType != nil {
		updated.CrimeType = input.CrimeType
	}
	if input.Severity != nil {
		updated.Severity = input.Severity
	}
	if input.WantedStatus != nil {
		updated.WantedStatus = input.WantedStatus
	}
	if input.LastSeenLocation != nil {
		updated.LastSeenLocation = input.LastSeenLocation
	}
	if input.LastSeenDate != nil {
		updated.LastSeenDate = input.LastSeenDate
	}
	if input.Notes != nil {
		updated.Notes = input.Notes
	}

	ok, err := s.regRepo.Update(ctx, &updated, input.ExpectedUpdatedAt)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("update registration", err)
	}
	if !ok {
		return nil, s.missOrConflict(ctx, id)
	}

	s.audit(ctx, actor, domain.AuditRegistrationEdit, id, before, updated)
	s.notifier.Changed(ctx, domain.TableRegistrations, domain.ChangeUpdate, id)
	return &updated, nil
}

func (s *service) SetStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, input domain.SetStatusInput) (*domain.Registration, error) {
	if !input.Status.IsValid() {
		return nil, domain.NewFieldError("status", "must be one of: pending verified flagged rejected")
	}

	reg, previous, err := s.regRepo.SetStatus(ctx, id, input.Status, input.ExpectedUpdatedAt)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("set registration status", err)
	}
	if reg == nil {
		return nil, s.missOrConflict(ctx, id)
	}

	s.audit(ctx, actor, domain.AuditStatusChange, id,
		map[string]domain.RegistrationStatus{"status": previous},
		map[string]domain.RegistrationStatus{"status": reg.Status},
	)
	s.notifier.Changed(ctx, domain.TableRegistrations, domain.ChangeUpdate, id)
	return reg, nil
}

func (s *service) Unflag(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Registration, error) {
	return s.SetStatus(ctx, actor, id, domain.SetStatusInput{Status: domain.RegistrationPending})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	return s.load(ctx, id)
}

func (s *service) List(ctx context.Context, filter domain.RegistrationFilter) ([]domain.Registration, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, domain.NewFieldError("status", "must be one of: pending verified flagged rejected")
	}
	if filter.WantedStatus != nil && !filter.WantedStatus.IsValid() {
		return nil, domain.NewFieldError("wanted_status", "must be one of: wanted arrested inactive")
	}

	regs, err := s.regRepo.List(ctx, filter)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("list registrations", err)
	}
	return regs, nil
}

func (s *service) AttachPhoto(ctx context.Context, actor domain.Actor, id uuid.UUID, upload domain.Upload) (*domain.Registration, error) {
	reg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	obj, err := s.mediaSvc.Upload(ctx, domain.PrefixPhotos, upload, media.ImageTypes)
	if err != nil {
		return nil, err
	}

	ok, err := s.regRepo.SetPhoto(ctx, id, obj.URL)
	if err != nil || !ok {
		if rmErr := s.mediaSvc.Remove(ctx, obj.Path); rmErr != nil {
			s.logger.Warn("failed to remove orphaned photo", zap.String("path", obj.Path), zap.Error(rmErr))
		}
		if err != nil {
			return nil, domain.NewRemoteUnavailable("attach photo", err)
		}
		return nil, domain.NewNotFoundError("registration", id)
	}

	reg.PhotoURL = &obj.URL
	s.notifier.Changed(ctx, domain.TableRegistrations, domain.ChangeUpdate, id)
	return reg, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	reg, err := s.regRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("get registration", err)
	}
	if reg == nil {
		return nil, domain.NewNotFoundError("registration", id)
	}
	return reg, nil
}

var errModified = &domain.ConflictError{Message: "registration was modified by someone else, reload and try again"}

// missOrConflict explains a conditional write that matched no row.
func (s *service) missOrConflict(ctx context.Context, id uuid.UUID) error {
	reg, err := s.regRepo.GetByID(ctx, id)
	if err != nil {
		return domain.NewRemoteUnavailable("get registration", err)
	}
	if reg == nil {
		return domain.NewNotFoundError("registration", id)
	}
	return errModified
}

func (s *service) audit(ctx context.Context, actor domain.Actor, action string, id uuid.UUID, oldValue, newValue interface{}) {
	err := repository.CreateAuditLog(s.auditRepo, ctx, domain.CreateAuditLogInput{
		Actor:      actor,
		Action:     action,
		EntityType: domain.TableRegistrations,
		EntityID:   id,
		OldValue:   oldValue,
		NewValue:   newValue,
	})
	if err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}

func orDefault(v *string, def string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return def
	}
	return strings.TrimSpace(*v)
}
