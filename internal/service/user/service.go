package user

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/pkg/validate"
	"citizen-registry/internal/realtime"
	"citizen-registry/internal/repository"
	"citizen-registry/internal/service/media"
)

type Service interface {
	CreateByAdmin(ctx context.Context, actor domain.Actor, input domain.CreateUserInput) (*domain.UserAccount, error)
	List(ctx context.Context, filter domain.UserFilter) ([]domain.UserAccount, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.UserAccount, error)
	GetByIdentity(ctx context.Context, identityID uuid.UUID) (*domain.UserAccount, error)
	SetActive(ctx context.Context, actor domain.Actor, id uuid.UUID, active bool) (*domain.UserAccount, error)
	ChangeRole(ctx context.Context, actor domain.Actor, id uuid.UUID, role domain.UserRole) (*domain.UserAccount, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input domain.UpdateProfileInput) (*domain.UserAccount, error)
	UploadAvatar(ctx context.Context, id uuid.UUID, upload domain.Upload) (*domain.UserAccount, error)
}

type service struct {
	userRepo    repository.UserRepository
	auditRepo   repository.AuditLogRepository
	provisioner Provisioner
	mediaSvc    media.Service
	notifier    realtime.Notifier
	logger      *zap.Logger
}

func NewService(
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	provisioner Provisioner,
	mediaSvc media.Service,
	notifier realtime.Notifier,
	logger *zap.Logger,
) Service {
	return &service{
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		provisioner: provisioner,
		mediaSvc:    mediaSvc,
		notifier:    notifier,
		logger:      logger,
	}
}

func (s *service) CreateByAdmin(ctx context.Context, actor domain.Actor, input domain.CreateUserInput) (*domain.UserAccount, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = domain.RoleViewer
	}

	account := &domain.UserAccount{
		Email:       input.Email,
		FullName:    input.FullName,
		Role:        input.Role,
		Department:  input.Department,
		Rank:        input.Rank,
		Unit:        input.Unit,
		PhoneNumber: input.PhoneNumber,
		IsActive:    true,
	}
	if err := s.provisioner.Provision(ctx, account, input.Password); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, domain.AuditUserCreate, account.ID, nil, map[string]interface{}{"email": account.Email, "role": account.Role})
	s.notifier.Changed(ctx, domain.TableUserProfiles, domain.ChangeInsert, account.ID)

	s.logger.Info("user account created",
		zap.String("user_id", account.ID.String()),
		zap.String("role", string(account.Role)),
	)
	return account, nil
}

func (s *service) List(ctx context.Context, filter domain.UserFilter) ([]domain.UserAccount, error) {
	if filter.Role != nil && !filter.Role.IsValid() {
		return nil, domain.NewFieldError("role", "must be one of: admin operator analyst viewer")
	}
	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("list users", err)
	}
	return users, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*domain.UserAccount, error) {
	account, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("get user", err)
	}
	if account == nil {
		return nil, domain.NewNotFoundError("user", id)
	}
	return account, nil
}

func (s *service) GetByIdentity(ctx context.Context, identityID uuid.UUID) (*domain.UserAccount, error) {
	account, err := s.userRepo.GetByIdentityID(ctx, identityID)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("get user", err)
	}
	if account == nil {
		return nil, &domain.NotFoundError{Entity: "user", Reason: "no account bound to this identity"}
	}
	return account, nil
}

func (s *service) SetActive(ctx context.Context, actor domain.Actor, id uuid.UUID, active bool) (*domain.UserAccount, error) {
	if actor.UserID != nil && *actor.UserID == id && !active {
		return nil, domain.NewValidationError("you cannot deactivate your own account")
	}

	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.userRepo.SetActive(ctx, id, active)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("set user active", err)
	}
	if !ok {
		return nil, domain.NewNotFoundError("user", id)
	}

	s.audit(ctx, actor, domain.AuditUserActive, id,
		map[string]interface{}{"is_active": before.IsActive},
		map[string]interface{}{"is_active": active},
	)
	s.notifier.Changed(ctx, domain.TableUserProfiles, domain.ChangeUpdate, id)

	return s.Get(ctx, id)
}

func (s *service) ChangeRole(ctx context.Context, actor domain.Actor, id uuid.UUID, role domain.UserRole) (*domain.UserAccount, error) {
	if err := validate.Struct(domain.ChangeRoleInput{Role: role}); err != nil {
		return nil, err
	}

	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if before.Role == role {
		return before, nil
	}

	ok, err := s.userRepo.SetRole(ctx, id, role)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("change user role", err)
	}
	if !ok {
		return nil, domain.NewNotFoundError("user", id)
	}

	s.audit(ctx, actor, domain.AuditUserRole, id,
		map[string]interface{}{"role": before.Role},
		map[string]interface{}{"role": role},
	)
	s.notifier.Changed(ctx, domain.TableUserProfiles, domain.ChangeUpdate, id)

	return s.Get(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, input domain.UpdateProfileInput) (*domain.UserAccount, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		account.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Department != nil {
		account.Department = input.Department
	}
	if input.Rank != nil {
		account.Rank = input.Rank
	}
	if input.Unit != nil {
		account.Unit = input.Unit
	}
	if input.PhoneNumber != nil {
		account.PhoneNumber = input.PhoneNumber
	}

	if err := s.userRepo.UpdateProfile(ctx, account); err != nil {
		return nil, domain.NewRemoteUnavailable("update profile", err)
	}
	s.notifier.Changed(ctx, domain.TableUserProfiles, domain.ChangeUpdate, id)
	return account, nil
}

func (s *service) UploadAvatar(ctx context.Context, id uuid.UUID, upload domain.Upload) (*domain.UserAccount, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	obj, err := s.mediaSvc.Upload(ctx, domain.PrefixAvatars, upload, media.ImageTypes)
	if err != nil {
		return nil, err
	}

	ok, err := s.userRepo.SetAvatar(ctx, id, obj.URL)
	if err != nil || !ok {
		if rmErr := s.mediaSvc.Remove(ctx, obj.Path); rmErr != nil {
			s.logger.Warn("failed to remove orphaned avatar", zap.String("path", obj.Path), zap.Error(rmErr))
		}
		if err != nil {
			return nil, domain.NewRemoteUnavailable("set avatar", err)
		}
		return nil, domain.NewNotFoundError("user", id)
	}

	s.notifier.Changed(ctx, domain.TableUserProfiles, domain.ChangeUpdate, id)
	return s.Get(ctx, id)
}

func (s *service) audit(ctx context.Context, actor domain.Actor, action string, id uuid.UUID, oldValue, newValue interface{}) {
	err := repository.CreateAuditLog(s.auditRepo, ctx, domain.CreateAuditLogInput{
		Actor:      actor,
		Action:     action,
		EntityType: domain.TableUserProfiles,
		EntityID:   id,
		OldValue:   oldValue,
		NewValue:   newValue,
	})
	if err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
