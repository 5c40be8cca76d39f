package accessrequest

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
	"citizen-registry/internal/service/email"
	"citizen-registry/internal/service/user"
)

const emailTimeout = 30 * time.Second

type Service interface {
	Submit(ctx context.Context, input domain.AccessRequestInput) (*domain.AccessRequest, error)
	Approve(ctx context.Context, actor domain.Actor, id uuid.UUID, input domain.ApproveAccessRequestInput) (*domain.UserAccount, error)
	Reject(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.AccessRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.AccessRequest, error)
	List(ctx context.Context, status *domain.AccessRequestStatus, params domain.PaginationParams) (*domain.PaginatedResponse[domain.AccessRequest], error)
}

type Options struct {
	// AllowedDomain, when set, restricts intake to emails ending in @AllowedDomain.
	AllowedDomain string
	Now           func() time.Time
}

type service struct {
	accessRepo   repository.AccessRequestRepository
	identityRepo repository.IdentityRepository
	auditRepo    repository.AuditLogRepository
	provisioner  user.Provisioner
	emailSvc     email.Service
	notifier     realtime.Notifier
	logger       *zap.Logger
	metrics      *metrics.Metrics
	opts         Options
}

func NewService(
	accessRepo repository.AccessRequestRepository,
	identityRepo repository.IdentityRepository,
	auditRepo repository.AuditLogRepository,
	provisioner user.Provisioner,
	emailSvc email.Service,
	notifier realtime.Notifier,
	logger *zap.Logger,
	m *metrics.Metrics,
	opts Options,
) Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.AllowedDomain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(opts.AllowedDomain)), "@")
	return &service{
		accessRepo:   accessRepo,
		identityRepo: identityRepo,
		auditRepo:    auditRepo,
		provisioner:  provisioner,
		emailSvc:     emailSvc,
		notifier:     notifier,
		logger:       logger,
		metrics:      m,
		opts:         opts,
	}
}

func (s *service) Submit(ctx context.Context, input domain.AccessRequestInput) (*domain.AccessRequest, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if s.opts.AllowedDomain != "" && !strings.HasSuffix(input.Email, "@"+s.opts.AllowedDomain) {
		return nil, domain.NewFieldError("email", "must be an @"+s.opts.AllowedDomain+" address")
	}

	pending, err := s.accessRepo.HasPending(ctx, input.Email)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("check pending requests", err)
	}
	if pending {
		return nil, domain.NewFieldError("email", "an access request for this email is already pending")
	}

	exists, err := s.identityRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("check existing accounts", err)
	}
	if exists {
		return nil, domain.NewFieldError("email", "an account with this email already exists")
	}

	req := &domain.AccessRequest{
		ID:              uuid.New(),
		Email:           input.Email,
		FullName:        orDefault(input.FullName, nameFromEmail(input.Email)),
		Department:      strPtr(orDefault(input.Department, domain.DefaultAccessDepartment)),
		Rank:            input.Rank,
		Unit:            input.Unit,
		PhoneNumber:     input.PhoneNumber,
		ReasonForAccess: strPtr(orDefault(input.ReasonForAccess, domain.DefaultAccessReason)),
		Status:          domain.AccessPending,
	}

	if err := s.accessRepo.Create(ctx, req); err != nil {
		if repository.IsUniqueViolation(err, repository.PendingEmailIndex) {
			return nil, domain.NewFieldError("email", "an access request for this email is already pending")
		}
		return nil, domain.NewRemoteUnavailable("create access request", err)
	}

	s.notifier.Changed(ctx, domain.TableAccessRequests, domain.ChangeInsert, req.ID)
	s.logger.Info("access request submitted", zap.String("request_id", req.ID.String()))
	return req, nil
}

// Approve provisions an identity and account for a pending request and marks
// it approved. On any failure the request stays pending and nothing that was
// provisioned survives.
func (s *service) Approve(ctx context.Context, actor domain.Actor, id uuid.UUID, input domain.ApproveAccessRequestInput) (*domain.UserAccount, error) {
	if actor.UserID == nil {
		return nil, &domain.ForbiddenError{Message: "an approver is required"}
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	role := domain.RoleViewer
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, domain.NewFieldError("role", "must be one of: admin operator analyst viewer")
		}
		role = *input.Role
	}

	req, err := s.pendingRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	account := &domain.UserAccount{
		Email:       req.Email,
		FullName:    req.FullName,
		Role:        role,
		Department:  req.Department,
		Rank:        req.Rank,
		Unit:        req.Unit,
		PhoneNumber: req.PhoneNumber,
		IsActive:    true,
	}
	if err := s.provisioner.Provision(ctx, account, input.TemporaryPassword); err != nil {
		s.metrics.AccessDecisions.WithLabelValues("failed").Inc()
		return nil, err
	}

	ok, err := s.accessRepo.Decide(ctx, id, domain.AccessApproved, *actor.UserID, s.opts.Now().UTC())
	if err != nil || !ok {
		if cErr := s.provisioner.Deprovision(ctx, account); cErr != nil {
			s.logger.Error("approval left a partially provisioned account",
				zap.String("request_id", id.String()),
				zap.String("identity_id", account.IdentityID.String()),
				zap.Error(cErr),
			)
		}
		s.metrics.AccessDecisions.WithLabelValues("failed").Inc()
		if err != nil {
			return nil, domain.NewRemoteUnavailable("approve access request", err)
		}
		return nil, &domain.NotFoundError{Entity: "access request", ID: id.String(), Reason: "no longer pending"}
	}

	s.metrics.AccessDecisions.WithLabelValues("approved").Inc()
	s.audit(ctx, actor, domain.AuditApproveAccess, id,
		map[string]interface{}{"status": domain.AccessPending},
		map[string]interface{}{"status": domain.AccessApproved, "user_id": account.ID, "role": role},
	)
	s.notifier.Changed(ctx, domain.TableUserProfiles, domain.ChangeInsert, account.ID)
	s.notifier.Changed(ctx, domain.TableAccessRequests, domain.ChangeUpdate, id)

	s.sendAsync("approval", func(ctx context.Context) error {
		return s.emailSvc.SendAccessApproved(ctx, account.Email, account.FullName, role)
	})

	s.logger.Info("access request approved",
		zap.String("request_id", id.String()),
		zap.String("user_id", account.ID.String()),
	)
	return account, nil
}

func (s *service) Reject(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.AccessRequest, error) {
	if actor.UserID == nil {
		return nil, &domain.ForbiddenError{Message: "an approver is required"}
	}

	req, err := s.pendingRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.opts.Now().UTC()
	ok, err := s.accessRepo.Decide(ctx, id, domain.AccessRejected, *actor.UserID, now)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("reject access request", err)
	}
	if !ok {
		return nil, &domain.NotFoundError{Entity: "access request", ID: id.String(), Reason: "no longer pending"}
	}

	req.Status = domain.AccessRejected
	req.ApprovedBy = actor.UserID
	req.ApprovedAt = &now

	s.metrics.AccessDecisions.WithLabelValues("rejected").Inc()
	s.audit(ctx, actor, domain.AuditRejectAccess, id,
		map[string]interface{}{"status": domain.AccessPending},
		map[string]interface{}{"status": domain.AccessRejected},
	)
	s.notifier.Changed(ctx, domain.TableAccessRequests, domain.ChangeUpdate, id)

	s.sendAsync("rejection", func(ctx context.Context) error {
		return s.emailSvc.SendAccessRejected(ctx, req.Email, req.FullName)
	})
	return req, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*domain.AccessRequest, error) {
	req, err := s.accessRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("get access request", err)
	}
	if req == nil {
		return nil, domain.NewNotFoundError("access request", id)
	}
	return req, nil
}

func (s *service) List(ctx context.Context, status *domain.AccessRequestStatus, params domain.PaginationParams) (*domain.PaginatedResponse[domain.AccessRequest], error) {
	if status != nil && !status.IsValid() {
		return nil, domain.NewFieldError("status", "must be one of: pending approved rejected")
	}
	params.Validate()

	requests, total, err := s.accessRepo.List(ctx, status, params)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("list access requests", err)
	}
	resp := domain.NewPaginatedResponse(requests, params, total)
	return &resp, nil
}

func (s *service) pendingRequest(ctx context.Context, id uuid.UUID) (*domain.AccessRequest, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status.IsTerminal() {
		return nil, &domain.NotFoundError{Entity: "access request", ID: id.String(), Reason: "already " + string(req.Status)}
	}
	return req, nil
}

func (s *service) sendAsync(kind string, send func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			s.logger.Warn("failed to send access decision email", zap.String("kind", kind), zap.Error(err))
		}
	}()
}

func (s *service) audit(ctx context.Context, actor domain.Actor, action string, id uuid.UUID, oldValue, newValue interface{}) {
	err := repository.CreateAuditLog(s.auditRepo, ctx, domain.CreateAuditLogInput{
		Actor:      actor,
		Action:     action,
		EntityType: domain.TableAccessRequests,
		EntityID:   id,
		OldValue:   oldValue,
		NewValue:   newValue,
	})
	if err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}

// nameFromEmail turns "jane.doe@x" into "jane doe".
func nameFromEmail(addr string) string {
	local := addr
	if i := strings.IndexByte(addr, '@'); i >= 0 {
		local = addr[:i]
	}
	return strings.TrimSpace(strings.ReplaceAll(local, ".", " "))
}

func orDefault(v *string, def string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return def
	}
	return strings.TrimSpace(*v)
}

func strPtr(s string) *string { return &s }
